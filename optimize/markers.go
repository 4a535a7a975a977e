package optimize

import (
	"fmt"
	"regexp"
)

// Ellipsis marks a truncation point. A single Unicode character keeps the
// marker cheap under BPE encodings.
const Ellipsis = "…"

// minus is the Unicode minus sign used in saved-token counts.
const minus = "−"

// markerMore renders the collection omission marker: "… (3 more, −9 tokens)".
func markerMore(omitted, saved int) string {
	return fmt.Sprintf("%s (%d more, %s%d tokens)", Ellipsis, omitted, minus, saved)
}

// markerMoreLines renders the partial body omission marker:
// "… (4 more lines, −87 tokens)".
func markerMoreLines(lines, saved int) string {
	return fmt.Sprintf("%s (%d more lines, %s%d tokens)", Ellipsis, lines, minus, saved)
}

// markerBodyOmitted renders the full body omission marker:
// "… function body omitted (3 lines)".
func markerBodyOmitted(method bool, lines int) string {
	kind := "function"
	if method {
		kind = "method"
	}
	noun := "lines"
	if lines == 1 {
		noun = "line"
	}
	return fmt.Sprintf("%s %s body omitted (%d %s)", Ellipsis, kind, lines, noun)
}

// markerLiteral renders the trailing comment after a truncated string:
// "literal string (−12 tokens)".
func markerLiteral(saved int) string {
	return fmt.Sprintf("literal string (%s%d tokens)", minus, saved)
}

// markerSaved renders the generic savings marker used for trimmed
// comments: "… (−9 tokens)".
func markerSaved(saved int) string {
	return fmt.Sprintf("%s (%s%d tokens)", Ellipsis, minus, saved)
}

// omissionRe recognizes text this engine has already marked. Matching
// nodes are left alone so a rerun over its own output is a no-op.
var omissionRe = regexp.MustCompile(
	Ellipsis + ` (\(\d+ more(?: lines)?, ` + minus + `\d+ tokens\)|(?:function|method) body omitted \(\d+ lines?\)|\(` + minus + `\d+ tokens\))`,
)

// alreadyMarked reports whether text carries an omission marker.
func alreadyMarked(text string) bool {
	return omissionRe.MatchString(text)
}

// literalMarkerRe recognizes the trailing comment left after a truncated
// string. Kept out of omissionRe so the comment cannot make unrelated
// sibling text look already processed; the truncated string itself is
// guarded by its inner ellipsis.
var literalMarkerRe = regexp.MustCompile(`literal string \(` + minus + `\d+ tokens\)`)

// engineArtifact reports whether the comment text was written by an
// optimization pass. Artifact comments must survive every comment policy:
// removing one would erase the only record of what was omitted.
func engineArtifact(text string) bool {
	return alreadyMarked(text) || literalMarkerRe.MatchString(text)
}
