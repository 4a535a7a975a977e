package optimize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/tokens"
)

// Span is a half-open byte range into a text buffer.
type Span struct {
	Start, End int
}

// escapeRe matches backslash escape sequences in string content. A cut
// inside one would orphan the backslash, so escapes join the protected
// regions alongside interpolations.
var escapeRe = regexp.MustCompile(`\\(u\{[0-9a-fA-F]+\}|u[0-9a-fA-F]{1,4}|x[0-9a-fA-F]{1,2}|[0-7]{1,3}|.)`)

// sentenceEndRe finds the end of the first sentence in comment prose.
var sentenceEndRe = regexp.MustCompile(`[.!?](\s|$)`)

// Trimmer shortens strings, comments, and statement blocks to token
// budgets, rendering omission markers in the language's comment syntax.
type Trimmer struct {
	counter  tokens.Counter
	selector Selector
	comment  lang.CommentStyle
	quote    string
}

// NewTrimmer builds a trimmer. quote is the fallback closing delimiter
// used when a string profile's detector comes back empty.
func NewTrimmer(counter tokens.Counter, comment lang.CommentStyle, quote string) *Trimmer {
	if quote == "" {
		quote = `"`
	}
	return &Trimmer{
		counter:  counter,
		selector: NewSelector(counter),
		comment:  comment,
		quote:    quote,
	}
}

// LineComment renders text as a whole-line comment.
func (t *Trimmer) LineComment(text string) string {
	if t.comment.Line != "" {
		return t.comment.Line + " " + text
	}
	return t.comment.BlockOpen + " " + text + " " + t.comment.BlockClose
}

// InlineComment renders text as a comment that may sit mid-line, or ""
// when the language has no block comment syntax.
func (t *Trimmer) InlineComment(text string) string {
	if t.comment.HasBlock() {
		return t.comment.BlockOpen + " " + text + " " + t.comment.BlockClose
	}
	return ""
}

// TruncateString shortens a string literal to the budget, preserving the
// delimiter pair and cutting only at safe points: rune boundaries outside
// every interpolation region and escape sequence. The cut is marked with
// an inline ellipsis. Returns the new literal text, the tokens saved, and
// whether anything changed.
func (t *Trimmer) TruncateString(raw, open, close string, regions []Region, budget int) (string, int, bool) {
	if close == "" {
		close = t.quote
	}
	if open == "" || len(raw) < len(open)+len(close) {
		return raw, 0, false
	}
	before := t.counter.Count(raw)
	if before <= budget {
		return raw, 0, false
	}
	inner := raw[len(open) : len(raw)-len(close)]
	if strings.HasSuffix(inner, Ellipsis) || alreadyMarked(raw) {
		return raw, 0, false
	}

	for _, m := range escapeRe.FindAllStringIndex(inner, -1) {
		regions = append(regions, Region{Start: m[0], End: m[1]})
	}
	regions = mergeRegions(regions)

	best := 0
	for i := 0; i <= len(inner); {
		cut := Adjust(i, regions)
		candidate := open + inner[:cut] + Ellipsis + close
		if t.counter.Count(candidate) > budget {
			break
		}
		best = cut
		if cut >= len(inner) {
			break
		}
		next := cut
		_, size := utf8.DecodeRuneInString(inner[next:])
		i = next + size
	}
	if best >= len(inner) {
		return raw, 0, false
	}

	trimmed := open + inner[:best] + Ellipsis + close
	saved := before - t.counter.Count(trimmed)
	if saved <= 0 {
		return raw, 0, false
	}
	return trimmed, saved, true
}

// TruncateComment shortens a comment to the budget. Single-line comments
// keep a prefix of words; multi-line comments keep whole leading lines.
// The truncation style (line marker, block open/close, continuation
// prefix, indentation) is detected from the text, so one algorithm serves
// every language.
func (t *Trimmer) TruncateComment(raw, indent string, budget int) (string, int, bool) {
	before := t.counter.Count(raw)
	if before <= budget {
		return raw, 0, false
	}
	if alreadyMarked(raw) {
		return raw, 0, false
	}

	var result string
	if strings.ContainsRune(raw, '\n') {
		result = t.truncateCommentLines(raw, indent, budget)
	} else {
		result = t.truncateCommentWords(raw, budget)
	}
	saved := before - t.counter.Count(result)
	if saved <= 0 {
		return raw, 0, false
	}
	return result, saved, true
}

// truncateCommentWords keeps a word prefix of a one-line comment.
func (t *Trimmer) truncateCommentWords(raw string, budget int) string {
	prefix, content, suffix := splitCommentTokens(raw, t.comment)
	words := strings.Fields(content)
	elements := make([]Element, len(words))
	for i, w := range words {
		elements[i] = Element{Text: w}
	}
	sel := t.selector.Prefix(elements, "", budget, 1, func(_, saved int) string {
		return prefix + " " + markerSaved(saved) + suffix
	})
	if sel.Fits {
		return raw
	}
	parts := append([]string{prefix}, words[:sel.Kept]...)
	parts = append(parts, markerSaved(sel.Saved))
	out := strings.Join(parts, " ")
	if suffix != "" {
		out += suffix
	}
	return out
}

// truncateCommentLines keeps whole leading lines of a multi-line comment
// and closes it properly, inserting a continuation-prefixed marker line.
func (t *Trimmer) truncateCommentLines(raw, indent string, budget int) string {
	body := raw
	tail := ""
	if t.comment.HasBlock() && strings.HasSuffix(strings.TrimRight(raw, " \t"), t.comment.BlockClose) {
		idx := strings.LastIndex(raw, t.comment.BlockClose)
		body, tail = raw[:idx], raw[idx:]
	}

	lines := strings.Split(strings.TrimRight(body, " \t\n"), "\n")
	if len(lines) < 2 {
		return raw
	}
	continuation := continuationPrefix(lines[1], indent, t.comment)

	elements := make([]Element, 0, len(lines)-1)
	for _, line := range lines[1:] {
		elements = append(elements, Element{Text: line})
	}
	marker := func(_, saved int) string { return continuation + markerSaved(saved) }
	sel := t.selector.Prefix(elements, "\n", budget-t.counter.Count(lines[0]), 0, marker)
	if sel.Fits {
		return raw
	}

	kept := append([]string{lines[0]}, lines[1:1+sel.Kept]...)
	kept = append(kept, marker(sel.Omitted, sel.Saved))
	out := strings.Join(kept, "\n")
	if tail != "" {
		out += "\n" + indent + " " + tail
	}
	return out
}

// FirstSentence reduces a comment to its first sentence on one line,
// keeping the original comment token.
func (t *Trimmer) FirstSentence(raw string) (string, bool) {
	prefix, content, suffix := splitCommentTokens(raw, t.comment)
	prose := commentProse(content)
	if prose == "" {
		return raw, false
	}
	if loc := sentenceEndRe.FindStringIndex(prose); loc != nil {
		prose = prose[:loc[0]+1]
	}
	out := prefix + " " + prose + suffix
	if out == raw {
		return raw, false
	}
	return out, true
}

// TrimBody drops whole trailing statements from a body until it fits the
// budget, leaving a marker line at the statements' indentation. body is
// the full body text; statements are spans into it.
func (t *Trimmer) TrimBody(body string, statements []Span, indent string, budget int) (string, int, bool) {
	before := t.counter.Count(body)
	if before <= budget || len(statements) == 0 {
		return body, 0, false
	}
	// A previous trim leaves its marker as the last statement-position
	// line. Only that position signals idempotence; a marker deeper in
	// the body belongs to some nested construct.
	last := statements[len(statements)-1]
	if alreadyMarked(body[last.Start:last.End]) {
		return body, 0, false
	}

	elements := make([]Element, len(statements))
	for i, s := range statements {
		elements[i] = Element{Text: body[s.Start:s.End]}
	}
	marker := func(lines, saved int) string {
		return indent + t.LineComment(markerMoreLines(lines, saved))
	}
	head := t.counter.Count(body[:statements[0].Start])
	sel := t.selector.Prefix(elements, "\n", budget-head, 0, marker)
	if sel.Fits {
		return body, 0, false
	}

	keptEnd := statements[0].Start
	if sel.Kept > 0 {
		keptEnd = statements[sel.Kept-1].End
	}
	omittedSpan := body[keptEnd:statements[len(statements)-1].End]
	lines := strings.Count(strings.TrimSpace(omittedSpan), "\n") + 1
	tail := body[statements[len(statements)-1].End:]

	var sb strings.Builder
	sb.WriteString(body[:keptEnd])
	sb.WriteString("\n")
	saved := 0
	for i := sel.Kept; i < len(elements); i++ {
		saved += t.counter.Count(elements[i].Text) + 1
	}
	sb.WriteString(marker(lines, saved))
	sb.WriteString(tail)
	result := sb.String()

	actualSaved := before - t.counter.Count(result)
	if actualSaved <= 0 {
		return body, 0, false
	}
	return result, actualSaved, true
}

// splitCommentTokens separates a one-line comment into its leading token,
// prose content, and trailing close token. The leading token keeps doc
// prefixes intact ("///", "/**").
func splitCommentTokens(raw string, style lang.CommentStyle) (prefix, content, suffix string) {
	content = raw
	if style.HasBlock() && strings.HasPrefix(content, style.BlockOpen) {
		prefix = style.BlockOpen
		content = content[len(style.BlockOpen):]
		for strings.HasPrefix(content, "*") && !strings.HasPrefix(content, "*/") {
			prefix += "*"
			content = content[1:]
		}
		if strings.HasSuffix(strings.TrimRight(content, " \t"), style.BlockClose) {
			idx := strings.LastIndex(content, style.BlockClose)
			content, suffix = content[:idx], " "+style.BlockClose
		}
		return prefix, strings.TrimSpace(content), suffix
	}
	if style.Line != "" && strings.HasPrefix(content, style.Line) {
		prefix = style.Line
		content = content[len(style.Line):]
		marker := style.Line[len(style.Line)-1]
		for len(content) > 0 && (content[0] == marker || content[0] == '!') {
			prefix += string(content[0])
			content = content[1:]
		}
		return prefix, strings.TrimSpace(content), ""
	}
	return "", strings.TrimSpace(content), ""
}

// commentProse flattens comment content to one line of prose, dropping
// the "*" line decorations of aligned block comments.
func commentProse(content string) string {
	var words []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		words = append(words, strings.Fields(line)...)
	}
	return strings.Join(words, " ")
}

// continuationPrefix extracts the leading decoration of a comment
// continuation line (" * " in aligned block comments), falling back to
// the line's indentation.
func continuationPrefix(line, indent string, style lang.CommentStyle) string {
	trimmed := strings.TrimLeft(line, " \t")
	ws := line[:len(line)-len(trimmed)]
	if strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "*/") {
		return ws + "* "
	}
	if style.Line != "" && strings.HasPrefix(trimmed, style.Line) {
		return ws + style.Line + " "
	}
	if ws == "" {
		return indent
	}
	return ws
}
