package listing

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/c360studio/semtrim/lang"
)

// Formats accepted by Render.
const (
	FormatPlain    = "plain"
	FormatMarkdown = "markdown"
)

// Render renders the document in the named format. An empty format means
// plain.
func Render(doc *Document, format string) (string, error) {
	switch format {
	case "", FormatPlain:
		w := &plainWriter{}
		for _, f := range doc.Files {
			w.WriteFile(f)
		}
		return w.String(), nil
	case FormatMarkdown:
		w := &markdownWriter{}
		for _, f := range doc.Files {
			w.WriteFile(f)
		}
		return w.String(), nil
	default:
		return "", fmt.Errorf("unknown listing format %q", format)
	}
}

// plainWriter concatenates files, each introduced by a banner comment in
// the file's own comment syntax.
type plainWriter struct {
	sb strings.Builder
	n  int
}

// WriteFile appends one file with its banner.
func (w *plainWriter) WriteFile(f FileResult) {
	if w.n > 0 {
		w.sb.WriteString("\n")
	}
	w.n++

	w.sb.WriteString(banner(f))
	w.sb.WriteString("\n")
	w.sb.Write(f.Text)
	if !bytes.HasSuffix(f.Text, []byte("\n")) {
		w.sb.WriteString("\n")
	}
}

// String returns the accumulated listing.
func (w *plainWriter) String() string {
	return w.sb.String()
}

// banner renders the per-file header comment. Unknown languages fall back
// to a double-slash comment, which covers failed files that never got a
// language assigned.
func banner(f FileResult) string {
	leader := "//"
	if l, err := lang.Get(f.Language); err == nil {
		if l.Comment.Line != "" {
			leader = l.Comment.Line
		} else if l.Comment.HasBlock() {
			return fmt.Sprintf("%s ==== %s ==== %s", l.Comment.BlockOpen, f.File.Rel, l.Comment.BlockClose)
		}
	}
	return fmt.Sprintf("%s ==== %s ====", leader, f.File.Rel)
}

// markdownWriter renders each file as a heading plus a fenced code block
// tagged with the language name.
type markdownWriter struct {
	sb strings.Builder
	n  int
}

// WriteFile appends one file section.
func (w *markdownWriter) WriteFile(f FileResult) {
	if w.n > 0 {
		w.sb.WriteString("\n")
	}
	w.n++

	fence := fenceFor(f.Text)
	w.sb.WriteString("## " + f.File.Rel + "\n\n")
	w.sb.WriteString(fence + f.Language + "\n")
	w.sb.Write(f.Text)
	if !bytes.HasSuffix(f.Text, []byte("\n")) {
		w.sb.WriteString("\n")
	}
	w.sb.WriteString(fence + "\n")
}

// String returns the accumulated markdown.
func (w *markdownWriter) String() string {
	return w.sb.String()
}

// fenceFor returns a backtick fence longer than any backtick run in the
// text, so embedded code blocks cannot terminate the fence early.
func fenceFor(text []byte) string {
	longest, run := 0, 0
	for _, b := range text {
		if b == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	n := 3
	if longest >= 3 {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}
