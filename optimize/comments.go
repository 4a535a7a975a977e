package optimize

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semtrim/profile"
)

// commentGroup is a run of whole-line comments on consecutive lines,
// decided and rewritten as one unit so a doc block written as stacked
// single-line comments is not dismembered by a per-node decision.
// Docstrings form single-node groups.
type commentGroup struct {
	first, last *sitter.Node
	start, end  int
	docstring   bool
}

// optimizeComments applies the comment policy chain to every comment
// group and docstring under root.
func (e *Engine) optimizeComments(root *sitter.Node, src []byte) Result {
	var edits []edit
	var stats []NodeStat
	for _, g := range e.collectCommentGroups(root, src) {
		e.processCommentGroup(g, src, &edits, &stats)
	}
	return Result{Text: applyEdits(src, edits), Changed: len(edits) > 0, Stats: stats}
}

func (e *Engine) collectCommentGroups(root *sitter.Node, src []byte) []commentGroup {
	var groups []commentGroup
	var run []*sitter.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		groups = append(groups, commentGroup{
			first: run[0],
			last:  run[len(run)-1],
			start: int(run[0].StartByte()),
			end:   int(run[len(run)-1].EndByte()),
		})
		run = nil
	}
	walk(root, func(n *sitter.Node) bool {
		switch {
		case e.language.IsComment(n.Type()):
			if !joinsRun(run, n, src) {
				flush()
			}
			run = append(run, n)
			return false
		case e.isDocstring(n):
			flush()
			groups = append(groups, commentGroup{
				first:     n,
				last:      n,
				start:     int(n.StartByte()),
				end:       int(n.EndByte()),
				docstring: true,
			})
			return false
		}
		return true
	})
	flush()
	return groups
}

// joinsRun reports whether the comment extends the current run: both
// whole-line comments, one line apart. Trailing comments after code
// always stand alone.
func joinsRun(run []*sitter.Node, n *sitter.Node, src []byte) bool {
	if len(run) == 0 {
		return false
	}
	last := run[len(run)-1]
	if n.StartPoint().Row != last.EndPoint().Row+1 {
		return false
	}
	return atLineStart(src, int(last.StartByte())) && atLineStart(src, int(n.StartByte()))
}

func (e *Engine) processCommentGroup(g commentGroup, src []byte, edits *[]edit, stats *[]NodeStat) {
	text := string(src[g.start:g.end])
	if !g.docstring && engineArtifact(text) {
		// Omission markers from the body and literal passes are not
		// source comments; no policy applies to them.
		return
	}
	before := e.counter.Count(text)
	decl := e.followingDecl(g.last)
	var annotations []string
	if decl != nil {
		annotations = e.declAnnotations(decl, src)
	}
	d := e.commentChain.Decide(EvalContext{
		Node:        g.first,
		Src:         src,
		Text:        text,
		Doc:         g.docstring || e.language.Doc.IsDoc(text) || decl != nil,
		Annotations: annotations,
	})

	switch d.Action {
	case ActionRemove:
		if !e.removeComment(g, src, edits) {
			*stats = append(*stats, e.stat(g.first, before, before, "skip", d.Rule))
			return
		}
		*stats = append(*stats, e.stat(g.first, before, 0, "remove", d.Rule))

	case ActionFirstSentence:
		replacement, changed := e.firstSentence(g, text)
		if !changed {
			*stats = append(*stats, e.stat(g.first, before, before, "first_sentence", d.Rule))
			return
		}
		recordEdit(edits, edit{start: g.start, end: g.end, text: replacement})
		*stats = append(*stats, e.stat(g.first, before, e.counter.Count(replacement), "first_sentence", d.Rule))

	default:
		// Pattern and annotation keeps preserve the comment verbatim;
		// only policy keeps are subject to the token ceiling.
		preserved := d.Rule == "except_pattern" || d.Rule == "keep_annotated"
		max := e.cfg.Comments.MaxTokens
		if preserved || max <= 0 || before <= max {
			*stats = append(*stats, e.stat(g.first, before, before, "keep", d.Rule))
			return
		}
		var trimmed string
		var changed bool
		if g.docstring {
			trimmed, changed = e.truncateDocstring(g, text, max)
		} else {
			trimmed, _, changed = e.trimmer.TruncateComment(text, lineIndent(src, g.start), max)
		}
		if !changed {
			*stats = append(*stats, e.stat(g.first, before, before, "keep", d.Rule))
			return
		}
		recordEdit(edits, edit{start: g.start, end: g.end, text: trimmed})
		*stats = append(*stats, e.stat(g.first, before, e.counter.Count(trimmed), "trim", "max_tokens"))
	}
}

// removeComment deletes the group, widening to whole lines when the
// comments stand alone. Reports false when removal is impossible (a
// docstring that is the body's only statement in a language without a
// statement placeholder).
func (e *Engine) removeComment(g commentGroup, src []byte, edits *[]edit) bool {
	if g.docstring {
		return e.removeDocstring(g, src, edits)
	}
	start, end := removalSpan(src, g.start, g.end)
	recordEdit(edits, edit{start: start, end: end})
	return true
}

// removeDocstring deletes the docstring statement, substituting the
// language's placeholder statement when the body would otherwise be
// empty.
func (e *Engine) removeDocstring(g commentGroup, src []byte, edits *[]edit) bool {
	stmt := g.first.Parent()
	blk := stmt.Parent()
	sStart, sEnd := int(stmt.StartByte()), int(stmt.EndByte())
	if int(blk.NamedChildCount()) > 1 {
		start, end := removalSpan(src, sStart, sEnd)
		recordEdit(edits, edit{start: start, end: end})
		return true
	}
	placeholder := e.language.StatementPlaceholder
	if placeholder == "" {
		return false
	}
	recordEdit(edits, edit{start: sStart, end: sEnd, text: placeholder})
	return true
}

// firstSentence reduces the group to its first sentence, keeping the
// original comment or string delimiters.
func (e *Engine) firstSentence(g commentGroup, text string) (string, bool) {
	if g.docstring {
		return e.docstringSentence(g, text)
	}
	if g.first == g.last {
		return e.trimmer.FirstSentence(text)
	}

	// A run of line comments: strip each line's comment token before
	// flattening to prose.
	lines := strings.Split(text, "\n")
	prefix, head, _ := splitCommentTokens(strings.TrimSpace(lines[0]), e.language.Comment)
	parts := []string{head}
	for _, ln := range lines[1:] {
		_, content, _ := splitCommentTokens(strings.TrimSpace(ln), e.language.Comment)
		parts = append(parts, content)
	}
	prose := commentProse(strings.Join(parts, "\n"))
	if prose == "" {
		return text, false
	}
	if loc := sentenceEndRe.FindStringIndex(prose); loc != nil {
		prose = prose[:loc[0]+1]
	}
	out := prefix + " " + prose
	return out, out != text
}

func (e *Engine) docstringSentence(g commentGroup, text string) (string, bool) {
	open, close, ok := e.docstringDelimiters(g.first, text)
	if !ok {
		return text, false
	}
	prose := commentProse(text[len(open) : len(text)-len(close)])
	if prose == "" {
		return text, false
	}
	if loc := sentenceEndRe.FindStringIndex(prose); loc != nil {
		prose = prose[:loc[0]+1]
	}
	out := open + prose + close
	return out, out != text
}

// truncateDocstring cuts a docstring to the budget with string-literal
// semantics: the delimiters survive and the cut is marked inline.
func (e *Engine) truncateDocstring(g commentGroup, text string, budget int) (string, bool) {
	open, close, ok := e.docstringDelimiters(g.first, text)
	if !ok {
		return text, false
	}
	trimmed, _, changed := e.trimmer.TruncateString(text, open, close, nil, budget)
	return trimmed, changed
}

func (e *Engine) docstringDelimiters(node *sitter.Node, text string) (string, string, bool) {
	p, ok := e.matchLiteralProfile(node, text)
	if !ok || p.Shape() != profile.ShapeString {
		return "", "", false
	}
	open, close := p.Delimiters(text)
	if close == "" {
		close = e.language.Quote()
	}
	if open == "" || len(text) < len(open)+len(close) {
		return "", "", false
	}
	return open, close, true
}

// isDocstring reports whether the node is a documentation string: the
// sole expression of the first statement of a module or definition body,
// in languages where Doc.StringDoc is set.
func (e *Engine) isDocstring(node *sitter.Node) bool {
	if !e.language.Doc.StringDoc {
		return false
	}
	candidates := e.language.Profiles.Candidates(node.Type())
	if len(candidates) == 0 || candidates[0].Shape() != profile.ShapeString {
		return false
	}
	stmt := node.Parent()
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return false
	}
	blk := stmt.Parent()
	if blk == nil {
		return false
	}
	first := blk.NamedChild(0)
	if first == nil || first.StartByte() != stmt.StartByte() {
		return false
	}
	if blk.Parent() == nil {
		// Module level.
		return true
	}
	if e.language.IsSuiteBody(blk.Type()) {
		p := blk.Parent()
		return p != nil && e.language.IsDecl(p.Type())
	}
	return false
}

// followingDecl returns the declaration the comment documents: the next
// named sibling, skipping attached annotations, with no blank line in
// between.
func (e *Engine) followingDecl(last *sitter.Node) *sitter.Node {
	prev := last
	for s := last.NextNamedSibling(); s != nil; s = s.NextNamedSibling() {
		if s.StartPoint().Row > prev.EndPoint().Row+1 {
			return nil
		}
		switch {
		case e.language.IsAnnotation(s.Type()):
			prev = s
		case e.language.IsDecl(s.Type()):
			return s
		default:
			return nil
		}
	}
	return nil
}

// removalSpan widens a span to its full lines, line breaks included,
// when only whitespace surrounds it on them; a trailing comment after
// code gives up just itself and the spaces before it.
func removalSpan(src []byte, start, end int) (int, int) {
	ls := start
	for ls > 0 && src[ls-1] != '\n' {
		ls--
	}
	if atLineStart(src, start) && restOfLineBlank(src, end) {
		eol := end
		for eol < len(src) && src[eol] != '\n' {
			eol++
		}
		if eol < len(src) {
			eol++
		}
		return ls, eol
	}
	ws := start
	for ws > ls && (src[ws-1] == ' ' || src[ws-1] == '\t') {
		ws--
	}
	return ws, end
}
