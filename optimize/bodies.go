package optimize

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semtrim/lang"
)

// optimizeBodies applies the function-body policy chain to every
// declaration with a body. Declarations are processed deepest first so
// stripping an outer function supersedes any rewrite of a function
// nested inside it.
func (e *Engine) optimizeBodies(root *sitter.Node, src []byte) Result {
	var decls []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if _, ok := e.language.FunctionSpecFor(n.Type()); ok {
			decls = append(decls, n)
		}
		return true
	})

	var edits []edit
	var stats []NodeStat
	for i := len(decls) - 1; i >= 0; i-- {
		e.processBody(decls[i], src, &edits, &stats)
	}
	return Result{Text: applyEdits(src, edits), Changed: len(edits) > 0, Stats: stats}
}

func (e *Engine) processBody(decl *sitter.Node, src []byte, edits *[]edit, stats *[]NodeStat) {
	spec, _ := e.language.FunctionSpecFor(decl.Type())
	body := spec.BodyOf(decl)
	if body == nil {
		// Abstract methods and interface members have nothing to strip.
		return
	}
	name := spec.NameOf(decl, src)
	d := e.bodyChain.Decide(EvalContext{
		Node:        decl,
		Src:         src,
		Name:        name,
		Annotations: e.declAnnotations(decl, src),
		Public:      e.language.Public(name, decl, src),
	})

	bStart, bEnd := int(body.StartByte()), int(body.EndByte())
	current, shift := materializeNode(src, bStart, bEnd, *edits)
	before := e.counter.Count(current)

	if d.Action == ActionStrip {
		e.stripBody(decl, body, spec, src, current, before, d.Rule, edits, stats)
		return
	}

	// Pattern and annotation keeps preserve the body verbatim; only
	// policy keeps are subject to the token ceiling.
	preserved := d.Rule == "except_pattern" || d.Rule == "keep_annotated"
	max := e.cfg.FunctionBodies.MaxTokens
	if preserved || max <= 0 || before <= max {
		*stats = append(*stats, e.stat(decl, before, before, "keep", d.Rule))
		return
	}

	spans := e.bodyStatementSpans(body, shift)
	if len(spans) == 0 {
		*stats = append(*stats, e.stat(decl, before, before, "keep", d.Rule))
		return
	}
	indent := lineIndentStr(current, spans[0].Start)
	trimmed, _, changed := e.trimmer.TrimBody(current, spans, indent, max)
	if !changed {
		*stats = append(*stats, e.stat(decl, before, before, "keep", d.Rule))
		return
	}
	recordEdit(edits, edit{start: bStart, end: bEnd, text: trimmed})
	*stats = append(*stats, e.stat(decl, before, e.counter.Count(trimmed), "trim", "max_tokens"))
}

// stripBody replaces the body with an omission marker. Falls back to
// keeping bodies it cannot render (expression bodies) or that are
// already no longer than their marker.
func (e *Engine) stripBody(decl, body *sitter.Node, spec lang.FunctionSpec, src []byte, current string, before int, rule string, edits *[]edit, stats *[]NodeStat) {
	if bodyAlreadyStripped(current) {
		*stats = append(*stats, e.stat(decl, before, before, "skip", rule))
		return
	}
	braced := strings.HasPrefix(current, "{")
	suite := e.language.IsSuiteBody(body.Type())
	if !braced && !suite {
		// Expression bodies (fun f() = expr) have no block to empty.
		*stats = append(*stats, e.stat(decl, before, before, "skip", rule))
		return
	}
	if !braced && !restOfLineBlank(src, int(body.EndByte())) {
		// A one-line suite (def f; x; end) leaves code after the cut that
		// a line-comment marker would swallow.
		*stats = append(*stats, e.stat(decl, before, before, "skip", rule))
		return
	}

	first, last := firstLastNamedChildren(body)
	if first == nil {
		*stats = append(*stats, e.stat(decl, before, before, "skip", rule))
		return
	}
	lines := int(last.EndPoint().Row) - int(first.StartPoint().Row) + 1
	marker := e.trimmer.LineComment(markerBodyOmitted(spec.Method, lines))
	declIndent := lineIndent(src, int(decl.StartByte()))
	bodyIndent := lineIndent(src, int(first.StartByte()))
	if !atLineStart(src, int(first.StartByte())) {
		bodyIndent = declIndent + "    "
	}

	var replacement string
	if braced {
		replacement = "{\n" + bodyIndent + marker + "\n" + declIndent + "}"
	} else {
		replacement = marker
		if e.language.StatementPlaceholder != "" {
			replacement += "\n" + bodyIndent + e.language.StatementPlaceholder
		}
	}

	after := e.counter.Count(replacement)
	if after >= before {
		// The marker would cost more than the body it replaces.
		*stats = append(*stats, e.stat(decl, before, before, "skip", rule))
		return
	}
	recordEdit(edits, edit{start: int(body.StartByte()), end: int(body.EndByte()), text: replacement})
	*stats = append(*stats, e.stat(decl, before, after, "strip", rule))
}

// bodyAlreadyStripped reports whether the body's first content line is an
// omission marker, meaning a previous run already emptied this body. A
// marker further in (a stripped function nested inside) does not count:
// the enclosing body still has real statements worth replacing.
func bodyAlreadyStripped(current string) bool {
	first := strings.TrimLeft(current, "{ \t\r\n")
	if nl := strings.IndexByte(first, '\n'); nl >= 0 {
		first = first[:nl]
	}
	return alreadyMarked(first)
}

// bodyStatementSpans maps the body's named children into the
// materialized body text, descending through a wrapping statement suite
// so each statement is an independent drop candidate.
func (e *Engine) bodyStatementSpans(body *sitter.Node, shift func(int) int) []Span {
	if body.NamedChildCount() == 1 {
		if c := body.NamedChild(0); e.language.IsSuiteBody(c.Type()) {
			body = c
		}
	}
	n := int(body.NamedChildCount())
	spans := make([]Span, 0, n)
	for i := 0; i < n; i++ {
		c := body.NamedChild(i)
		spans = append(spans, Span{Start: shift(int(c.StartByte())), End: shift(int(c.EndByte()))})
	}
	return spans
}

func firstLastNamedChildren(node *sitter.Node) (*sitter.Node, *sitter.Node) {
	n := int(node.NamedChildCount())
	if n == 0 {
		return nil, nil
	}
	return node.NamedChild(0), node.NamedChild(n - 1)
}

// declAnnotations collects the annotation and decorator texts attached
// to a declaration: among its children (directly or nested one level
// under a modifier group), its preceding siblings, and a wrapping
// decorated definition.
func (e *Engine) declAnnotations(decl *sitter.Node, src []byte) []string {
	var out []string
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		c := decl.NamedChild(i)
		if e.language.IsAnnotation(c.Type()) {
			out = append(out, c.Content(src))
			continue
		}
		if c.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			if g := c.NamedChild(j); e.language.IsAnnotation(g.Type()) {
				out = append(out, g.Content(src))
			}
		}
	}
	for s := decl.PrevNamedSibling(); s != nil && e.language.IsAnnotation(s.Type()); s = s.PrevNamedSibling() {
		out = append(out, s.Content(src))
	}
	if parent := decl.Parent(); parent != nil {
		for i := 0; i < int(parent.NamedChildCount()); i++ {
			if c := parent.NamedChild(i); e.language.IsAnnotation(c.Type()) {
				out = append(out, c.Content(src))
			}
		}
	}
	return out
}
