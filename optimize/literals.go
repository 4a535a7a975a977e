package optimize

import (
	"regexp"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

// genericSuffixRe strips a trailing type-argument list from a factory
// callee, so listOf<Int>(...) matches the listOf wrapper pattern.
var genericSuffixRe = regexp.MustCompile(`<[^<>]*>$`)

// markerPlacement selects where a collection omission marker is
// rendered.
type markerPlacement int

const (
	// placeLine puts the marker on its own comment line before the
	// closing delimiter.
	placeLine markerPlacement = iota
	// placeInline puts the marker in a block comment before the closing
	// delimiter.
	placeInline
	// placeAfter appends the marker after the literal at the end of the
	// line.
	placeAfter
)

// optimizeLiterals shrinks every literal matched by the language's
// profiles to the configured token budget. Nodes are processed deepest
// first so a parent collection sees its children already shrunk, and all
// rewrites are applied in one splice at the end.
func (e *Engine) optimizeLiterals(root *sitter.Node, src []byte) Result {
	budget := e.cfg.Literals.MaxTokens
	if budget <= 0 {
		return Result{Text: src}
	}

	var matches []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		candidates := e.language.Profiles.Candidates(n.Type())
		if len(candidates) == 0 {
			return true
		}
		// String interiors are cut by the string trimmer; their child
		// nodes (interpolations) are not independent literals.
		// Docstrings belong to the comments category.
		if candidates[0].Shape() == profile.ShapeString {
			if !e.isDocstring(n) {
				matches = append(matches, n)
			}
			return false
		}
		matches = append(matches, n)
		return true
	})

	var edits []edit
	var stats []NodeStat
	for i := len(matches) - 1; i >= 0; i-- {
		e.shrinkLiteral(matches[i], src, budget, &edits, &stats)
	}
	return Result{Text: applyEdits(src, edits), Changed: len(edits) > 0, Stats: stats}
}

// shrinkLiteral processes one matched literal node. Nodes within budget
// are left alone and produce no record; over-budget nodes record the
// outcome even when nothing could be rewritten.
func (e *Engine) shrinkLiteral(node *sitter.Node, src []byte, budget int, edits *[]edit, stats *[]NodeStat) {
	start, end := int(node.StartByte()), int(node.EndByte())
	current, shift := materializeNode(src, start, end, *edits)

	p, ok := e.matchLiteralProfile(node, current)
	if !ok {
		return
	}
	before := e.counter.Count(current)
	if before <= budget {
		return
	}

	switch p.Shape() {
	case profile.ShapeString:
		e.shrinkString(node, src, current, p, budget, before, edits, stats)
	case profile.ShapeSequence, profile.ShapeMapping, profile.ShapeFactory:
		e.shrinkCollection(node, src, current, p, budget, before, edits, stats)
	case profile.ShapeBlockInit:
		e.shrinkBlockInit(node, current, shift, p, budget, before, edits, stats)
	}
}

// matchLiteralProfile returns the first candidate profile accepting the
// node. A factory profile declines when the callee does not match its
// wrapper pattern, letting a lower-priority profile claim the node.
func (e *Engine) matchLiteralProfile(node *sitter.Node, current string) (profile.Profile, bool) {
	for _, p := range e.language.Profiles.Candidates(node.Type()) {
		if literalProfileAccepts(p, node, current) {
			return p, true
		}
	}
	return profile.Profile{}, false
}

func literalProfileAccepts(p profile.Profile, node *sitter.Node, current string) bool {
	switch p.Shape() {
	case profile.ShapeString:
		open, _ := p.Delimiters(current)
		return open != ""
	case profile.ShapeSequence, profile.ShapeMapping:
		openIdx := strings.Index(current, p.Open())
		return openIdx >= 0 && strings.LastIndex(current, p.Close()) > openIdx
	case profile.ShapeFactory:
		openIdx := strings.Index(current, p.Open())
		if openIdx <= 0 || strings.LastIndex(current, p.Close()) <= openIdx {
			return false
		}
		callee := strings.TrimSuffix(strings.TrimSpace(current[:openIdx]), "!")
		callee = genericSuffixRe.ReplaceAllString(callee, "")
		return p.Wrapper().MatchString(callee)
	case profile.ShapeBlockInit:
		return blockInitBlock(node, p) != nil
	}
	return false
}

// blockInitBlock walks the profile's kind path from the node down to its
// statement block, or nil when the path does not resolve.
func blockInitBlock(node *sitter.Node, p profile.Profile) *sitter.Node {
	cur := node
	for _, kind := range p.BlockPath() {
		var next *sitter.Node
		for i := 0; i < int(cur.NamedChildCount()); i++ {
			if c := cur.NamedChild(i); c.Type() == kind {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// shrinkString truncates a string literal, appending a savings comment
// when the line has room for one.
func (e *Engine) shrinkString(node *sitter.Node, src []byte, current string, p profile.Profile, budget, before int, edits *[]edit, stats *[]NodeStat) {
	open, close := p.Delimiters(current)
	if close == "" {
		close = e.language.Quote()
	}
	var regions []Region
	if p.MarkersApply(current) && len(current) >= len(open)+len(close) {
		regions = Regions(current[len(open):len(current)-len(close)], p.Markers())
	}

	trimmed, saved, changed := e.trimmer.TruncateString(current, open, close, regions, budget)
	if !changed {
		*stats = append(*stats, e.stat(node, before, before, "skip", "string"))
		return
	}

	trimmed += e.literalSuffix(src, int(node.EndByte()), saved)
	after := e.counter.Count(trimmed)
	if after >= before {
		// The savings comment would cost more than the cut recovers.
		*stats = append(*stats, e.stat(node, before, before, "skip", "string"))
		return
	}
	recordEdit(edits, edit{start: int(node.StartByte()), end: int(node.EndByte()), text: trimmed})
	*stats = append(*stats, e.stat(node, before, after, "shrink", "string"))
}

// literalSuffix renders the savings comment trailing a truncated string:
// a line comment when nothing else follows on the line, an inline block
// comment otherwise, or nothing when the language cannot place one
// there.
func (e *Engine) literalSuffix(src []byte, end, saved int) string {
	if restOfLineBlank(src, end) {
		return "  " + e.trimmer.LineComment(markerLiteral(saved))
	}
	if inline := e.trimmer.InlineComment(markerLiteral(saved)); inline != "" {
		return " " + inline
	}
	return ""
}

// shrinkCollection drops trailing elements of a sequence, mapping, or
// factory literal until the node fits its budget.
func (e *Engine) shrinkCollection(node *sitter.Node, src []byte, current string, p profile.Profile, budget, before int, edits *[]edit, stats *[]NodeStat) {
	openIdx := strings.Index(current, p.Open())
	closeIdx := strings.LastIndex(current, p.Close())
	head := current[:openIdx+len(p.Open())]
	interior := current[openIdx+len(p.Open()) : closeIdx]
	tail := current[closeIdx:]

	elements, balanced := SplitElements(interior, SplitSpec{
		Separator:   p.Separator(),
		KeyValueSep: p.KeyValueSep(),
		Wrapper:     p.Wrapper(),
		Comment:     e.language.Comment,
	})
	if !balanced {
		// Nesting never balanced: treat the whole literal as opaque
		// rather than risk an invalid rewrite.
		*stats = append(*stats, e.stat(node, before, before, "opaque", p.Shape().String()))
		return
	}
	if len(elements) == 0 {
		return
	}
	if markedAtTopLevel(interior, e.language.Comment) {
		*stats = append(*stats, e.stat(node, before, before, "skip", p.Shape().String()))
		return
	}

	if p.PreserveKeys() {
		e.shrinkPreserveKeys(node, current, head, interior, tail, elements, p, budget, before, edits, stats)
		return
	}

	endBlank := restOfLineBlank(src, int(node.EndByte()))
	replacement, _, ok := e.shrinkParts(head, interior, tail, elements, p, e.minElements(p), budget, endBlank)
	if !ok {
		*stats = append(*stats, e.stat(node, before, before, "skip", p.Shape().String()))
		return
	}
	after := e.counter.Count(replacement)
	if after >= before {
		*stats = append(*stats, e.stat(node, before, before, "skip", p.Shape().String()))
		return
	}
	recordEdit(edits, edit{start: int(node.StartByte()), end: int(node.EndByte()), text: replacement})
	*stats = append(*stats, e.stat(node, before, after, "shrink", p.Shape().String()))
}

// minElements resolves the retained-element floor: the category config
// overrides the profile default when set.
func (e *Engine) minElements(p profile.Profile) int {
	if e.cfg.Literals.MinElements > 0 {
		return e.cfg.Literals.MinElements
	}
	return p.MinElements()
}

// shrinkParts selects the element prefix that fits the budget and
// renders the rewritten literal. Multi-line literals get a marker
// comment line before the close; single-line literals get an inline
// block comment, or an end-of-line comment when endBlank allows it.
// Returns ok=false when everything fits or no marker can be placed.
func (e *Engine) shrinkParts(head, interior, tail string, elements []Element, p profile.Profile, minEl, budget int, endBlank bool) (string, Selection, bool) {
	sep := p.Separator()
	multiline := strings.Contains(interior, "\n")

	var placement markerPlacement
	switch {
	case multiline:
		placement = placeLine
	case p.Placeholder() == profile.PositionEndOfDecl && endBlank:
		placement = placeAfter
	case e.trimmer.InlineComment("x") != "":
		placement = placeInline
	case endBlank:
		placement = placeAfter
	default:
		return "", Selection{}, false
	}

	closeIndent := lineIndentStr(head+interior, len(head)+len(interior))
	elemIndent := elementIndent(interior, elements, closeIndent+"\t")

	var marker func(omitted, saved int) string
	switch placement {
	case placeLine:
		marker = func(o, s int) string { return elemIndent + e.trimmer.LineComment(markerMore(o, s)) }
	case placeInline:
		marker = func(o, s int) string { return e.trimmer.InlineComment(markerMore(o, s)) }
	case placeAfter:
		marker = func(o, s int) string { return e.trimmer.LineComment(markerMore(o, s)) }
	}

	selSep := sep
	if multiline {
		selSep = sep + "\n" + elemIndent
	}
	budgetSel := budget - e.counter.Count(head) - e.counter.Count(tail)
	sel := e.selector.Prefix(elements, selSep, budgetSel, minEl, marker)
	if sel.Fits {
		return "", sel, false
	}

	var sb strings.Builder
	sb.WriteString(head)
	if multiline {
		trailingSep := hasTrailingSeparator(interior, elements, sep)
		for i := 0; i < sel.Kept; i++ {
			sb.WriteString("\n")
			sb.WriteString(elemIndent)
			sb.WriteString(elements[i].Text)
			if i < sel.Kept-1 || trailingSep {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
		sb.WriteString(marker(sel.Omitted, sel.Saved))
		sb.WriteString("\n")
		sb.WriteString(closeIndent)
		sb.WriteString(tail)
		return sb.String(), sel, true
	}

	joiner := sep
	if strings.TrimSpace(sep) != "" {
		joiner = sep + " "
	}
	for i := 0; i < sel.Kept; i++ {
		if i > 0 {
			sb.WriteString(joiner)
		}
		sb.WriteString(elements[i].Text)
	}
	switch placement {
	case placeInline:
		sb.WriteString(" ")
		sb.WriteString(marker(sel.Omitted, sel.Saved))
		sb.WriteString(tail)
	case placeAfter:
		sb.WriteString(tail)
		sb.WriteString("  ")
		sb.WriteString(marker(sel.Omitted, sel.Saved))
	}
	return sb.String(), sel, true
}

// shrinkPreserveKeys keeps every top-level entry of a mapping and
// shrinks only nested collection values, splitting the budget evenly
// across them. Keys, separators, and layout stay byte-identical.
func (e *Engine) shrinkPreserveKeys(node *sitter.Node, current, head, interior, tail string, elements []Element, p profile.Profile, budget, before int, edits *[]edit, stats *[]NodeStat) {
	var nested []int
	for i, el := range elements {
		if el.Nested {
			nested = append(nested, i)
		}
	}
	if len(nested) == 0 {
		*stats = append(*stats, e.stat(node, before, before, "skip", "preserve_keys"))
		return
	}
	childBudget := budget / len(nested)
	if childBudget < 1 {
		childBudget = 1
	}

	var inner []edit
	for _, idx := range nested {
		el := elements[idx]
		raw := interior[el.Start:el.End]
		vOff := strings.LastIndex(raw, el.Value)
		if vOff < 0 {
			continue
		}
		shrunk, changed := e.shrinkValueText(el.Value, p, childBudget, 1)
		if !changed {
			continue
		}
		inner = append(inner, edit{
			start: el.Start + vOff,
			end:   el.Start + vOff + len(el.Value),
			text:  shrunk,
		})
	}
	if len(inner) == 0 {
		*stats = append(*stats, e.stat(node, before, before, "skip", "preserve_keys"))
		return
	}

	replacement := head + string(applyEdits([]byte(interior), inner)) + tail
	after := e.counter.Count(replacement)
	if after >= before {
		*stats = append(*stats, e.stat(node, before, before, "skip", "preserve_keys"))
		return
	}
	recordEdit(edits, edit{start: int(node.StartByte()), end: int(node.EndByte()), text: replacement})
	*stats = append(*stats, e.stat(node, before, after, "shrink", "preserve_keys"))
}

// shrinkValueText shrinks a nested collection value given only its text,
// pairing the outermost brackets instead of consulting the syntax tree.
// Used below preserve-keys mappings, where values are element substrings
// rather than standalone nodes.
func (e *Engine) shrinkValueText(value string, parent profile.Profile, budget, depth int) (string, bool) {
	if depth > maxNestingDepth {
		return value, false
	}
	if e.counter.Count(value) <= budget {
		return value, false
	}

	openIdx := strings.IndexAny(value, "([{")
	if openIdx < 0 {
		return value, false
	}
	closer := closerFor[value[openIdx]]
	closeIdx := strings.LastIndexByte(value, closer)
	if closeIdx <= openIdx {
		return value, false
	}
	head := value[:openIdx+1]
	interior := value[openIdx+1 : closeIdx]
	tail := value[closeIdx:]

	elements, balanced := SplitElements(interior, SplitSpec{
		KeyValueSep: parent.KeyValueSep(),
		Wrapper:     parent.Wrapper(),
		Comment:     e.language.Comment,
	})
	if !balanced || len(elements) == 0 {
		return value, false
	}
	if markedAtTopLevel(interior, e.language.Comment) {
		return value, false
	}

	replacement, _, ok := e.shrinkParts(head, interior, tail, elements, parent, 1, budget, false)
	if !ok || e.counter.Count(replacement) >= e.counter.Count(value) {
		return value, false
	}
	return replacement, true
}

// shrinkBlockInit drops trailing statements of an imperative initializer
// block, leaving an omission marker in their place.
func (e *Engine) shrinkBlockInit(node *sitter.Node, current string, shift func(int) int, p profile.Profile, budget, before int, edits *[]edit, stats *[]NodeStat) {
	block := blockInitBlock(node, p)
	bs, be := shift(int(block.StartByte())), shift(int(block.EndByte()))
	if be-bs < 2 {
		return
	}
	if markedAtTopLevel(current[bs+1:be-1], e.language.Comment) {
		*stats = append(*stats, e.stat(node, before, before, "skip", "block_init"))
		return
	}

	var spans []Span
	for i := 0; i < int(block.NamedChildCount()); i++ {
		c := block.NamedChild(i)
		if slices.Contains(p.StatementKinds(), c.Type()) {
			spans = append(spans, Span{Start: shift(int(c.StartByte())), End: shift(int(c.EndByte()))})
		}
	}
	if len(spans) == 0 {
		return
	}

	elements := make([]Element, len(spans))
	for i, s := range spans {
		elements[i] = Element{Text: current[s.Start:s.End]}
	}
	tailText := current[spans[len(spans)-1].End:]

	// A line-comment marker needs the closing braces on their own line,
	// or it would comment them out.
	onOwnLine := strings.HasPrefix(strings.TrimLeft(tailText, " \t"), "\n")
	indent := lineIndentStr(current, spans[0].Start)
	var marker func(omitted, saved int) string
	if onOwnLine {
		marker = func(o, s int) string { return indent + e.trimmer.LineComment(markerMore(o, s)) }
	} else {
		if e.trimmer.InlineComment("x") == "" {
			*stats = append(*stats, e.stat(node, before, before, "skip", "block_init"))
			return
		}
		marker = func(o, s int) string { return e.trimmer.InlineComment(markerMore(o, s)) }
	}
	headCost := e.counter.Count(current[:spans[0].Start])
	tailCost := e.counter.Count(tailText)
	sel := e.selector.Prefix(elements, "\n", budget-headCost-tailCost, e.minElements(p), marker)
	if sel.Fits {
		*stats = append(*stats, e.stat(node, before, before, "skip", "block_init"))
		return
	}

	var sb strings.Builder
	sb.WriteString(current[:spans[sel.Kept-1].End])
	if onOwnLine {
		sb.WriteString("\n")
	} else {
		sb.WriteString(" ")
	}
	sb.WriteString(marker(sel.Omitted, sel.Saved))
	sb.WriteString(tailText)
	replacement := sb.String()

	after := e.counter.Count(replacement)
	if after >= before {
		*stats = append(*stats, e.stat(node, before, before, "skip", "block_init"))
		return
	}
	recordEdit(edits, edit{start: int(node.StartByte()), end: int(node.EndByte()), text: replacement})
	*stats = append(*stats, e.stat(node, before, after, "shrink", "block_init"))
}

// markedAtTopLevel reports whether a comment at bracket depth zero of the
// interior already carries an omission marker, meaning the collection
// itself (not a nested literal inside one of its elements) was shrunk by
// an earlier run.
func markedAtTopLevel(interior string, comment lang.CommentStyle) bool {
	var stack []byte
	inQuote := byte(0)
	for i := 0; i < len(interior); {
		c := interior[i]
		if inQuote != 0 {
			switch {
			case c == '\\' && i+1 < len(interior):
				i += 2
			case c == inQuote:
				inQuote = 0
				i++
			default:
				i++
			}
			continue
		}
		if comment.Line != "" && strings.HasPrefix(interior[i:], comment.Line) {
			end := strings.IndexByte(interior[i:], '\n')
			if end < 0 {
				end = len(interior) - i
			}
			if len(stack) == 0 && alreadyMarked(interior[i:i+end]) {
				return true
			}
			i += end
			continue
		}
		if comment.HasBlock() && strings.HasPrefix(interior[i:], comment.BlockOpen) {
			end := strings.Index(interior[i+len(comment.BlockOpen):], comment.BlockClose)
			if end < 0 {
				return false
			}
			stop := i + len(comment.BlockOpen) + end + len(comment.BlockClose)
			if len(stack) == 0 && alreadyMarked(interior[i:stop]) {
				return true
			}
			i = stop
			continue
		}
		switch c {
		case '"', '\'', '`':
			inQuote = c
			i++
		case '(', '[', '{':
			stack = append(stack, closerFor[c])
			i++
		case ')', ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			i++
		default:
			i++
		}
	}
	return false
}

// lineIndentStr returns the leading whitespace of the line containing
// off within s.
func lineIndentStr(s string, off int) string {
	ls := off
	for ls > 0 && s[ls-1] != '\n' {
		ls--
	}
	i := ls
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[ls:i]
}

// elementIndent returns the indentation of the first element that starts
// a line, or the fallback when every element shares a line with the open
// delimiter. Element spans begin right after the preceding separator, so
// the text start is located before walking back to the newline.
func elementIndent(interior string, elements []Element, fallback string) string {
	for _, el := range elements {
		ts := el.Start
		for ts < el.End && (interior[ts] == ' ' || interior[ts] == '\t' || interior[ts] == '\n' || interior[ts] == '\r') {
			ts++
		}
		ls := ts
		for ls > 0 && (interior[ls-1] == ' ' || interior[ls-1] == '\t') {
			ls--
		}
		if ls > 0 && interior[ls-1] == '\n' {
			return interior[ls:ts]
		}
	}
	return fallback
}

// hasTrailingSeparator reports whether the last element is followed by a
// separator, as in Go composite literals where the trailing comma is
// mandatory before a newline close.
func hasTrailingSeparator(interior string, elements []Element, sep string) bool {
	trimmedSep := strings.TrimSpace(sep)
	if trimmedSep == "" {
		return false
	}
	rest := strings.TrimSpace(interior[elements[len(elements)-1].End:])
	return strings.HasPrefix(rest, trimmedSep)
}
