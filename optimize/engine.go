package optimize

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/tokens"
)

// maxNestingDepth bounds recursive value shrinking so adversarial nesting
// cannot exhaust the stack. Tree walking itself is iterative.
const maxNestingDepth = 64

// Engine rewrites one language's source according to one configuration.
// Engines are immutable after construction and safe for concurrent use
// across files.
type Engine struct {
	language *lang.Language
	cfg      Config
	counter  tokens.Counter
	logger   *slog.Logger

	selector     Selector
	trimmer      *Trimmer
	bodyChain    *Chain
	commentChain *Chain
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-pattern configuration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New validates the configuration and builds the evaluator chains.
// Invalid regular expressions in the pattern knobs are logged and skipped
// rather than failing construction.
func New(language *lang.Language, cfg Config, counter tokens.Counter, opts ...Option) (*Engine, error) {
	if language == nil {
		return nil, fmt.Errorf("language is required")
	}
	if counter == nil {
		return nil, fmt.Errorf("token counter is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	e := &Engine{
		language: language,
		cfg:      cfg,
		counter:  counter,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("language", language.Name)

	e.selector = NewSelector(counter)
	e.trimmer = NewTrimmer(counter, language.Comment, language.Quote())

	var err error
	if e.bodyChain, err = newBodyChain(cfg.FunctionBodies, e.logger); err != nil {
		return nil, fmt.Errorf("building function body chain: %w", err)
	}
	if e.commentChain, err = newCommentChain(cfg.Comments, e.logger); err != nil {
		return nil, fmt.Errorf("building comment chain: %w", err)
	}
	return e, nil
}

// Optimize runs one category pass over a parsed tree and returns the
// rewritten source. src must be the exact bytes the tree was parsed from.
func (e *Engine) Optimize(root *sitter.Node, src []byte, category Category) (Result, error) {
	if root == nil {
		return Result{}, fmt.Errorf("syntax tree root is required")
	}
	switch category {
	case CategoryLiterals:
		return e.optimizeLiterals(root, src), nil
	case CategoryComments:
		return e.optimizeComments(root, src), nil
	case CategoryFunctionBodies:
		return e.optimizeBodies(root, src), nil
	}
	return Result{}, fmt.Errorf("unknown category %q", category)
}

// walk visits named nodes in pre-order using an explicit stack. The
// visitor returns false to prune a subtree.
func walk(root *sitter.Node, visit func(*sitter.Node) bool) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			continue
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}

// nodePath renders the kind path from the root to the node.
func nodePath(node *sitter.Node) string {
	var kinds []string
	for n := node; n != nil; n = n.Parent() {
		kinds = append(kinds, n.Type())
	}
	for i, j := 0, len(kinds)-1; i < j; i, j = i+1, j-1 {
		kinds[i], kinds[j] = kinds[j], kinds[i]
	}
	return strings.Join(kinds, "/")
}

// stat builds the per-node record for the report.
func (e *Engine) stat(node *sitter.Node, before, after int, decision, rule string) NodeStat {
	return NodeStat{
		Path:     nodePath(node),
		Kind:     node.Type(),
		Line:     node.StartPoint().Row + 1,
		Before:   before,
		After:    after,
		Decision: decision,
		Rule:     rule,
	}
}

// edit is one pending splice against the original source.
type edit struct {
	start, end int
	text       string
}

// recordEdit adds an edit, dropping earlier edits its span fully
// contains: a parent rewrite supersedes the child rewrites it was
// materialized from.
func recordEdit(edits *[]edit, ed edit) {
	kept := (*edits)[:0]
	for _, ex := range *edits {
		if ex.start >= ed.start && ex.end <= ed.end {
			continue
		}
		kept = append(kept, ex)
	}
	*edits = append(kept, ed)
}

// applyEdits splices edits into src in a single pass ordered by
// descending start offset, so earlier splices never invalidate later
// offsets. Edits must not overlap.
func applyEdits(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return src
	}
	sorted := append([]edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start > sorted[j].start })

	out := append([]byte(nil), src...)
	for _, ed := range sorted {
		rest := append([]byte(ed.text), out[ed.end:]...)
		out = append(out[:ed.start], rest...)
	}
	return out
}

// materializeNode renders src[start:end) with the already-recorded edits
// inside that span applied, returning the text plus a mapper from
// absolute original offsets to offsets in the returned text. Offsets
// inside an edited span must not be mapped; node boundaries never are,
// because edits always cover whole descendant nodes.
func materializeNode(src []byte, start, end int, edits []edit) (string, func(int) int) {
	var inside []edit
	for _, ed := range edits {
		if ed.start >= start && ed.end <= end {
			inside = append(inside, ed)
		}
	}
	if len(inside) == 0 {
		return string(src[start:end]), func(abs int) int { return abs - start }
	}
	sort.Slice(inside, func(i, j int) bool { return inside[i].start < inside[j].start })

	type mark struct{ orig, mat int }
	marks := []mark{{orig: start, mat: 0}}
	var sb strings.Builder
	cur := start
	for _, ed := range inside {
		sb.Write(src[cur:ed.start])
		sb.WriteString(ed.text)
		marks = append(marks, mark{orig: ed.end, mat: sb.Len()})
		cur = ed.end
	}
	sb.Write(src[cur:end])

	mapper := func(abs int) int {
		last := marks[0]
		for _, m := range marks[1:] {
			if m.orig > abs {
				break
			}
			last = m
		}
		return last.mat + (abs - last.orig)
	}
	return sb.String(), mapper
}

// lineIndent returns the leading whitespace of the line containing off.
func lineIndent(src []byte, off int) string {
	ls := off
	for ls > 0 && src[ls-1] != '\n' {
		ls--
	}
	i := ls
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return string(src[ls:i])
}

// atLineStart reports whether only whitespace precedes off on its line.
func atLineStart(src []byte, off int) bool {
	for i := off - 1; i >= 0; i-- {
		switch src[i] {
		case '\n':
			return true
		case ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// restOfLineBlank reports whether only whitespace follows off on its
// line.
func restOfLineBlank(src []byte, off int) bool {
	for i := off; i < len(src); i++ {
		switch src[i] {
		case '\n':
			return true
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}
