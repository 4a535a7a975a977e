// Package optimize rewrites parsed source so literals, comments, and
// function bodies fit token budgets while the output stays syntactically
// valid. The engine walks a tree-sitter tree once per category, matches
// nodes against the language's literal profiles or decision chains, and
// splices shortened text back into the buffer with omission markers
// carrying the counts of what was dropped.
//
// The engine is stateless across files: one Engine serves one language and
// one configuration, and Optimize may be called concurrently for different
// files. All budget accounting goes through the injected token counter.
package optimize

import (
	"fmt"
	"slices"
)

// Category selects which node family a pass rewrites.
type Category string

const (
	// CategoryFunctionBodies strips or trims declaration bodies.
	CategoryFunctionBodies Category = "function_bodies"
	// CategoryComments keeps, removes, or shortens comments.
	CategoryComments Category = "comments"
	// CategoryLiterals shrinks string and collection literals.
	CategoryLiterals Category = "literals"
)

// Categories returns every category in canonical application order:
// bodies first (largest savings, removes nodes the later passes would
// otherwise visit), then comments, then literals.
func Categories() []Category {
	return []Category{CategoryFunctionBodies, CategoryComments, CategoryLiterals}
}

// Function-body policies.
const (
	PolicyKeepAll    = "keep_all"
	PolicyStripAll   = "strip_all"
	PolicyKeepPublic = "keep_public"
)

// Comment policies. keep_all and strip_all are shared with bodies.
const (
	PolicyKeepDoc           = "keep_doc"
	PolicyKeepFirstSentence = "keep_first_sentence"
)

var (
	bodyPolicies    = []string{PolicyKeepAll, PolicyStripAll, PolicyKeepPublic}
	commentPolicies = []string{PolicyKeepAll, PolicyStripAll, PolicyKeepDoc, PolicyKeepFirstSentence}
)

// CategoryConfig carries the per-category knobs. The zero value keeps
// everything: policy defaults to keep_all and a zero MaxTokens means no
// budget is applied.
type CategoryConfig struct {
	// Policy is the base decision applied when no evaluator overrides.
	Policy string `yaml:"policy,omitempty" json:"policy,omitempty"`
	// MaxTokens is the per-node budget. Zero disables budgeting for the
	// category.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	// MinElements overrides the profile's retained-elements floor for
	// collections. Zero keeps the profile value.
	MinElements int `yaml:"min_elements,omitempty" json:"min_elements,omitempty"`
	// ExceptPatterns are regular expressions that force keep: matched
	// against declaration names for bodies and against comment text for
	// comments.
	ExceptPatterns []string `yaml:"except_patterns,omitempty" json:"except_patterns,omitempty"`
	// KeepAnnotated are regular expressions matched against annotation
	// and decorator source text; a match forces keep.
	KeepAnnotated []string `yaml:"keep_annotated,omitempty" json:"keep_annotated,omitempty"`
	// StripPatterns are regular expressions matched against comment text;
	// a match forces removal. Comments only.
	StripPatterns []string `yaml:"strip_patterns,omitempty" json:"strip_patterns,omitempty"`
}

// Config holds all three category configurations for one language.
type Config struct {
	Literals       CategoryConfig `yaml:"literals,omitempty" json:"literals,omitempty"`
	Comments       CategoryConfig `yaml:"comments,omitempty" json:"comments,omitempty"`
	FunctionBodies CategoryConfig `yaml:"function_bodies,omitempty" json:"function_bodies,omitempty"`
}

// Validate checks policy names. Pattern compilation is not validated
// here: invalid patterns are logged and skipped at engine construction,
// per-pattern, so one bad expression does not reject the whole config.
func (c Config) Validate() error {
	if c.FunctionBodies.Policy != "" && !slices.Contains(bodyPolicies, c.FunctionBodies.Policy) {
		return fmt.Errorf("function_bodies: unknown policy %q", c.FunctionBodies.Policy)
	}
	if c.Comments.Policy != "" && !slices.Contains(commentPolicies, c.Comments.Policy) {
		return fmt.Errorf("comments: unknown policy %q", c.Comments.Policy)
	}
	if c.Literals.Policy != "" && c.Literals.Policy != PolicyKeepAll {
		return fmt.Errorf("literals: unknown policy %q", c.Literals.Policy)
	}
	for _, cc := range []struct {
		name string
		cfg  CategoryConfig
	}{
		{"literals", c.Literals},
		{"comments", c.Comments},
		{"function_bodies", c.FunctionBodies},
	} {
		if cc.cfg.MaxTokens < 0 {
			return fmt.Errorf("%s: max_tokens must not be negative", cc.name)
		}
		if cc.cfg.MinElements < 0 {
			return fmt.Errorf("%s: min_elements must not be negative", cc.name)
		}
	}
	return nil
}

// Category returns the configuration for one category.
func (c Config) Category(cat Category) CategoryConfig {
	switch cat {
	case CategoryLiterals:
		return c.Literals
	case CategoryComments:
		return c.Comments
	case CategoryFunctionBodies:
		return c.FunctionBodies
	}
	return CategoryConfig{}
}

// NodeStat records what one pass did to one node, for the aggregate
// report.
type NodeStat struct {
	// Path is the node's kind path from the root, slash-separated.
	Path string `json:"path"`
	// Kind is the node kind.
	Kind string `json:"kind"`
	// Line is the 1-based source line of the node start.
	Line uint32 `json:"line"`
	// Before and After are token counts of the node text.
	Before int `json:"before"`
	After  int `json:"after"`
	// Decision names the action taken: shrink, keep, remove, strip,
	// trim, first_sentence, fits, or skip.
	Decision string `json:"decision"`
	// Rule names the evaluator or fallback that produced the decision.
	Rule string `json:"rule,omitempty"`
}

// Saved returns the tokens removed from this node.
func (s NodeStat) Saved() int {
	return s.Before - s.After
}

// Result is the outcome of one category pass over one file.
type Result struct {
	// Text is the rewritten source.
	Text []byte
	// Changed reports whether any edit was applied.
	Changed bool
	// Stats holds one record per matched node.
	Stats []NodeStat
}
