package optimize

import (
	"fmt"
	"log/slog"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

// Action is the decided outcome for one matched node.
type Action int

const (
	// ActionNone is the empty decision: the evaluator declines and the
	// chain moves on.
	ActionNone Action = iota
	// ActionKeep retains the node unchanged (budget trimming may still
	// apply as post-processing).
	ActionKeep
	// ActionRemove deletes a comment.
	ActionRemove
	// ActionStrip empties a function body, leaving an omission marker.
	ActionStrip
	// ActionTrim shortens the node to a token limit.
	ActionTrim
	// ActionFirstSentence reduces a doc comment to its first sentence.
	ActionFirstSentence
)

// String returns the action name used in stats records.
func (a Action) String() string {
	switch a {
	case ActionKeep:
		return "keep"
	case ActionRemove:
		return "remove"
	case ActionStrip:
		return "strip"
	case ActionTrim:
		return "trim"
	case ActionFirstSentence:
		return "first_sentence"
	}
	return "none"
}

// Decision pairs an action with its optional token limit and the rule
// that produced it.
type Decision struct {
	Action    Action
	MaxTokens int
	Rule      string
}

// Empty reports an absent decision.
func (d Decision) Empty() bool {
	return d.Action == ActionNone
}

// EvalContext is the node context an evaluator inspects. Fields are
// populated per category: Name, Annotations, and Public for function
// bodies; Text, Doc, and Annotations for comments.
type EvalContext struct {
	Node        *sitter.Node
	Src         []byte
	Name        string
	Text        string
	Annotations []string
	Doc         bool
	Public      bool
}

// Evaluator produces a decision for a node, or declines with the empty
// decision. A terminal evaluator always decides; exactly one sits at the
// end of a chain.
type Evaluator interface {
	Name() string
	Terminal() bool
	Evaluate(ctx EvalContext) Decision
}

// Chain is an ordered evaluator pipeline. The first non-empty decision
// wins; the terminal evaluator guarantees one is always produced.
type Chain struct {
	evaluators []Evaluator
}

// NewChain validates ordering: the last evaluator must be terminal and no
// other may be.
func NewChain(evaluators ...Evaluator) (*Chain, error) {
	if len(evaluators) == 0 {
		return nil, fmt.Errorf("chain requires at least one evaluator")
	}
	for i, ev := range evaluators {
		last := i == len(evaluators)-1
		if ev.Terminal() && !last {
			return nil, fmt.Errorf("terminal evaluator %q must be last in the chain", ev.Name())
		}
		if last && !ev.Terminal() {
			return nil, fmt.Errorf("last evaluator %q is not terminal", ev.Name())
		}
	}
	return &Chain{evaluators: evaluators}, nil
}

// Decide runs the chain and returns the winning decision, tagged with the
// deciding evaluator's name.
func (c *Chain) Decide(ctx EvalContext) Decision {
	for _, ev := range c.evaluators {
		if d := ev.Evaluate(ctx); !d.Empty() {
			if d.Rule == "" {
				d.Rule = ev.Name()
			}
			return d
		}
	}
	return Decision{Action: ActionKeep, Rule: "fallback"}
}

// compilePatterns compiles each pattern, logging and skipping invalid
// ones so a single bad expression does not disable the others.
func compilePatterns(patterns []string, knob string, logger *slog.Logger) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn("skipping invalid pattern", "knob", knob, "pattern", p, "error", err)
			continue
		}
		out = append(out, re)
	}
	return out
}

// exceptPatterns forces keep when a pattern matches the declaration name
// (function bodies) or the comment text (comments).
type exceptPatterns struct {
	patterns []*regexp.Regexp
}

func (e *exceptPatterns) Name() string   { return "except_pattern" }
func (e *exceptPatterns) Terminal() bool { return false }

func (e *exceptPatterns) Evaluate(ctx EvalContext) Decision {
	probe := ctx.Name
	if probe == "" {
		probe = ctx.Text
	}
	if probe == "" {
		return Decision{}
	}
	for _, re := range e.patterns {
		if re.MatchString(probe) {
			return Decision{Action: ActionKeep}
		}
	}
	return Decision{}
}

// stripPatterns forces removal when a pattern matches the comment text.
type stripPatterns struct {
	patterns []*regexp.Regexp
}

func (e *stripPatterns) Name() string   { return "strip_pattern" }
func (e *stripPatterns) Terminal() bool { return false }

func (e *stripPatterns) Evaluate(ctx EvalContext) Decision {
	for _, re := range e.patterns {
		if re.MatchString(ctx.Text) {
			return Decision{Action: ActionRemove}
		}
	}
	return Decision{}
}

// keepAnnotated forces keep when any attached annotation or decorator
// matches a pattern.
type keepAnnotated struct {
	patterns []*regexp.Regexp
}

func (e *keepAnnotated) Name() string   { return "keep_annotated" }
func (e *keepAnnotated) Terminal() bool { return false }

func (e *keepAnnotated) Evaluate(ctx EvalContext) Decision {
	for _, re := range e.patterns {
		for _, ann := range ctx.Annotations {
			if re.MatchString(ann) {
				return Decision{Action: ActionKeep}
			}
		}
	}
	return Decision{}
}

// docKeep retains documentation comments, either verbatim or reduced to
// their first sentence. Installed only under the keep_doc and
// keep_first_sentence policies.
type docKeep struct {
	firstSentence bool
}

func (e *docKeep) Name() string   { return "doc_comment" }
func (e *docKeep) Terminal() bool { return false }

func (e *docKeep) Evaluate(ctx EvalContext) Decision {
	if !ctx.Doc {
		return Decision{}
	}
	if e.firstSentence {
		return Decision{Action: ActionFirstSentence}
	}
	return Decision{Action: ActionKeep}
}

// basePolicy is the terminal fallback applying the configured policy.
type basePolicy struct {
	category Category
	policy   string
}

func (e *basePolicy) Name() string   { return "policy:" + e.policy }
func (e *basePolicy) Terminal() bool { return true }

func (e *basePolicy) Evaluate(ctx EvalContext) Decision {
	switch e.policy {
	case PolicyStripAll:
		if e.category == CategoryComments {
			return Decision{Action: ActionRemove}
		}
		return Decision{Action: ActionStrip}
	case PolicyKeepPublic:
		if ctx.Public {
			return Decision{Action: ActionKeep}
		}
		return Decision{Action: ActionStrip}
	case PolicyKeepDoc, PolicyKeepFirstSentence:
		// Doc comments were claimed by the doc evaluator; everything
		// reaching the fallback is not documentation.
		return Decision{Action: ActionRemove}
	default:
		return Decision{Action: ActionKeep}
	}
}

// newBodyChain builds the function-body pipeline: except patterns, then
// preservation annotations, then the base policy. The first two are
// commutative; both strictly precede the terminal policy.
func newBodyChain(cfg CategoryConfig, logger *slog.Logger) (*Chain, error) {
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyKeepAll
	}
	return NewChain(
		&exceptPatterns{patterns: compilePatterns(cfg.ExceptPatterns, "function_bodies.except_patterns", logger)},
		&keepAnnotated{patterns: compilePatterns(cfg.KeepAnnotated, "function_bodies.keep_annotated", logger)},
		&basePolicy{category: CategoryFunctionBodies, policy: policy},
	)
}

// newCommentChain builds the comment pipeline: keep patterns, strip
// patterns, annotation preservation, doc detection (policy-dependent),
// base policy.
func newCommentChain(cfg CategoryConfig, logger *slog.Logger) (*Chain, error) {
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyKeepAll
	}
	evaluators := []Evaluator{
		&exceptPatterns{patterns: compilePatterns(cfg.ExceptPatterns, "comments.except_patterns", logger)},
		&stripPatterns{patterns: compilePatterns(cfg.StripPatterns, "comments.strip_patterns", logger)},
		&keepAnnotated{patterns: compilePatterns(cfg.KeepAnnotated, "comments.keep_annotated", logger)},
	}
	switch policy {
	case PolicyKeepDoc:
		evaluators = append(evaluators, &docKeep{})
	case PolicyKeepFirstSentence:
		evaluators = append(evaluators, &docKeep{firstSentence: true})
	}
	evaluators = append(evaluators, &basePolicy{category: CategoryComments, policy: policy})
	return NewChain(evaluators...)
}
