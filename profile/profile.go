// Package profile defines the declarative literal-shape model used by the
// optimizer. A Profile describes one literal shape (string, sequence,
// mapping, factory call, or imperative init block) for one language as pure
// data plus small delimiter-detection functions; a Descriptor is the
// priority-ordered set of profiles registered for a language.
//
// Profiles are constructed once at startup, validated at construction, and
// shared read-only across every file processed in a run.
package profile

import (
	"fmt"
	"regexp"
)

// Shape tags the literal shape a Profile recognizes.
type Shape int

const (
	// ShapeString is a string literal with language-specific delimiters.
	ShapeString Shape = iota
	// ShapeSequence is an ordered collection literal ([1, 2, 3]).
	ShapeSequence
	// ShapeMapping is a key/value collection literal ({"a": 1}).
	ShapeMapping
	// ShapeFactory is a collection wrapped in a call-like syntax (List.of(...)).
	ShapeFactory
	// ShapeBlockInit is an imperative initializer block of repeated statements.
	ShapeBlockInit
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeSequence:
		return "sequence"
	case ShapeMapping:
		return "mapping"
	case ShapeFactory:
		return "factory"
	case ShapeBlockInit:
		return "block_init"
	}
	return "unknown"
}

// Position selects where the omission placeholder is rendered for a
// shrunk node.
type Position int

const (
	// PositionAuto lets the optimizer pick an in-literal placement
	// (inline comment for single-line literals, a comment line for
	// multi-line literals).
	PositionAuto Position = iota
	// PositionInline embeds the placeholder inside string content.
	// Only valid on string profiles.
	PositionInline
	// PositionEndOfDecl appends the placeholder after the literal at the
	// end of the line, when the rest of the line is blank. Used by
	// languages whose only comment syntax runs to end of line.
	PositionEndOfDecl
	// PositionBodyComment renders the placeholder as a comment line
	// inside a statement block.
	PositionBodyComment
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case PositionAuto:
		return "auto"
	case PositionInline:
		return "inline"
	case PositionEndOfDecl:
		return "end_of_decl"
	case PositionBodyComment:
		return "body_comment"
	}
	return "unknown"
}

// Marker describes one interpolation syntax as a (prefix, open, close)
// triple. A region starts at Prefix immediately followed by Open and ends at
// the matching Close, counting nested Open/Close pairs. Prefix may be empty;
// Open and Close must not be.
type Marker struct {
	Prefix string
	Open   string
	Close  string
}

// DelimiterFunc inspects the raw text of a string literal and reports its
// opening and closing delimiters. Delimiters vary by string flavor (raw,
// prefixed, triple-quoted, hash-counted), so detection is a function of the
// text rather than fixed data.
type DelimiterFunc func(raw string) (open, close string)

// QuoteDelimiters returns a DelimiterFunc that matches the first of the
// given openers the raw text starts with and pairs it with itself. Openers
// are tried in order, so longer delimiters (triple quotes) must precede
// their single-character prefixes.
func QuoteDelimiters(openers ...string) DelimiterFunc {
	return func(raw string) (string, string) {
		for _, q := range openers {
			if len(raw) >= 2*len(q) && raw[:len(q)] == q {
				return q, q
			}
		}
		return "", ""
	}
}

// Must panics when a profile constructor returns an error. Language
// packages use it for their compile-time constant profiles.
func Must(p Profile, err error) Profile {
	if err != nil {
		panic(err)
	}
	return p
}

// Profile is the immutable description of one literal shape. Construct via
// NewString, NewSequence, NewMapping, NewFactory, or NewBlockInit.
type Profile struct {
	shape       Shape
	kinds       []string
	kindSet     map[string]struct{}
	priority    int
	placeholder Position

	// String shape.
	delimiters   DelimiterFunc
	markers      []Marker
	markersApply func(raw string) bool

	// Collection shapes.
	open        string
	close       string
	separator   string
	keyValueSep string
	minElements int
	preserve    bool
	wrapper     *regexp.Regexp

	// Block-init shape.
	blockPath      []string
	statementKinds []string
}

// Shape returns the profile's literal shape.
func (p Profile) Shape() Shape { return p.shape }

// Kinds returns the node kinds this profile matches.
func (p Profile) Kinds() []string { return p.kinds }

// Priority returns the match priority (lower is matched first).
func (p Profile) Priority() int { return p.priority }

// Placeholder returns where the omission placeholder is rendered.
func (p Profile) Placeholder() Position { return p.placeholder }

// Matches reports whether the profile matches the given node kind.
func (p Profile) Matches(kind string) bool {
	_, ok := p.kindSet[kind]
	return ok
}

// Delimiters detects the opening and closing delimiters of raw string text.
// Returns empty strings when the profile has no detector.
func (p Profile) Delimiters(raw string) (string, string) {
	if p.delimiters == nil {
		return "", ""
	}
	return p.delimiters(raw)
}

// Markers returns the interpolation markers for string profiles.
func (p Profile) Markers() []Marker { return p.markers }

// MarkersApply reports whether interpolation markers apply to this raw
// string text (e.g. only f-prefixed strings interpolate in Python).
func (p Profile) MarkersApply(raw string) bool {
	if len(p.markers) == 0 {
		return false
	}
	if p.markersApply == nil {
		return true
	}
	return p.markersApply(raw)
}

// Open returns the opening delimiter of a collection shape.
func (p Profile) Open() string { return p.open }

// Close returns the closing delimiter of a collection shape.
func (p Profile) Close() string { return p.close }

// Separator returns the element separator of a collection shape.
func (p Profile) Separator() string { return p.separator }

// KeyValueSep returns the key/value separator, empty for sequences.
func (p Profile) KeyValueSep() string { return p.keyValueSep }

// MinElements returns the minimum number of elements always retained.
func (p Profile) MinElements() int { return p.minElements }

// PreserveKeys reports whether every top-level key is retained and only
// nested values are shrunk.
func (p Profile) PreserveKeys() bool { return p.preserve }

// Wrapper returns the compiled wrapper-name pattern of a factory profile.
func (p Profile) Wrapper() *regexp.Regexp { return p.wrapper }

// BlockPath returns the node-kind path from the matched node to the
// statement block of a block-init profile.
func (p Profile) BlockPath() []string { return p.blockPath }

// StatementKinds returns the repeated-statement kinds of a block-init
// profile.
func (p Profile) StatementKinds() []string { return p.statementKinds }

// StringProfile declares a string-literal shape.
type StringProfile struct {
	// Kinds are the syntax node kinds to match.
	Kinds []string
	// Priority orders matching; lower is matched first.
	Priority int
	// Delimiters detects the opening/closing delimiter pair from raw text.
	Delimiters DelimiterFunc
	// Markers are the interpolation syntaxes embedded in this string kind.
	Markers []Marker
	// MarkersApply optionally restricts markers to matching raw text
	// (e.g. only f-prefixed Python strings interpolate). Nil applies
	// markers to every node of this kind.
	MarkersApply func(raw string) bool
	// Placeholder position; defaults to PositionInline.
	Placeholder Position
}

// NewString constructs a validated string profile.
func NewString(spec StringProfile) (Profile, error) {
	if len(spec.Kinds) == 0 {
		return Profile{}, fmt.Errorf("string profile: at least one node kind is required")
	}
	for i, m := range spec.Markers {
		if m.Open == "" || m.Close == "" {
			return Profile{}, fmt.Errorf("string profile: marker %d: open and close are required", i)
		}
	}
	pos := spec.Placeholder
	if pos == PositionAuto {
		pos = PositionInline
	}
	return Profile{
		shape:        ShapeString,
		kinds:        append([]string(nil), spec.Kinds...),
		kindSet:      kindSet(spec.Kinds),
		priority:     spec.Priority,
		placeholder:  pos,
		delimiters:   spec.Delimiters,
		markers:      append([]Marker(nil), spec.Markers...),
		markersApply: spec.MarkersApply,
	}, nil
}

// SequenceProfile declares an ordered collection shape.
type SequenceProfile struct {
	Kinds    []string
	Priority int
	// Open and Close delimit the element list.
	Open  string
	Close string
	// Separator between elements; defaults to ",".
	Separator string
	// MinElements always retained; defaults to 1.
	MinElements int
	Placeholder Position
}

// NewSequence constructs a validated sequence profile.
func NewSequence(spec SequenceProfile) (Profile, error) {
	p, err := newCollection(ShapeSequence, spec.Kinds, spec.Priority, spec.Open, spec.Close,
		spec.Separator, "", spec.MinElements, spec.Placeholder)
	if err != nil {
		return Profile{}, fmt.Errorf("sequence profile: %w", err)
	}
	return p, nil
}

// MappingProfile declares a key/value collection shape.
type MappingProfile struct {
	Kinds    []string
	Priority int
	Open     string
	Close    string
	// Separator between entries; defaults to ",".
	Separator string
	// KeyValueSep splits an entry into key and value (":", "=>", " to ").
	KeyValueSep string
	MinElements int
	// PreserveKeys retains every top-level entry and shrinks only nested
	// collection values.
	PreserveKeys bool
	Placeholder  Position
}

// NewMapping constructs a validated mapping profile.
func NewMapping(spec MappingProfile) (Profile, error) {
	p, err := newCollection(ShapeMapping, spec.Kinds, spec.Priority, spec.Open, spec.Close,
		spec.Separator, spec.KeyValueSep, spec.MinElements, spec.Placeholder)
	if err != nil {
		return Profile{}, fmt.Errorf("mapping profile: %w", err)
	}
	p.preserve = spec.PreserveKeys
	return p, nil
}

// FactoryProfile declares a collection wrapped in call-like syntax, e.g.
// List.of(1, 2) or vec![1, 2]. The profile matches only when the call
// wrapper name matches WrapperMatch; otherwise lower-priority profiles get
// the node.
type FactoryProfile struct {
	Kinds    []string
	Priority int
	// WrapperMatch is a regular expression matched against the wrapper
	// (callee) name. Required.
	WrapperMatch string
	Open         string
	Close        string
	Separator    string
	KeyValueSep  string
	MinElements  int
	Placeholder  Position
}

// NewFactory constructs a validated factory profile.
func NewFactory(spec FactoryProfile) (Profile, error) {
	if spec.WrapperMatch == "" {
		return Profile{}, fmt.Errorf("factory profile: wrapper match must not be empty")
	}
	wrapper, err := regexp.Compile(spec.WrapperMatch)
	if err != nil {
		return Profile{}, fmt.Errorf("factory profile: wrapper match: %w", err)
	}
	p, err := newCollection(ShapeFactory, spec.Kinds, spec.Priority, spec.Open, spec.Close,
		spec.Separator, spec.KeyValueSep, spec.MinElements, spec.Placeholder)
	if err != nil {
		return Profile{}, fmt.Errorf("factory profile: %w", err)
	}
	p.wrapper = wrapper
	return p, nil
}

// BlockInitProfile declares an imperative initialization idiom: a node
// containing a statement block of repeated calls (Java double-brace
// initialization and similar).
type BlockInitProfile struct {
	Kinds    []string
	Priority int
	// BlockPath is the node-kind path from the matched node down to the
	// statement block.
	BlockPath []string
	// StatementKinds are the repeated statements inside the block.
	StatementKinds []string
	// MinElements statements always retained; defaults to 1.
	MinElements int
	Placeholder Position
}

// NewBlockInit constructs a validated block-init profile.
func NewBlockInit(spec BlockInitProfile) (Profile, error) {
	if len(spec.Kinds) == 0 {
		return Profile{}, fmt.Errorf("block-init profile: at least one node kind is required")
	}
	if len(spec.BlockPath) == 0 {
		return Profile{}, fmt.Errorf("block-init profile: block path must not be empty")
	}
	if len(spec.StatementKinds) == 0 {
		return Profile{}, fmt.Errorf("block-init profile: at least one statement kind is required")
	}
	if spec.Placeholder == PositionInline {
		return Profile{}, fmt.Errorf("block-init profile: inline placeholder requires a string profile")
	}
	pos := spec.Placeholder
	if pos == PositionAuto {
		pos = PositionBodyComment
	}
	minEl := spec.MinElements
	if minEl <= 0 {
		minEl = 1
	}
	return Profile{
		shape:          ShapeBlockInit,
		kinds:          append([]string(nil), spec.Kinds...),
		kindSet:        kindSet(spec.Kinds),
		priority:       spec.Priority,
		placeholder:    pos,
		minElements:    minEl,
		blockPath:      append([]string(nil), spec.BlockPath...),
		statementKinds: append([]string(nil), spec.StatementKinds...),
	}, nil
}

// newCollection validates the fields shared by sequence, mapping, and
// factory profiles.
func newCollection(shape Shape, kinds []string, priority int, open, close, separator, kvSep string, minElements int, pos Position) (Profile, error) {
	if len(kinds) == 0 {
		return Profile{}, fmt.Errorf("at least one node kind is required")
	}
	if open == "" || close == "" {
		return Profile{}, fmt.Errorf("open and close delimiters are required")
	}
	if pos == PositionInline {
		return Profile{}, fmt.Errorf("inline placeholder requires a string profile")
	}
	if separator == "" {
		separator = ","
	}
	if minElements <= 0 {
		minElements = 1
	}
	return Profile{
		shape:       shape,
		kinds:       append([]string(nil), kinds...),
		kindSet:     kindSet(kinds),
		priority:    priority,
		placeholder: pos,
		open:        open,
		close:       close,
		separator:   separator,
		keyValueSep: kvSep,
		minElements: minElements,
	}, nil
}

func kindSet(kinds []string) map[string]struct{} {
	set := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}
