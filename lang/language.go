// Package lang defines the per-language descriptors that drive source
// shrinking: the tree-sitter grammar, literal profiles, comment and
// function-body syntax, and the process-wide registry keyed by file
// extension. Language packages under lang/ register themselves in init;
// importing lang/all pulls in every supported language.
package lang

import (
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semtrim/profile"
)

// CommentStyle describes how comments are written in a language.
type CommentStyle struct {
	// Line starts a comment running to end of line. Empty when the
	// language has no line comments.
	Line string
	// BlockOpen and BlockClose delimit block comments. Empty when the
	// language has no block comments.
	BlockOpen  string
	BlockClose string
}

// HasBlock reports whether the language supports block comments.
func (c CommentStyle) HasBlock() bool {
	return c.BlockOpen != "" && c.BlockClose != ""
}

// DocStyle describes how documentation is recognized.
type DocStyle struct {
	// Prefixes mark a comment as documentation ("///", "/**", "//!").
	// A comment starting with any prefix is treated as a doc comment.
	Prefixes []string
	// StringDoc reports that a string expression in the first statement
	// of a definition body is documentation (Python docstrings).
	StringDoc bool
}

// IsDoc reports whether the raw comment text is documentation.
func (d DocStyle) IsDoc(raw string) bool {
	for _, p := range d.Prefixes {
		if strings.HasPrefix(raw, p) {
			return true
		}
	}
	return false
}

// FunctionSpec describes one family of declaration kinds whose bodies can
// be removed. Grammars with named fields resolve the name and body through
// NameField/BodyField; field-less grammars fall back to child kinds.
type FunctionSpec struct {
	// Kinds are the declaration node kinds.
	Kinds []string
	// NameField is the tree-sitter field holding the declared name.
	NameField string
	// BodyField is the tree-sitter field holding the body block.
	BodyField string
	// BodyKinds are child kinds tried when BodyField is absent or the
	// grammar has no fields.
	BodyKinds []string
	// Method marks these kinds as methods, which changes the omission
	// marker wording.
	Method bool
}

// BodyOf returns the declaration's body node, or nil when the declaration
// has none (abstract methods, interface members, forward declarations).
func (s FunctionSpec) BodyOf(node *sitter.Node) *sitter.Node {
	if s.BodyField != "" {
		if body := node.ChildByFieldName(s.BodyField); body != nil {
			return body
		}
	}
	for _, kind := range s.BodyKinds {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == kind {
				return child
			}
		}
	}
	return nil
}

// nameKinds are tried when a grammar exposes no name field.
var nameKinds = []string{"identifier", "simple_identifier", "name", "constant", "field_identifier", "property_identifier"}

// NameOf returns the declared name, or empty for anonymous functions.
func (s FunctionSpec) NameOf(node *sitter.Node, src []byte) string {
	if s.NameField != "" {
		if name := node.ChildByFieldName(s.NameField); name != nil {
			return name.Content(src)
		}
	}
	for _, kind := range nameKinds {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() == kind {
				return child.Content(src)
			}
		}
	}
	return ""
}

// Language is the immutable descriptor for one supported language.
type Language struct {
	// Name is the registry key ("go", "python").
	Name string
	// Extensions are the file extensions served, with leading dot.
	Extensions []string
	// Grammar is the tree-sitter grammar.
	Grammar *sitter.Language
	// Profiles are the literal shapes, in priority order.
	Profiles *profile.Descriptor
	// CommentKinds are the node kinds that are comments.
	CommentKinds []string
	// Comment is the comment syntax used when writing markers.
	Comment CommentStyle
	// Doc describes documentation recognition.
	Doc DocStyle
	// Functions are the declaration families whose bodies can be removed.
	Functions []FunctionSpec
	// AnnotationKinds are decorator/annotation node kinds attached to
	// declarations.
	AnnotationKinds []string
	// DeclKinds are declaration node kinds a doc comment can document.
	// A comment immediately preceding one of these is treated as
	// documentation even without a doc prefix.
	DeclKinds []string
	// StatementPlaceholder is the statement left behind when a body is
	// emptied and the grammar requires at least one statement ("..."
	// for Python). Empty when braces or keywords alone form a valid
	// empty body.
	StatementPlaceholder string
	// SuiteBodyKinds are body node kinds that are indentation suites
	// rather than braced blocks (Python "block", Ruby "body_statement").
	// An emptied suite is rendered as a comment line plus the statement
	// placeholder instead of an empty brace pair.
	SuiteBodyKinds []string
	// DefaultQuote is the fallback closing delimiter used when a string
	// profile's detector cannot identify the pair. Defaults to a double
	// quote.
	DefaultQuote string
	// IsPublic reports whether a declaration with the given name is part
	// of the public surface. Nil treats every declaration as public.
	IsPublic func(name string, node *sitter.Node, src []byte) bool
}

// Validate checks the descriptor is complete enough to register.
func (l *Language) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("language name is required")
	}
	if l.Grammar == nil {
		return fmt.Errorf("language %s: grammar is required", l.Name)
	}
	if len(l.Extensions) == 0 {
		return fmt.Errorf("language %s: at least one extension is required", l.Name)
	}
	for _, ext := range l.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("language %s: extension %q must start with a dot", l.Name, ext)
		}
	}
	if l.Profiles == nil {
		return fmt.Errorf("language %s: profiles are required", l.Name)
	}
	if len(l.CommentKinds) == 0 {
		return fmt.Errorf("language %s: at least one comment kind is required", l.Name)
	}
	if l.Comment.Line == "" && !l.Comment.HasBlock() {
		return fmt.Errorf("language %s: a line or block comment style is required", l.Name)
	}
	return nil
}

// Quote returns the fallback string delimiter.
func (l *Language) Quote() string {
	if l.DefaultQuote == "" {
		return `"`
	}
	return l.DefaultQuote
}

// IsComment reports whether the node kind is a comment.
func (l *Language) IsComment(kind string) bool {
	return slices.Contains(l.CommentKinds, kind)
}

// IsAnnotation reports whether the node kind is a decorator or annotation.
func (l *Language) IsAnnotation(kind string) bool {
	return slices.Contains(l.AnnotationKinds, kind)
}

// IsDecl reports whether the node kind is a documentable declaration.
// Function and method kinds count as declarations.
func (l *Language) IsDecl(kind string) bool {
	if slices.Contains(l.DeclKinds, kind) {
		return true
	}
	_, ok := l.FunctionSpecFor(kind)
	return ok
}

// FunctionSpecFor returns the declaration family for the node kind.
func (l *Language) FunctionSpecFor(kind string) (FunctionSpec, bool) {
	for _, spec := range l.Functions {
		if slices.Contains(spec.Kinds, kind) {
			return spec, true
		}
	}
	return FunctionSpec{}, false
}

// IsSuiteBody reports whether the body node kind is an indentation suite.
func (l *Language) IsSuiteBody(kind string) bool {
	return slices.Contains(l.SuiteBodyKinds, kind)
}

// Public reports whether the named declaration is public surface.
func (l *Language) Public(name string, node *sitter.Node, src []byte) bool {
	if l.IsPublic == nil {
		return true
	}
	return l.IsPublic(name, node, src)
}
