// Package csharp registers the C# language descriptor.
package csharp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the C# descriptor. Initializer expressions serve both
// collection initializers (comma elements) and object initializers
// (Name = value pairs). Interpolated strings ($"...") carry {} markers.
func New() *lang.Language {
	return &lang.Language{
		Name:       "csharp",
		Extensions: []string{".cs"},
		Grammar:    csharp.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"string_literal"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters(`"`),
			})),
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"verbatim_string_literal"},
				Priority:   10,
				Delimiters: verbatimDelimiters,
			})),
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"interpolated_string_expression"},
				Priority:   9,
				Delimiters: interpolatedDelimiters,
				Markers:    []profile.Marker{{Open: "{", Close: "}"}},
			})),
			profile.Must(profile.NewMapping(profile.MappingProfile{
				Kinds:       []string{"initializer_expression"},
				Priority:    20,
				Open:        "{",
				Close:       "}",
				KeyValueSep: "=",
			})),
		),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"///", "/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"method_declaration"}, NameField: "name", BodyField: "body", Method: true},
			{Kinds: []string{"constructor_declaration"}, NameField: "name", BodyField: "body", Method: true},
			{Kinds: []string{"local_function_statement"}, NameField: "name", BodyField: "body"},
		},
		AnnotationKinds: []string{"attribute_list"},
		DeclKinds: []string{
			"class_declaration", "interface_declaration", "struct_declaration",
			"record_declaration", "enum_declaration", "field_declaration",
			"property_declaration", "namespace_declaration",
		},
		IsPublic: isPublic,
	}
}

func verbatimDelimiters(raw string) (string, string) {
	if strings.HasPrefix(raw, `@"`) {
		return `@"`, `"`
	}
	return "", ""
}

func interpolatedDelimiters(raw string) (string, string) {
	switch {
	case strings.HasPrefix(raw, `$@"`):
		return `$@"`, `"`
	case strings.HasPrefix(raw, `@$"`):
		return `@$"`, `"`
	case strings.HasPrefix(raw, `$"`):
		return `$"`, `"`
	}
	return "", ""
}

// isPublic checks for the public modifier; interface members default to
// public.
func isPublic(_ string, node *sitter.Node, src []byte) bool {
	if node == nil {
		return false
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "modifier" && strings.Contains(child.Content(src), "public") {
			return true
		}
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "interface_declaration" {
			return true
		}
	}
	return false
}
