// Package php registers the PHP language descriptor.
package php

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the PHP descriptor. array_creation_expression covers both
// syntaxes: the factory profile takes array(...) calls and declines
// short [...] literals, which fall through to the mapping profile at the
// next priority.
func New() *lang.Language {
	return &lang.Language{
		Name:       "php",
		Extensions: []string{".php"},
		Grammar:    php.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"string"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters(`'`),
			})),
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"encapsed_string"},
				Priority:   9,
				Delimiters: profile.QuoteDelimiters(`"`),
				Markers:    []profile.Marker{{Open: "{", Close: "}"}},
			})),
			profile.Must(profile.NewFactory(profile.FactoryProfile{
				Kinds:        []string{"array_creation_expression"},
				Priority:     20,
				WrapperMatch: `^(array|list)$`,
				Open:         "(",
				Close:        ")",
				KeyValueSep:  "=>",
			})),
			profile.Must(profile.NewMapping(profile.MappingProfile{
				Kinds:       []string{"array_creation_expression"},
				Priority:    21,
				Open:        "[",
				Close:       "]",
				KeyValueSep: "=>",
			})),
		),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_definition"}, NameField: "name", BodyField: "body"},
			{Kinds: []string{"method_declaration"}, NameField: "name", BodyField: "body", Method: true},
		},
		AnnotationKinds: []string{"attribute_list"},
		DeclKinds: []string{
			"class_declaration", "interface_declaration", "trait_declaration",
			"enum_declaration", "property_declaration", "const_declaration",
		},
		IsPublic: isPublic,
	}
}

// isPublic reports false only under an explicit private or protected
// modifier; PHP members default to public.
func isPublic(_ string, node *sitter.Node, src []byte) bool {
	if node == nil {
		return true
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "visibility_modifier" {
			continue
		}
		switch child.Content(src) {
		case "private", "protected":
			return false
		}
	}
	return true
}
