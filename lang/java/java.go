// Package java registers the Java language descriptor.
package java

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the Java descriptor. Immutable collection factories
// (List.of, Map.of, Arrays.asList) shrink like literals, and double-brace
// initialization blocks shrink by dropping trailing statements.
func New() *lang.Language {
	return &lang.Language{
		Name:       "java",
		Extensions: []string{".java"},
		Grammar:    java.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"string_literal", "text_block"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters(`"""`, `"`),
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:    []string{"array_initializer"},
				Priority: 20,
				Open:     "{",
				Close:    "}",
			})),
			profile.Must(profile.NewFactory(profile.FactoryProfile{
				Kinds:        []string{"method_invocation"},
				Priority:     20,
				WrapperMatch: `^(List|Set|Map)\.(of|copyOf)$|^Arrays\.asList$`,
				Open:         "(",
				Close:        ")",
			})),
			profile.Must(profile.NewBlockInit(profile.BlockInitProfile{
				Kinds:          []string{"object_creation_expression"},
				Priority:       25,
				BlockPath:      []string{"class_body", "block"},
				StatementKinds: []string{"expression_statement"},
			})),
		),
		CommentKinds: []string{"line_comment", "block_comment", "comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"method_declaration"}, NameField: "name", BodyField: "body", Method: true},
			{Kinds: []string{"constructor_declaration"}, NameField: "name", BodyField: "body", Method: true},
		},
		AnnotationKinds: []string{"marker_annotation", "annotation"},
		DeclKinds: []string{
			"class_declaration", "interface_declaration", "enum_declaration",
			"record_declaration", "field_declaration", "package_declaration",
		},
		IsPublic: isPublic,
	}
}

// isPublic checks the declaration's modifiers for the public keyword.
// Interface members default to public.
func isPublic(_ string, node *sitter.Node, src []byte) bool {
	if node == nil {
		return false
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "modifiers" {
			return strings.Contains(child.Content(src), "public")
		}
	}
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "interface_declaration" {
			return true
		}
	}
	return false
}
