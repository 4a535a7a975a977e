// Package kotlin registers the Kotlin language descriptor.
package kotlin

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the Kotlin descriptor. The grammar exposes no named fields,
// so function names and bodies resolve through child kinds. Collections
// are built through stdlib factories (listOf, mapOf) rather than literal
// syntax; mapOf pairs use the infix "to" separator.
func New() *lang.Language {
	return &lang.Language{
		Name:       "kotlin",
		Extensions: []string{".kt", ".kts"},
		Grammar:    kotlin.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"string_literal"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters(`"""`, `"`),
				Markers:    []profile.Marker{{Prefix: "$", Open: "{", Close: "}"}},
			})),
			profile.Must(profile.NewFactory(profile.FactoryProfile{
				Kinds:    []string{"call_expression"},
				Priority: 20,
				WrapperMatch: `^(listOf|mutableListOf|arrayListOf|setOf|mutableSetOf|hashSetOf|` +
					`arrayOf|intArrayOf|sequenceOf|mapOf|mutableMapOf|hashMapOf)$`,
				Open:        "(",
				Close:       ")",
				KeyValueSep: " to ",
			})),
		),
		CommentKinds: []string{"line_comment", "multiline_comment", "comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_declaration"}, BodyKinds: []string{"function_body"}},
			{Kinds: []string{"secondary_constructor"}, BodyKinds: []string{"statements"}, Method: true},
		},
		AnnotationKinds: []string{"annotation"},
		DeclKinds: []string{
			"class_declaration", "object_declaration", "property_declaration",
			"type_alias", "companion_object",
		},
		// The grammar wraps brace-block statements in a statements node
		// rather than a braced block of its own.
		SuiteBodyKinds: []string{"statements"},
		IsPublic:       isPublic,
	}
}

// isPublic reports false only for declarations carrying an explicit
// non-public visibility modifier; Kotlin defaults to public.
func isPublic(_ string, node *sitter.Node, src []byte) bool {
	if node == nil {
		return true
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "modifiers" {
			continue
		}
		text := child.Content(src)
		for _, kw := range []string{"private", "internal", "protected"} {
			if strings.Contains(text, kw) {
				return false
			}
		}
	}
	return true
}
