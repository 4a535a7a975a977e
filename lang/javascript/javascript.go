// Package javascript registers the JavaScript language descriptor.
package javascript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the JavaScript descriptor.
func New() *lang.Language {
	return &lang.Language{
		Name:         "javascript",
		Extensions:   []string{".js", ".mjs", ".cjs", ".jsx"},
		Grammar:      javascript.GetLanguage(),
		Profiles:     Profiles(),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_declaration", "generator_function_declaration"}, NameField: "name", BodyField: "body"},
			{Kinds: []string{"method_definition"}, NameField: "name", BodyField: "body", Method: true},
		},
		AnnotationKinds: []string{"decorator"},
		DeclKinds: []string{
			"class_declaration", "lexical_declaration", "variable_declaration",
			"export_statement", "variable_declarator",
		},
		IsPublic: IsPublic,
	}
}

// Profiles returns the literal shapes shared by the JavaScript and
// TypeScript grammars, which use the same node kinds for strings, arrays,
// and objects.
func Profiles() *profile.Descriptor {
	return profile.MustDescriptor(
		profile.Must(profile.NewString(profile.StringProfile{
			Kinds:      []string{"string"},
			Priority:   10,
			Delimiters: profile.QuoteDelimiters(`"`, `'`),
		})),
		// Template strings sort before plain strings so interpolation
		// markers are never scanned as plain content.
		profile.Must(profile.NewString(profile.StringProfile{
			Kinds:      []string{"template_string"},
			Priority:   9,
			Delimiters: profile.QuoteDelimiters("`"),
			Markers:    []profile.Marker{{Prefix: "$", Open: "{", Close: "}"}},
		})),
		profile.Must(profile.NewSequence(profile.SequenceProfile{
			Kinds:    []string{"array"},
			Priority: 20,
			Open:     "[",
			Close:    "]",
		})),
		profile.Must(profile.NewMapping(profile.MappingProfile{
			Kinds:       []string{"object"},
			Priority:    21,
			Open:        "{",
			Close:       "}",
			KeyValueSep: ":",
		})),
	)
}

// IsPublic treats underscore-prefixed and private-field names as internal.
// Shared with the TypeScript descriptor.
func IsPublic(name string, _ *sitter.Node, _ []byte) bool {
	return !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "#")
}
