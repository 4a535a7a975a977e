// Package golang registers the Go language descriptor.
package golang

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the Go descriptor. Composite literal bodies (literal_value)
// serve slices, arrays, maps, and structs alike; keyed and positional
// elements share the same comma-separated syntax.
func New() *lang.Language {
	return &lang.Language{
		Name:       "go",
		Extensions: []string{".go"},
		Grammar:    golang.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"interpreted_string_literal"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters(`"`),
			})),
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"raw_string_literal"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters("`"),
			})),
			profile.Must(profile.NewMapping(profile.MappingProfile{
				Kinds:       []string{"literal_value"},
				Priority:    20,
				Open:        "{",
				Close:       "}",
				KeyValueSep: ":",
			})),
		),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_declaration"}, NameField: "name", BodyField: "body"},
			{Kinds: []string{"method_declaration"}, NameField: "name", BodyField: "body", Method: true},
		},
		DeclKinds: []string{
			"package_clause", "type_declaration", "type_spec",
			"const_declaration", "var_declaration", "field_declaration",
		},
		IsPublic: isPublic,
	}
}

func isPublic(name string, _ *sitter.Node, _ []byte) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
