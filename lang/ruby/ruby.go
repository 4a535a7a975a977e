// Package ruby registers the Ruby language descriptor.
package ruby

import (
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the Ruby descriptor. Only double-quoted strings interpolate,
// so the #{} markers apply conditionally. Word arrays (%w) split on
// spaces. Ruby has no block comments worth emitting, so placeholders for
// single-line collections fall back to end-of-line comments.
func New() *lang.Language {
	return &lang.Language{
		Name:       "ruby",
		Extensions: []string{".rb", ".rake", ".gemspec"},
		Grammar:    ruby.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:        []string{"string"},
				Priority:     10,
				Delimiters:   profile.QuoteDelimiters(`"`, `'`),
				Markers:      []profile.Marker{{Prefix: "#", Open: "{", Close: "}"}},
				MarkersApply: func(raw string) bool { return len(raw) > 0 && raw[0] == '"' },
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:    []string{"array"},
				Priority: 20,
				Open:     "[",
				Close:    "]",
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:     []string{"string_array", "symbol_array"},
				Priority:  20,
				Open:      "[",
				Close:     "]",
				Separator: " ",
			})),
			profile.Must(profile.NewMapping(profile.MappingProfile{
				Kinds:       []string{"hash"},
				Priority:    21,
				Open:        "{",
				Close:       "}",
				KeyValueSep: "=>",
			})),
		),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "#"},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"method"}, NameField: "name", BodyField: "body", BodyKinds: []string{"body_statement"}},
			{Kinds: []string{"singleton_method"}, NameField: "name", BodyField: "body", BodyKinds: []string{"body_statement"}, Method: true},
		},
		DeclKinds:      []string{"class", "module", "assignment"},
		SuiteBodyKinds: []string{"body_statement"},
	}
}
