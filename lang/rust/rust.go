// Package rust registers the Rust language descriptor.
package rust

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the Rust descriptor. String literals carry {} markers so
// cuts never split a format placeholder. Raw strings use hash-counted
// delimiters detected from the text. vec! invocations shrink through the
// factory profile; attributes (#[...]) precede items as siblings and are
// picked up by the annotation scan.
func New() *lang.Language {
	return &lang.Language{
		Name:       "rust",
		Extensions: []string{".rs"},
		Grammar:    rust.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"string_literal"},
				Priority:   10,
				Delimiters: profile.QuoteDelimiters(`"`),
				Markers:    []profile.Marker{{Open: "{", Close: "}"}},
			})),
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:      []string{"raw_string_literal"},
				Priority:   10,
				Delimiters: rawDelimiters,
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:    []string{"array_expression"},
				Priority: 20,
				Open:     "[",
				Close:    "]",
			})),
			profile.Must(profile.NewFactory(profile.FactoryProfile{
				Kinds:        []string{"macro_invocation"},
				Priority:     20,
				WrapperMatch: `^vec$`,
				Open:         "[",
				Close:        "]",
			})),
			profile.Must(profile.NewMapping(profile.MappingProfile{
				Kinds:       []string{"field_initializer_list"},
				Priority:    21,
				Open:        "{",
				Close:       "}",
				KeyValueSep: ":",
			})),
		),
		CommentKinds: []string{"line_comment", "block_comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"///", "//!", "/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_item"}, NameField: "name", BodyField: "body"},
		},
		AnnotationKinds: []string{"attribute_item", "inner_attribute_item"},
		DeclKinds: []string{
			"struct_item", "enum_item", "trait_item", "impl_item", "mod_item",
			"const_item", "static_item", "type_item", "macro_definition",
		},
		IsPublic: isPublic,
	}
}

// rawDelimiters parses r, r#, r## ... prefixes and mirrors the hash count
// on the closing quote.
func rawDelimiters(raw string) (string, string) {
	rest, ok := strings.CutPrefix(raw, "r")
	if !ok {
		if rest, ok = strings.CutPrefix(raw, "br"); !ok {
			return "", ""
		}
	}
	hashes := 0
	for hashes < len(rest) && rest[hashes] == '#' {
		hashes++
	}
	if hashes >= len(rest) || rest[hashes] != '"' {
		return "", ""
	}
	prefix := raw[:len(raw)-len(rest)]
	return prefix + rest[:hashes+1], `"` + strings.Repeat("#", hashes)
}

// isPublic reports whether the item carries a pub modifier.
func isPublic(_ string, node *sitter.Node, _ []byte) bool {
	if node == nil {
		return false
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if node.NamedChild(i).Type() == "visibility_modifier" {
			return true
		}
	}
	return false
}
