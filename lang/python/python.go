// Package python registers the Python language descriptor.
package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/semtrim/lang"
	"github.com/c360studio/semtrim/profile"
)

func init() {
	lang.MustRegister(New())
}

// New builds the Python descriptor. Interpolation markers apply only to
// f-strings; plain strings may be cut anywhere. Docstrings are string
// expressions in the first statement of a body, handled through
// DocStyle.StringDoc rather than the comment kinds.
func New() *lang.Language {
	return &lang.Language{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		Grammar:    python.GetLanguage(),
		Profiles: profile.MustDescriptor(
			profile.Must(profile.NewString(profile.StringProfile{
				Kinds:        []string{"string"},
				Priority:     10,
				Delimiters:   pythonDelimiters,
				Markers:      []profile.Marker{{Open: "{", Close: "}"}},
				MarkersApply: isFString,
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:    []string{"list"},
				Priority: 20,
				Open:     "[",
				Close:    "]",
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:    []string{"set"},
				Priority: 20,
				Open:     "{",
				Close:    "}",
			})),
			profile.Must(profile.NewSequence(profile.SequenceProfile{
				Kinds:    []string{"tuple"},
				Priority: 22,
				Open:     "(",
				Close:    ")",
			})),
			profile.Must(profile.NewMapping(profile.MappingProfile{
				Kinds:       []string{"dictionary"},
				Priority:    21,
				Open:        "{",
				Close:       "}",
				KeyValueSep: ":",
			})),
		),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "#"},
		Doc:          lang.DocStyle{StringDoc: true},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_definition"}, NameField: "name", BodyField: "body", BodyKinds: []string{"block"}},
		},
		AnnotationKinds:      []string{"decorator"},
		DeclKinds:            []string{"class_definition", "decorated_definition", "assignment"},
		StatementPlaceholder: "...",
		SuiteBodyKinds:       []string{"block"},
		IsPublic:             isPublic,
	}
}

// pythonDelimiters strips string prefixes (f, r, b, u and combinations)
// before matching quote styles, longest first.
func pythonDelimiters(raw string) (string, string) {
	body := strings.TrimLeft(raw, "fFrRbBuU")
	open, close := profile.QuoteDelimiters(`"""`, `'''`, `"`, `'`)(body)
	if open == "" {
		return "", ""
	}
	// Reattach the prefix so cut offsets stay relative to the node text.
	prefix := raw[:len(raw)-len(body)]
	return prefix + open, close
}

func isFString(raw string) bool {
	for _, r := range raw {
		switch r {
		case 'f', 'F':
			return true
		case '"', '\'':
			return false
		}
	}
	return false
}

func isPublic(name string, _ *sitter.Node, _ []byte) bool {
	return !strings.HasPrefix(name, "_")
}
