// Package typescript registers the TypeScript and TSX language
// descriptors. Both reuse the JavaScript literal profiles; the grammars
// share node kinds for every shape the optimizer touches.
package typescript

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/c360studio/semtrim/lang"
	jsdesc "github.com/c360studio/semtrim/lang/javascript"
)

func init() {
	lang.MustRegister(New())
	lang.MustRegister(NewTSX())
}

// New builds the TypeScript descriptor for .ts sources.
func New() *lang.Language {
	l := base("typescript", []string{".ts", ".mts", ".cts"})
	l.Grammar = typescript.GetLanguage()
	return l
}

// NewTSX builds the TSX descriptor. JSX syntax requires its own grammar,
// so .tsx files register as a distinct language.
func NewTSX() *lang.Language {
	l := base("tsx", []string{".tsx"})
	l.Grammar = tsx.GetLanguage()
	return l
}

func base(name string, extensions []string) *lang.Language {
	return &lang.Language{
		Name:         name,
		Extensions:   extensions,
		Profiles:     jsdesc.Profiles(),
		CommentKinds: []string{"comment"},
		Comment:      lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
		Doc:          lang.DocStyle{Prefixes: []string{"/**"}},
		Functions: []lang.FunctionSpec{
			{Kinds: []string{"function_declaration", "generator_function_declaration"}, NameField: "name", BodyField: "body"},
			{Kinds: []string{"method_definition"}, NameField: "name", BodyField: "body", Method: true},
		},
		AnnotationKinds: []string{"decorator"},
		DeclKinds: []string{
			"class_declaration", "abstract_class_declaration", "lexical_declaration",
			"variable_declaration", "export_statement", "variable_declarator",
			"interface_declaration", "enum_declaration", "type_alias_declaration",
			"function_signature", "abstract_method_signature", "public_field_definition",
		},
		IsPublic: jsdesc.IsPublic,
	}
}
