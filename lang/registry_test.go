package lang

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semtrim/profile"
)

func testLanguage(t *testing.T, name string, extensions ...string) *Language {
	t.Helper()
	str, err := profile.NewString(profile.StringProfile{Kinds: []string{"interpreted_string_literal"}})
	require.NoError(t, err)
	desc, err := profile.NewDescriptor(str)
	require.NoError(t, err)
	return &Language{
		Name:         name,
		Extensions:   extensions,
		Grammar:      golang.GetLanguage(),
		Profiles:     desc,
		CommentKinds: []string{"comment"},
		Comment:      CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "go", ".go")))

	l, err := r.Get("go")
	require.NoError(t, err)
	assert.Equal(t, "go", l.Name)

	_, err = r.Get("cobol")
	require.Error(t, err)
}

func TestRegistry_RejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "go", ".go")))

	err := r.Register(testLanguage(t, "go", ".golang"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_FirstExtensionRegistrationWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "first", ".x")))
	require.NoError(t, r.Register(testLanguage(t, "second", ".x", ".y")))

	l, err := r.ForFile("pkg/file.x")
	require.NoError(t, err)
	assert.Equal(t, "first", l.Name)

	l, err = r.ForFile("pkg/file.y")
	require.NoError(t, err)
	assert.Equal(t, "second", l.Name)
}

func TestRegistry_ForFileNormalizesCase(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "go", ".go")))

	l, err := r.ForFile("cmd/MAIN.GO")
	require.NoError(t, err)
	assert.Equal(t, "go", l.Name)
}

func TestRegistry_ForFileErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "go", ".go")))

	_, err := r.ForFile("Makefile")
	require.Error(t, err)

	_, err = r.ForFile("script.sh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".sh")
}

func TestRegistry_Supported(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "go", ".go")))

	assert.True(t, r.Supported("a/b/c.go"))
	assert.False(t, r.Supported("a/b/c.rs"))
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testLanguage(t, "ruby", ".rb")))
	require.NoError(t, r.Register(testLanguage(t, "go", ".go")))
	require.NoError(t, r.Register(testLanguage(t, "java", ".java")))

	assert.Equal(t, []string{"go", "java", "ruby"}, r.Names())
}

func TestRegistry_RejectsInvalidLanguage(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&Language{Name: "broken"})
	require.Error(t, err)

	bad := testLanguage(t, "noext")
	err = r.Register(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extension")

	withoutDot := testLanguage(t, "dotless", "go")
	err = r.Register(withoutDot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dot")
}

func TestLanguage_KindLookups(t *testing.T) {
	r := NewRegistry()
	l := testLanguage(t, "go", ".go")
	l.AnnotationKinds = []string{"decorator"}
	l.Functions = []FunctionSpec{
		{Kinds: []string{"function_declaration"}, NameField: "name", BodyField: "body"},
		{Kinds: []string{"method_declaration"}, NameField: "name", BodyField: "body", Method: true},
	}
	require.NoError(t, r.Register(l))

	assert.True(t, l.IsComment("comment"))
	assert.False(t, l.IsComment("string"))
	assert.True(t, l.IsAnnotation("decorator"))

	spec, ok := l.FunctionSpecFor("method_declaration")
	require.True(t, ok)
	assert.True(t, spec.Method)

	_, ok = l.FunctionSpecFor("if_statement")
	assert.False(t, ok)
}

func TestFunctionSpec_ResolvesNameAndBody(t *testing.T) {
	l := testLanguage(t, "go", ".go")
	src := []byte("package p\n\nfunc Hello() int {\n\treturn 1\n}\n")

	tree, err := Parse(context.Background(), l, src)
	require.NoError(t, err)
	defer tree.Close()

	var fn *sitter.Node
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "function_declaration" {
			fn = child
		}
	}
	require.NotNil(t, fn)

	byField := FunctionSpec{Kinds: []string{"function_declaration"}, NameField: "name", BodyField: "body"}
	assert.Equal(t, "Hello", byField.NameOf(fn, src))
	body := byField.BodyOf(fn)
	require.NotNil(t, body)
	assert.Equal(t, "block", body.Type())

	byKind := FunctionSpec{Kinds: []string{"function_declaration"}, BodyKinds: []string{"block"}}
	assert.Equal(t, "Hello", byKind.NameOf(fn, src))
	body = byKind.BodyOf(fn)
	require.NotNil(t, body)
	assert.Equal(t, "block", body.Type())
}

func TestLanguage_PublicDefaultsToTrue(t *testing.T) {
	l := testLanguage(t, "go", ".go")
	assert.True(t, l.Public("anything", nil, nil))

	l.IsPublic = func(name string, _ *sitter.Node, _ []byte) bool { return false }
	assert.False(t, l.Public("anything", nil, nil))
}

func TestDocStyle_IsDoc(t *testing.T) {
	d := DocStyle{Prefixes: []string{"///", "/**"}}
	assert.True(t, d.IsDoc("/// summary"))
	assert.True(t, d.IsDoc("/** javadoc */"))
	assert.False(t, d.IsDoc("// plain"))
	assert.False(t, DocStyle{}.IsDoc("/// anything"))
}
