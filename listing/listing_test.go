package listing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semtrim/config"
	"github.com/c360studio/semtrim/optimize"
	"github.com/c360studio/semtrim/tokens"

	_ "github.com/c360studio/semtrim/lang/golang"
	_ "github.com/c360studio/semtrim/lang/python"
)

// writeTree creates the given files under a temp dir and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func rels(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}

func TestResolve_IncludeExclude(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":             "package main\n",
		"util/helper.go":      "package util\n",
		"util/helper_test.go": "package util\n",
		"README.md":           "# readme\n",
		".git/config":         "[core]\n",
	})

	files, err := Resolve([]string{root}, []string{"**/*.go"}, []string{"**/*_test.go"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "util/helper.go"}, rels(files))
}

func TestResolve_FileRootBypassesPatterns(t *testing.T) {
	root := writeTree(t, map[string]string{"skip_test.go": "package main\n"})
	path := filepath.Join(root, "skip_test.go")

	files, err := Resolve([]string{path}, nil, []string{"**/*_test.go"}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path())
}

func TestResolve_UnsupportedFileRoot(t *testing.T) {
	root := writeTree(t, map[string]string{"notes.txt": "notes\n"})

	_, err := Resolve([]string{filepath.Join(root, "notes.txt")}, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no language serves")
}

func TestResolve_InvalidPattern(t *testing.T) {
	root := t.TempDir()

	_, err := Resolve([]string{root}, []string{"[unclosed"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")
}

func TestResolve_DeduplicatesAcrossRoots(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "package main\n"})

	files, err := Resolve([]string{root, root}, nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

const strippableSource = `package demo

func Exported() int {
	total := alpha + beta + gamma
	total += delta * epsilon
	return total
}
`

func stripConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Optimize.FunctionBodies.Policy = optimize.PolicyStripAll
	return cfg
}

func TestBuilder_Build_OptimizesFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"demo.go": strippableSource})
	files, err := Resolve([]string{root}, nil, nil, nil)
	require.NoError(t, err)

	builder, err := NewBuilder(stripConfig(), tokens.Estimator{})
	require.NoError(t, err)

	doc, err := builder.Build(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, doc.Files, 1)

	res := doc.Files[0]
	require.NoError(t, res.Err)
	assert.Equal(t, "go", res.Language)
	assert.Contains(t, string(res.Text), "… function body omitted (3 lines)")
	assert.NotContains(t, string(res.Text), "delta * epsilon")
	assert.Less(t, res.TokensAfter, res.TokensBefore)
	assert.Positive(t, res.Saved())
	assert.Positive(t, doc.Saved())
	assert.Zero(t, doc.Failed())

	stripped := false
	for _, stat := range res.Stats {
		if stat.Decision == "strip" {
			stripped = true
		}
	}
	assert.True(t, stripped, "expected a strip stat, got %+v", res.Stats)
}

func TestBuilder_Build_PreservesInputOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": strippableSource,
		"b.go": strippableSource,
		"c.go": strippableSource,
	})
	files, err := Resolve([]string{root}, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 3)

	cfg := stripConfig()
	cfg.Listing.Workers = 2
	builder, err := NewBuilder(cfg, tokens.Estimator{})
	require.NoError(t, err)

	doc, err := builder.Build(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, doc.Files, 3)
	for i := range files {
		assert.Equal(t, files[i].Rel, doc.Files[i].File.Rel)
		assert.NoError(t, doc.Files[i].Err)
	}
}

func TestBuilder_Build_ContextCanceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": strippableSource})
	files, err := Resolve([]string{root}, nil, nil, nil)
	require.NoError(t, err)

	builder, err := NewBuilder(stripConfig(), tokens.Estimator{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc, err := builder.Build(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, doc)
}

func TestBuilder_Build_MissingFileCarriedAsFailure(t *testing.T) {
	builder, err := NewBuilder(stripConfig(), tokens.Estimator{})
	require.NoError(t, err)

	doc, err := builder.Build(context.Background(), []File{{Root: t.TempDir(), Rel: "gone.go"}})
	require.NoError(t, err)
	require.Len(t, doc.Files, 1)
	assert.Error(t, doc.Files[0].Err)
	assert.Equal(t, 1, doc.Failed())
}

func TestNewBuilder_Validation(t *testing.T) {
	_, err := NewBuilder(nil, tokens.Estimator{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is required")

	_, err = NewBuilder(config.DefaultConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token counter is required")
}

func TestRender_PlainBanners(t *testing.T) {
	doc := &Document{Files: []FileResult{
		{File: File{Rel: "a.go"}, Language: "go", Text: []byte("package a\n")},
		{File: File{Rel: "b.py"}, Language: "python", Text: []byte("x = 1\n")},
	}}

	out, err := Render(doc, FormatPlain)
	require.NoError(t, err)
	assert.Equal(t, "// ==== a.go ====\npackage a\n\n# ==== b.py ====\nx = 1\n", out)
}

func TestRender_PlainAddsMissingNewline(t *testing.T) {
	doc := &Document{Files: []FileResult{
		{File: File{Rel: "a.go"}, Language: "go", Text: []byte("package a")},
	}}

	out, err := Render(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "// ==== a.go ====\npackage a\n", out)
}

func TestRender_MarkdownFences(t *testing.T) {
	doc := &Document{Files: []FileResult{
		{File: File{Rel: "a.go"}, Language: "go", Text: []byte("package a\n")},
	}}

	out, err := Render(doc, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "## a.go\n\n```go\npackage a\n```\n", out)
}

func TestRender_MarkdownLengthensFenceAroundBackticks(t *testing.T) {
	doc := &Document{Files: []FileResult{
		{File: File{Rel: "doc.py"}, Language: "python", Text: []byte("s = \"```\"\n")},
	}}

	out, err := Render(doc, FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, out, "````python\n")
	assert.Contains(t, out, "\n````\n")
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render(&Document{}, "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown listing format")
}
