package optimize

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semtrim/lang"
)

func TestSplitElements_Simple(t *testing.T) {
	elements, ok := SplitElements("1, 2, 3", SplitSpec{Separator: ","})
	require.True(t, ok)
	require.Len(t, elements, 3)
	assert.Equal(t, "1", elements[0].Text)
	assert.Equal(t, "2", elements[1].Text)
	assert.Equal(t, "3", elements[2].Text)
}

func TestSplitElements_Empty(t *testing.T) {
	elements, ok := SplitElements("", SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.Empty(t, elements)

	elements, ok = SplitElements("   \n  ", SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.Empty(t, elements)
}

func TestSplitElements_NestedBrackets(t *testing.T) {
	elements, ok := SplitElements(`1, [2, 3], {"a": 4}`, SplitSpec{Separator: ","})
	require.True(t, ok)
	require.Len(t, elements, 3)
	assert.Equal(t, "[2, 3]", elements[1].Text)
	assert.True(t, elements[1].Nested)
	assert.Equal(t, `{"a": 4}`, elements[2].Text)
	assert.True(t, elements[2].Nested)
	assert.False(t, elements[0].Nested)
}

func TestSplitElements_QuotedSeparators(t *testing.T) {
	elements, ok := SplitElements(`"a,b", 'c,d', 2`, SplitSpec{Separator: ","})
	require.True(t, ok)
	require.Len(t, elements, 3)
	assert.Equal(t, `"a,b"`, elements[0].Text)
	assert.Equal(t, `'c,d'`, elements[1].Text)
}

func TestSplitElements_EscapedQuotes(t *testing.T) {
	elements, ok := SplitElements(`"a\",b", 2`, SplitSpec{Separator: ","})
	require.True(t, ok)
	require.Len(t, elements, 2)
	assert.Equal(t, `"a\",b"`, elements[0].Text)
}

func TestSplitElements_KeyValue(t *testing.T) {
	elements, ok := SplitElements(`"a": 1, "b": [2]`, SplitSpec{Separator: ",", KeyValueSep: ":"})
	require.True(t, ok)
	require.Len(t, elements, 2)
	assert.Equal(t, `"a"`, elements[0].Key)
	assert.Equal(t, "1", elements[0].Value)
	assert.False(t, elements[0].Nested)
	assert.Equal(t, `"b"`, elements[1].Key)
	assert.Equal(t, "[2]", elements[1].Value)
	assert.True(t, elements[1].Nested)
}

func TestSplitElements_ScopeOperatorIsNotKeyValue(t *testing.T) {
	elements, ok := SplitElements("Color::RED: 1", SplitSpec{Separator: ",", KeyValueSep: ":"})
	require.True(t, ok)
	require.Len(t, elements, 1)
	assert.Equal(t, "Color::RED", elements[0].Key)
	assert.Equal(t, "1", elements[0].Value)
}

func TestSplitElements_SeparatorInsideLineComment(t *testing.T) {
	elements, ok := SplitElements("1, // a, b\n2", SplitSpec{
		Separator: ",",
		Comment:   lang.CommentStyle{Line: "//"},
	})
	require.True(t, ok)
	require.Len(t, elements, 2)
	assert.Equal(t, "1", elements[0].Text)
	assert.Equal(t, "// a, b\n2", elements[1].Text)
}

func TestSplitElements_SeparatorInsideBlockComment(t *testing.T) {
	elements, ok := SplitElements("1, /* a, b */ 2", SplitSpec{
		Separator: ",",
		Comment:   lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"},
	})
	require.True(t, ok)
	require.Len(t, elements, 2)
	assert.Equal(t, "/* a, b */ 2", elements[1].Text)
}

func TestSplitElements_UnbalancedBecomesOpaque(t *testing.T) {
	elements, ok := SplitElements("1, (2, 3", SplitSpec{Separator: ","})
	assert.False(t, ok)
	require.Len(t, elements, 1)
	assert.Equal(t, "1, (2, 3", elements[0].Text)
}

func TestSplitElements_StrayCloserBecomesOpaque(t *testing.T) {
	_, ok := SplitElements("1, 2), 3", SplitSpec{Separator: ","})
	assert.False(t, ok)
}

func TestSplitElements_TrailingSeparator(t *testing.T) {
	elements, ok := SplitElements("1, 2,\n", SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.Len(t, elements, 2)
}

func TestSplitElements_WrapperMarksNestedCalls(t *testing.T) {
	elements, ok := SplitElements("listOf(1, 2), plain(3)", SplitSpec{
		Separator: ",",
		Wrapper:   regexp.MustCompile(`^listOf$`),
	})
	require.True(t, ok)
	require.Len(t, elements, 2)
	assert.True(t, elements[0].Nested)
	assert.False(t, elements[1].Nested)
}

func TestSplitElements_WordSeparator(t *testing.T) {
	elements, ok := SplitElements("alpha beta gamma", SplitSpec{Separator: " "})
	require.True(t, ok)
	assert.Len(t, elements, 3)
}

func TestSplitElements_SpansIndexOriginalText(t *testing.T) {
	interior := " 10 , 20 "
	elements, ok := SplitElements(interior, SplitSpec{Separator: ","})
	require.True(t, ok)
	require.Len(t, elements, 2)
	for _, el := range elements {
		assert.Equal(t, el.Text, trimmed(interior[el.Start:el.End]))
	}
}

func trimmed(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n') {
		end--
	}
	return s[start:end]
}

func TestMarkedAtTopLevel_LineCommentMarker(t *testing.T) {
	style := lang.CommentStyle{Line: "#"}
	assert.True(t, markedAtTopLevel("1, 2,\n# "+markerMore(3, 9)+"\n", style))
	assert.False(t, markedAtTopLevel("1, 2,\n# plain note\n", style))
}

func TestMarkedAtTopLevel_BlockCommentMarker(t *testing.T) {
	style := lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"}
	assert.True(t, markedAtTopLevel("1, 2 /* "+markerMore(3, 9)+" */", style))
}

func TestMarkedAtTopLevel_IgnoresNestedMarker(t *testing.T) {
	style := lang.CommentStyle{Line: "//", BlockOpen: "/*", BlockClose: "*/"}
	interior := "[1, /* " + markerMore(2, 5) + " */], 3"
	assert.False(t, markedAtTopLevel(interior, style))
}

func TestMarkedAtTopLevel_IgnoresQuotedMarker(t *testing.T) {
	style := lang.CommentStyle{Line: "//"}
	assert.False(t, markedAtTopLevel(`"`+markerMore(2, 5)+`"`, style))
}

func TestHasTrailingSeparator(t *testing.T) {
	elements, ok := SplitElements("1, 2,\n", SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.True(t, hasTrailingSeparator("1, 2,\n", elements, ","))

	elements, ok = SplitElements("1, 2", SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.False(t, hasTrailingSeparator("1, 2", elements, ","))
}

func TestElementIndent_ReadsFirstElementLine(t *testing.T) {
	interior := "\n\t\t1,\n\t\t2,\n\t"
	elements, ok := SplitElements(interior, SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.Equal(t, "\t\t", elementIndent(interior, elements, "\t"))
}

func TestElementIndent_UsesAnyLineStartingElement(t *testing.T) {
	interior := "1,\n\t\t2"
	elements, ok := SplitElements(interior, SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.Equal(t, "\t\t", elementIndent(interior, elements, "\t"))
}

func TestElementIndent_FallsBackWhenInline(t *testing.T) {
	elements, ok := SplitElements("1, 2", SplitSpec{Separator: ","})
	require.True(t, ok)
	assert.Equal(t, "\t", elementIndent("1, 2", elements, "\t"))
}
