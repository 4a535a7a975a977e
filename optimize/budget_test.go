package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semtrim/tokens"
)

// charCounter counts one token per byte so budget arithmetic in tests is
// exact.
type charCounter struct{}

func (charCounter) Count(text string) int { return len(text) }
func (charCounter) Encoding() string      { return "char" }

func elems(texts ...string) []Element {
	out := make([]Element, len(texts))
	for i, t := range texts {
		out[i] = Element{Text: t}
	}
	return out
}

func fixedMarker(text string) func(int, int) string {
	return func(int, int) string { return text }
}

func TestSelector_Prefix_AllFit(t *testing.T) {
	sel := NewSelector(charCounter{}).Prefix(elems("aa", "bb"), ",", 100, 1, markerMore)
	assert.True(t, sel.Fits)
	assert.Equal(t, 2, sel.Kept)
	assert.Zero(t, sel.Omitted)
	assert.Zero(t, sel.Saved)
}

func TestSelector_Prefix_NoElements(t *testing.T) {
	sel := NewSelector(charCounter{}).Prefix(nil, ",", 0, 1, markerMore)
	assert.True(t, sel.Fits)
	assert.Zero(t, sel.Kept)
}

func TestSelector_Prefix_ChargesMarkerAndSeparators(t *testing.T) {
	// Elements cost 4 each, separators 2 ("," plus the joining space),
	// the marker a fixed 3. Budget 12 leaves 9 after the marker: the
	// first element costs 4, the second would push the total to 10.
	sel := NewSelector(charCounter{}).Prefix(
		elems("aaaa", "bbbb", "cccc"), ",", 12, 1, fixedMarker("<m>"))
	assert.Equal(t, 1, sel.Kept)
	assert.Equal(t, 2, sel.Omitted)
	assert.Equal(t, 12, sel.Saved)
	assert.False(t, sel.Fits)
}

func TestSelector_Prefix_MinElementsFloor(t *testing.T) {
	sel := NewSelector(charCounter{}).Prefix(
		elems("aaaa", "bbbb", "cccc"), ",", 0, 2, fixedMarker("m"))
	assert.Equal(t, 2, sel.Kept, "kept elements never drop below the floor")
	assert.Equal(t, 1, sel.Omitted)
	assert.False(t, sel.Fits)
}

func TestSelector_Prefix_MinElementsClampedToLength(t *testing.T) {
	sel := NewSelector(charCounter{}).Prefix(elems("aaaa"), ",", 0, 5, fixedMarker("m"))
	assert.Equal(t, 1, sel.Kept)
	assert.True(t, sel.Fits, "keeping every element means nothing to mark")
}

func TestSelector_Prefix_KeptGrowsWithBudget(t *testing.T) {
	s := NewSelector(tokens.Estimator{})
	elements := elems("alpha beta gamma", "delta epsilon", "zeta eta theta", "iota kappa", "lam")
	prev := 0
	for budget := 0; budget <= 40; budget++ {
		sel := s.Prefix(elements, ",", budget, 1, markerMore)
		assert.GreaterOrEqual(t, sel.Kept, prev, "budget %d", budget)
		prev = sel.Kept
	}
	assert.Equal(t, len(elements), prev, "a large enough budget keeps everything")
}

func TestSelector_Prefix_Deterministic(t *testing.T) {
	s := NewSelector(tokens.Estimator{})
	elements := elems("one", "two", "three", "four")
	first := s.Prefix(elements, ",", 5, 1, markerMore)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Prefix(elements, ",", 5, 1, markerMore))
	}
}
