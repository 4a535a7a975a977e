package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_Count(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single char rounds up", text: "x", want: 1},
		{name: "exact multiple", text: "12345678", want: 2},
		{name: "rounds up partial token", text: "123456789", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimator{}.Count(tt.text))
		})
	}
}

func TestEstimator_Encoding(t *testing.T) {
	assert.Equal(t, HeuristicEncoding, Estimator{}.Encoding())
}

func TestEstimator_Monotonic(t *testing.T) {
	prev := 0
	text := ""
	for i := 0; i < 64; i++ {
		text += "a"
		n := Estimator{}.Count(text)
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
}

func TestNew_HeuristicEncoding(t *testing.T) {
	c, err := New(HeuristicEncoding)
	require.NoError(t, err)
	assert.Equal(t, HeuristicEncoding, c.Encoding())
	assert.Equal(t, 2, c.Count("12345678"))
}
