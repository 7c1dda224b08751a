package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFloorsOnEmpty(t *testing.T) {
	sig := Extract("")
	assert.Equal(t, []int{1, 2}, sig.Positions)
	assert.Equal(t, []float64{5, 10}, sig.Elevations)
}

func TestExtractTable(t *testing.T) {
	tests := []struct {
		name   string
		length int
		e1, e2 float64
	}{
		{"short", 10, 5, 10},
		{"boundary low", 40, 5, 10},
		{"scenario length", 48, 6, 12},
		{"mid", 100, 12, 25},
		{"e2 ceiling", 160, 20, 40},
		{"e1 ceiling", 240, 30, 40},
		{"clamped at 512", 512, 30, 40},
		{"beyond clamp", 5000, 30, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Extract(strings.Repeat("a", tt.length))
			require.Len(t, sig.Elevations, 2)
			assert.Equal(t, tt.e1, sig.Elevations[0])
			assert.Equal(t, tt.e2, sig.Elevations[1])
		})
	}
}

func TestExtractBoundsHoldForAllLengths(t *testing.T) {
	for n := 0; n <= 600; n++ {
		sig := Extract(strings.Repeat("x", n))
		require.Equal(t, len(sig.Positions), len(sig.Elevations))
		assert.Equal(t, []int{1, 2}, sig.Positions)
		assert.GreaterOrEqual(t, sig.Elevations[0], 5.0)
		assert.LessOrEqual(t, sig.Elevations[0], 30.0)
		assert.GreaterOrEqual(t, sig.Elevations[1], 10.0)
		assert.LessOrEqual(t, sig.Elevations[1], 40.0)
	}
}

func TestExtractScenarioMessage(t *testing.T) {
	msg := "Route this through the Planetary Cognitive Mesh."
	require.Equal(t, 48, Length(msg))

	sig := Extract(msg)
	assert.Equal(t, []float64{6, 12}, sig.Elevations)
	assert.Equal(t, 18.0, sig.Sum())
}

func TestLengthCountsUTF16Units(t *testing.T) {
	assert.Equal(t, 0, Length(""))
	assert.Equal(t, 5, Length("héllo"))
	assert.Equal(t, 2, Length("😀"))
	assert.Equal(t, 1, Length("\xff"))
}

func TestSumEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Signature{}.Sum())
}

func TestFromLengthMatchesExtract(t *testing.T) {
	for _, n := range []int{0, 1, 39, 48, 120, 511, 512, 513, 4096} {
		assert.Equal(t, Extract(strings.Repeat("a", n)), FromLength(n), "length %d", n)
	}
}

func TestFromLengthNegativeIsFloor(t *testing.T) {
	assert.Equal(t, Extract(""), FromLength(-3))
}
