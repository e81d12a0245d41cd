package chunker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentenceSpans(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"three sentences", "Hi there. How are you?  Fine!", []string{"Hi there.", "How are you?", "Fine!"}},
		{"decimal point", "Pi is 3.14 roughly. Yes.", []string{"Pi is 3.14 roughly.", "Yes."}},
		{"leading and trailing space", "  First.\n\nSecond.  ", []string{"First.", "Second."}},
		{"no terminator", "just words", []string{"just words"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, sp := range sentenceSpans(tt.text) {
				got = append(got, tt.text[sp.start:sp.end])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, percentile(sorted, 25), 1e-9)
	assert.InDelta(t, 3.25, percentile(sorted, 75), 1e-9)
	assert.InDelta(t, 2.5, percentile(sorted, 50), 1e-9)
	assert.InDelta(t, 7.0, percentile([]float64{7}, 25), 1e-9)
}

func TestBreakpointThreshold(t *testing.T) {
	// mean 2.5, IQR 1.5
	assert.InDelta(t, 4.75, breakpointThreshold([]float64{4, 1, 3, 2}, 1.5), 1e-9)
	// A single distance can never exceed its own threshold.
	assert.InDelta(t, 0.4, breakpointThreshold([]float64{0.4}, 1.5), 1e-9)
	assert.True(t, math.IsInf(breakpointThreshold(nil, 1.5), 1))
}
