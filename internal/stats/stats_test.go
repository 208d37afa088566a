package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1.0, 2.0, 3.0})
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, 2.0, s.Range)
	require.NotNil(t, s.Stdev)
	assert.InDelta(t, 1.0, *s.Stdev, 1e-9)
}

func TestSummarizeSingleValueOmitsStdev(t *testing.T) {
	s, err := Summarize([]float64{4.5})
	require.NoError(t, err)

	assert.Equal(t, 4.5, s.Min)
	assert.Equal(t, 4.5, s.Max)
	assert.Equal(t, 4.5, s.Median)
	assert.Equal(t, 0.0, s.Range)
	assert.Nil(t, s.Stdev)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	assert.Error(t, err)
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"duplicates", []float64{1, 1, 5}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Median(tc.values))
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
