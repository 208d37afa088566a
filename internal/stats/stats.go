// Package stats aggregates per-iteration scalars into the summary the
// harness reports after a run.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Summary holds the descriptive statistics of a result sequence. Stdev
// is the sample standard deviation and is nil for a single value, where
// it is undefined.
type Summary struct {
	Min    float64
	Max    float64
	Median float64
	Range  float64
	Stdev  *float64
}

// Summarize computes a Summary over a non-empty value sequence.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("cannot summarize an empty result sequence")
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	s := Summary{
		Min:    min,
		Max:    max,
		Median: Median(values),
		Range:  max - min,
	}
	if len(values) > 1 {
		sd := stdev(values)
		s.Stdev = &sd
	}
	return s, nil
}

// Median returns the middle value of the sequence, averaging the two
// central values for even lengths. The input is not modified and must be
// non-empty.
func Median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// stdev is the sample standard deviation; callers guarantee len > 1.
func stdev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
