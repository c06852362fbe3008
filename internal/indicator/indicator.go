// Package indicator implements stateless technical indicators over numeric sequences.
//
// Every function returns one value per input index. Undefined entries are NaN;
// structurally invalid period/length combinations give an all-NaN output instead of an error.
package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// nanSeries returns a slice of n NaN values
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Valid reports whether v is a defined (finite) value
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Last returns the last value of a series and whether it is defined
func Last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return math.NaN(), false
	}
	v := values[len(values)-1]
	return v, Valid(v)
}

// At returns values[i] and whether it is defined (false for out-of-range i)
func At(values []float64, i int) (float64, bool) {
	if i < 0 || i >= len(values) {
		return math.NaN(), false
	}
	return values[i], Valid(values[i])
}

// Mean returns the arithmetic mean (0 for empty input)
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation (0 for fewer than two values)
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
