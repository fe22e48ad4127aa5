package gaitcore

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs) / float64(len(xs))
}

// std is the population standard deviation.
func std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func minMax(xs []float64) (min, max float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return floats.Min(xs), floats.Max(xs)
}

// coefficientOfVariation returns std/mean*100, or 0 when the mean is
// zero or non-finite ("not computed" rather than "perfectly regular").
func coefficientOfVariation(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return std(xs) / m * 100.0
}

// resampleLinear stretches or compresses a curve to exactly n points by
// linear interpolation over a normalized axis. Curves with fewer than 2
// points return a zeroed curve.
func resampleLinear(curve []float64, n int) []float64 {
	out := make([]float64, n)
	if len(curve) < 2 || n < 1 {
		return out
	}
	if n == 1 {
		out[0] = curve[0]
		return out
	}
	scale := float64(len(curve)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		pos := float64(i) * scale
		lo := int(pos)
		if lo >= len(curve)-1 {
			out[i] = curve[len(curve)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = curve[lo]*(1-frac) + curve[lo+1]*frac
	}
	return out
}
