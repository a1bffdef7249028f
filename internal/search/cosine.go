package search

import "math"

// Cosine returns the cosine similarity of a and b. When lengths differ the
// shorter vector is padded with zeros, so the dot product covers the common
// prefix while each norm covers its whole vector. Empty, zero or non-finite
// inputs score 0; the result is never NaN or Inf.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 || math.IsInf(na, 0) || math.IsInf(nb, 0) || math.IsNaN(na) || math.IsNaN(nb) {
		return 0
	}
	denom := na * nb
	if denom == 0 || math.IsInf(denom, 0) {
		return 0
	}
	s := dot / denom
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
