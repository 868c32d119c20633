package entity

import "math"

// CosineSimilarity returns the cosine of the angle between a and b over their
// common prefix. Zero vectors and empty inputs yield 0.
func CosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// AverageEmbeddings averages two embeddings element-wise. When lengths differ
// the result is truncated to the shorter vector. An absent side yields a copy
// of the other.
func AverageEmbeddings(a, b []float32) []float32 {
	if len(a) == 0 {
		return append([]float32(nil), b...)
	}
	if len(b) == 0 {
		return append([]float32(nil), a...)
	}
	n := min(len(a), len(b))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = (a[i] + b[i]) / 2
	}
	return out
}
