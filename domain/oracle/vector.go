package oracle

import "math"

// Vector is an idiom embedding.
type Vector []float64

// Clone returns a copy of the vector.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Cosine computes the cosine similarity between two vectors: -1 opposite,
// 1 identical, 0 when either has zero magnitude or lengths differ.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance is 1 - Cosine, in [0, 2].
func CosineDistance(a, b Vector) float64 {
	return 1 - Cosine(a, b)
}

// OrderPenalty measures how far candidate c is from being order-embedded
// below host h: sum(max(0, c_i - h_i)^2). Zero means the subgraph relation
// is fully satisfied in embedding space.
func OrderPenalty(c, h Vector) float64 {
	if len(c) != len(h) {
		return math.Inf(1)
	}
	var total float64
	for i := range c {
		if d := c[i] - h[i]; d > 0 {
			total += d * d
		}
	}
	return total
}
