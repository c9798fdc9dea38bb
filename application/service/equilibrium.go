package service

import (
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/oracle"
)

// Measurement captures the reusability and diversity of one completed size
// level. Reusability is the mean support across the beam; diversity is the
// mean pairwise embedding distance.
type Measurement struct {
	size        int
	reusability float64
	diversity   float64
}

// Size returns the idiom size the measurement describes.
func (m Measurement) Size() int { return m.size }

// Reusability returns the mean support across the beam.
func (m Measurement) Reusability() float64 { return m.reusability }

// Diversity returns the mean pairwise embedding distance across the beam.
func (m Measurement) Diversity() float64 { return m.diversity }

// Measure computes the equilibrium signals for a completed beam. Partials
// without scores contribute their witness counts to reusability and are
// skipped for diversity.
func Measure(size int, partials []idiom.Partial) Measurement {
	m := Measurement{size: size}
	if len(partials) == 0 {
		return m
	}

	var supportSum float64
	vectors := make([]oracle.Vector, 0, len(partials))
	for _, p := range partials {
		supportSum += float64(p.Support())
		if s, ok := p.Score(); ok && len(s.Vector()) > 0 {
			vectors = append(vectors, s.Vector())
		}
	}
	m.reusability = supportSum / float64(len(partials))

	if len(vectors) < 2 {
		return m
	}
	var distSum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			distSum += oracle.CosineDistance(vectors[i], vectors[j])
			pairs++
		}
	}
	m.diversity = distSum / float64(pairs)
	return m
}

// StopPolicy decides, from the measurement history, whether the search has
// reached its natural idiom size and should stop growing.
type StopPolicy interface {
	ShouldStop(history []Measurement) bool
}

// CrossoverPolicy stops at the reusability/diversity equilibrium: the
// first size where reusability has fallen to or below diversity after
// previously exceeding it. Both signals are min-max normalized over the
// history so their scales are comparable.
type CrossoverPolicy struct {
	// MinLevels is the number of completed levels required before the
	// crossover test applies. Below it the policy never stops.
	MinLevels int
}

// NewCrossoverPolicy creates a CrossoverPolicy requiring three completed
// levels, enough for both normalized signals to carry a trend.
func NewCrossoverPolicy() CrossoverPolicy {
	return CrossoverPolicy{MinLevels: 3}
}

// ShouldStop reports whether the latest level crossed the equilibrium.
func (p CrossoverPolicy) ShouldStop(history []Measurement) bool {
	min := p.MinLevels
	if min < 2 {
		min = 2
	}
	if len(history) < min {
		return false
	}

	reuse := normalize(collect(history, Measurement.Reusability))
	div := normalize(collect(history, Measurement.Diversity))

	last := len(history) - 1
	// Reusability must have been strictly dominant at some earlier level;
	// a search that starts below diversity has no crossover to detect.
	dominated := false
	for i := 0; i < last; i++ {
		if reuse[i] > div[i] {
			dominated = true
			break
		}
	}
	return dominated && reuse[last] <= div[last]
}

// MaxSizePolicy never stops early; the size cap alone ends the search.
type MaxSizePolicy struct{}

// ShouldStop always reports false.
func (MaxSizePolicy) ShouldStop([]Measurement) bool { return false }

func collect(history []Measurement, f func(Measurement) float64) []float64 {
	out := make([]float64, len(history))
	for i, m := range history {
		out[i] = f(m)
	}
	return out
}

// normalize rescales values to [0, 1]. A constant series maps to all
// zeros so it can never dominate.
func normalize(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(values))
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
