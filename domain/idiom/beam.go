package idiom

import (
	"sort"
)

// Beam is the size-k candidate set: at most width partials, one per
// canonical signature. Adding a duplicate signature merges witness sets
// instead of growing the beam.
type Beam struct {
	size     int
	width    int
	partials map[string]Partial
}

// NewBeam creates an empty beam for partials of the given node count.
func NewBeam(size, width int) *Beam {
	return &Beam{
		size:     size,
		width:    width,
		partials: make(map[string]Partial),
	}
}

// Size returns the node count every member must have.
func (b *Beam) Size() int { return b.size }

// Width returns the maximum member count after Cut.
func (b *Beam) Width() int { return b.width }

// Len returns the current member count.
func (b *Beam) Len() int { return len(b.partials) }

// Add inserts a partial, merging witnesses when its signature is already
// present. Partials of the wrong size are ignored.
func (b *Beam) Add(p Partial) {
	if p.Size() != b.size {
		return
	}
	sig := p.Signature()
	if existing, ok := b.partials[sig]; ok {
		merged := existing.MergeWitnesses(p)
		// Keep a score if either copy carries one.
		if _, scored := merged.Score(); !scored {
			if s, ok := p.Score(); ok {
				merged = merged.WithScore(s)
			}
		}
		b.partials[sig] = merged
		return
	}
	b.partials[sig] = p
}

// Partials returns the members ordered by support descending, signature
// ascending. The order is deterministic for a fixed member set.
func (b *Beam) Partials() []Partial {
	out := make([]Partial, 0, len(b.partials))
	for _, p := range b.partials {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Support() != out[j].Support() {
			return out[i].Support() > out[j].Support()
		}
		return out[i].Signature() < out[j].Signature()
	})
	return out
}

// Cut trims the beam to its width, keeping the best-ranked members per
// Partials order. Returns the survivors.
func (b *Beam) Cut() []Partial {
	ranked := b.Partials()
	if b.width > 0 && len(ranked) > b.width {
		for _, p := range ranked[b.width:] {
			delete(b.partials, p.Signature())
		}
		ranked = ranked[:b.width]
	}
	return ranked
}

// Replace swaps a member with an updated copy carrying the same signature.
func (b *Beam) Replace(p Partial) {
	if _, ok := b.partials[p.Signature()]; ok {
		b.partials[p.Signature()] = p
	}
}

// Remove deletes the member with the given signature.
func (b *Beam) Remove(signature string) {
	delete(b.partials, signature)
}
