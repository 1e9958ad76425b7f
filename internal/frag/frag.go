// Package frag computes fragmentation metrics over a list of free extents.
//
// Metrics are derived state only: callers recompute them from the current
// free-extent list on demand, nothing here is stored across calls.
package frag

import "math"

// epsilon is a numerical guard against log2(0); it is applied only inside
// the log, never to the outer probability multiplier.
const epsilon = 1e-12

// Extent is a free region described by its start offset and size in bytes.
// Fragmentation metrics depend only on Size; Start is carried for callers
// that need the extent's position.
type Extent struct {
	Start int
	Size  int
}

// Metrics summarizes the free-extent list of an allocator.
type Metrics struct {
	TotalFree    int
	LFE          int // largest free extent
	HoleCount    int
	ExternalFrag float64
	Entropy      float64
}

// Compute derives Metrics from a free-extent list. Extents with Size <= 0
// are ignored, matching the allocator's guarantee that it never emits
// zero-length extents, but tolerating them defensively here.
func Compute(extents []Extent) Metrics {
	var sizes []int
	total := 0
	lfe := 0
	for _, e := range extents {
		if e.Size <= 0 {
			continue
		}
		sizes = append(sizes, e.Size)
		total += e.Size
		if e.Size > lfe {
			lfe = e.Size
		}
	}

	external := 0.0
	if total > 0 {
		external = math.Max(0, 1-float64(lfe)/float64(total))
	}

	return Metrics{
		TotalFree:    total,
		LFE:          lfe,
		HoleCount:    len(sizes),
		ExternalFrag: external,
		Entropy:      entropy(sizes, total),
	}
}

// entropy computes the Shannon entropy (base 2) of the extent-size
// distribution, in bits.
func entropy(sizes []int, total int) float64 {
	if total <= 0 {
		return 0
	}
	var h float64
	for _, s := range sizes {
		if s <= 0 {
			continue
		}
		p := float64(s) / float64(total)
		h -= p * math.Log2(p+epsilon)
	}
	return h
}
