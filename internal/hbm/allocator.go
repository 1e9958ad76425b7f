// Package hbm implements a contiguous-address-space allocator over a fixed
// capacity, with first-fit-by-address placement and in-place slide
// compaction. It models HBM residency bookkeeping only: no bytes are ever
// moved or touched, addresses are opaque integer offsets.
package hbm

import (
	"sort"

	"github.com/orizon-lang/hbmsim/internal/frag"
)

// Block is a placed, non-overlapping range owned by exactly one object.
type Block struct {
	Start int
	Size  int
	ObjID string
}

// Allocator maintains the obj-id -> Block mapping over [0, capacity).
// Residency in HBM is equivalent to presence of an id in this mapping.
type Allocator struct {
	capacity int
	blocks   map[string]Block
}

// New creates an Allocator over [0, capacity). capacity must be positive;
// the caller is responsible for validating configuration before
// construction, per the simulator's fail-fast configuration error policy.
func New(capacity int) *Allocator {
	return &Allocator{
		capacity: capacity,
		blocks:   make(map[string]Block),
	}
}

// Capacity returns the fixed address-space size.
func (a *Allocator) Capacity() int { return a.capacity }

// InMem reports whether id currently has a placed Block.
func (a *Allocator) InMem(id string) bool {
	_, ok := a.blocks[id]
	return ok
}

// Used returns the sum of all placed block sizes.
func (a *Allocator) Used() int {
	used := 0
	for _, b := range a.blocks {
		used += b.Size
	}
	return used
}

// FreeBytes returns capacity minus used.
func (a *Allocator) FreeBytes() int {
	return a.capacity - a.Used()
}

// sortedBlocks returns all blocks ordered by start address, the canonical
// traversal order required for extents_free and compact.
func (a *Allocator) sortedBlocks() []Block {
	out := make([]Block, 0, len(a.blocks))
	for _, b := range a.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ExtentsFree returns the maximal free (start, size) intervals within
// [0, capacity), in address order. Zero-length extents are never emitted.
func (a *Allocator) ExtentsFree() []frag.Extent {
	var ext []frag.Extent
	cursor := 0
	for _, b := range a.sortedBlocks() {
		if b.Start > cursor {
			ext = append(ext, frag.Extent{Start: cursor, Size: b.Start - cursor})
		}
		if end := b.Start + b.Size; end > cursor {
			cursor = end
		}
	}
	if cursor < a.capacity {
		ext = append(ext, frag.Extent{Start: cursor, Size: a.capacity - cursor})
	}
	return ext
}

// LargestFreeExtent returns the maximum extent size, 0 if none.
func (a *Allocator) LargestFreeExtent() int {
	lfe := 0
	for _, e := range a.ExtentsFree() {
		if e.Size > lfe {
			lfe = e.Size
		}
	}
	return lfe
}

// findFreeExtent returns the start of the lowest-address free extent whose
// size is at least size, or -1 if none fits. First-fit by address.
func (a *Allocator) findFreeExtent(size int) int {
	for _, e := range a.ExtentsFree() {
		if e.Size >= size {
			return e.Start
		}
	}
	return -1
}

// Alloc places a block for id. If id is already resident, it is a no-op
// returning true. Otherwise it finds the lowest-address free extent that
// fits size and places the block there, returning false if none fits.
func (a *Allocator) Alloc(id string, size int) bool {
	if _, ok := a.blocks[id]; ok {
		return true
	}
	start := a.findFreeExtent(size)
	if start < 0 {
		return false
	}
	a.blocks[id] = Block{Start: start, Size: size, ObjID: id}
	return true
}

// Free removes id's block, if present. Freeing an absent id is silent.
func (a *Allocator) Free(id string) {
	delete(a.blocks, id)
}

// Block returns the current placement for id, if resident.
func (a *Allocator) Block(id string) (Block, bool) {
	b, ok := a.blocks[id]
	return b, ok
}

// Blocks returns all placed blocks ordered by start address.
func (a *Allocator) Blocks() []Block {
	return a.sortedBlocks()
}

// Compact performs in-place slide compaction: blocks are walked in address
// order and relocated toward address 0, except that a block is left in
// place whenever sliding it would encroach on the last reserve bytes of
// the address space. This can leave an interior hole; the reserve
// invariant is intentionally valued over defragmentation quality, so that
// a pending allocation needing up to `reserve` bytes at the high end is
// never starved by an otherwise-beneficial relocation.
//
// Returns the total bytes relocated.
func (a *Allocator) Compact(reserve int) int {
	moved := 0
	cursor := 0
	for _, b := range a.sortedBlocks() {
		if cursor+b.Size > a.capacity-reserve {
			cursor = b.Start + b.Size
			continue
		}
		if b.Start != cursor {
			moved += b.Size
			a.blocks[b.ObjID] = Block{Start: cursor, Size: b.Size, ObjID: b.ObjID}
		}
		cursor += b.Size
	}
	return moved
}
