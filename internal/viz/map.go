// Package viz renders the simulator's human-facing report: the
// fixed-format summary (WriteReport) and the ASCII memory map. It is an
// external collaborator, presentation glue around the simulation core.
package viz

import (
	"unicode"

	"github.com/orizon-lang/hbmsim/internal/hbm"
)

// DefaultWidth is the map's fixed width when autodetection is unavailable
// or disabled.
const DefaultWidth = 80

// RenderMap draws a width-column ASCII bar of the allocator's current
// layout: '.' for free positions, the uppercase first rune of each
// block's object id for occupied positions. Ties between adjacent blocks
// mapping to the same column are broken by iteration order (address
// order, since Blocks() is sorted by start).
func RenderMap(a *hbm.Allocator, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	cap := a.Capacity()
	buf := make([]rune, width)
	for i := range buf {
		buf[i] = '.'
	}
	if cap <= 0 {
		return string(buf)
	}

	for _, b := range a.Blocks() {
		s := b.Start * width / cap
		e := (b.Start + b.Size) * width / cap
		if e <= s {
			e = s + 1
		}
		if s < 0 {
			s = 0
		}
		if e > width {
			e = width
		}
		ch := mapGlyph(b.ObjID)
		for i := s; i < e; i++ {
			buf[i] = ch
		}
	}
	return string(buf)
}

// mapGlyph returns the uppercase first rune of an object id, or '?' for
// an empty id.
func mapGlyph(id string) rune {
	if id == "" {
		return '?'
	}
	r := []rune(id)[0]
	return unicode.ToUpper(r)
}
