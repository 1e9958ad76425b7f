package viz

import (
	"fmt"
	"io"

	"github.com/orizon-lang/hbmsim/internal/frag"
	"github.com/orizon-lang/hbmsim/internal/hbm"
	"github.com/orizon-lang/hbmsim/internal/sim"
)

// WriteReport prints the fixed-format stdout summary: the labeled fields
// regression tests and the benchmark harness scrape, in the documented
// order. showMap/width control the optional trailing ASCII memory map.
func WriteReport(w io.Writer, a *hbm.Allocator, st sim.Stats, showMap bool, width int) {
	fmt.Fprintf(w, "Faults: %d\n", st.Faults)
	fmt.Fprintf(w, "Migrations: %d\n", st.Migrations)
	fmt.Fprintf(w, "Bytes moved: %d\n", st.BytesMoved)
	fmt.Fprintf(w, "Fallback epochs: %d\n", st.FallbackEpochs)
	fmt.Fprintf(w, "Blocked actions: prefetch=%d evict=%d compact=%d\n",
		st.BlockedPrefetch, st.BlockedEvict, st.BlockedCompact)

	m := frag.Compute(a.ExtentsFree())
	fmt.Fprintf(w, "Fragmentation: LFE=%d holes=%d external_frag=%.3f entropy=%.3f\n",
		m.LFE, m.HoleCount, m.ExternalFrag, m.Entropy)

	if showMap {
		fmt.Fprintln(w, RenderMap(a, width))
	}
}
