package sim

import (
	"strings"
	"testing"

	"github.com/orizon-lang/hbmsim/internal/trace"
	"github.com/stretchr/testify/require"
)

func runTrace(t *testing.T, cfg Config, in string) *Driver {
	t.Helper()
	d := New(cfg, nil)
	err := trace.ReadAll(strings.NewReader(in), func(ev trace.Event) error {
		d.Process(ev)
		return nil
	})
	require.NoError(t, err)
	return d
}

func TestScenario1_TrivialAdmit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100
	cfg.Reserve = 0

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":30}
{"event":"touch","id":"A","mu":0.9,"sigma":0.05}
`)

	st := d.Stats()
	require.Equal(t, 1, st.Admit)
	require.Equal(t, 1, st.Faults)
	require.Equal(t, 30, st.BytesMoved)
	require.Equal(t, 70, d.Allocator().LargestFreeExtent())
	require.Equal(t, 1, len(d.Allocator().ExtentsFree()))
}

func TestScenario2_HysteresisHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":40}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
{"event":"touch","id":"A","mu":0.5,"sigma":0.0}
`)

	st := d.Stats()
	require.True(t, d.Allocator().InMem("A"))
	require.Equal(t, 0, st.Evict)
	require.Equal(t, 1, st.Admit)
}

func TestScenario3_EvictionTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":40}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
{"event":"touch","id":"A","mu":0.5,"sigma":0.0}
{"event":"touch","id":"A","mu":0.2,"sigma":0.0}
`)

	st := d.Stats()
	require.Equal(t, 1, st.Evict)
	require.False(t, d.Allocator().InMem("A"))
	require.Equal(t, 100, d.Allocator().LargestFreeExtent())
}

func TestScenario4_CompactionForReserve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100
	cfg.Reserve = 20
	cfg.MaxMigrationBytes = 10000
	cfg.MaxFaults = 10000
	cfg.EpochLen = 10000

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":30}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
{"event":"alloc","id":"B","size":30}
{"event":"touch","id":"B","mu":0.9,"sigma":0.0}
{"event":"alloc","id":"C","size":30}
{"event":"touch","id":"C","mu":0.9,"sigma":0.0}
{"event":"free","id":"B"}
{"event":"safe_window"}
{"event":"alloc","id":"D","size":40}
{"event":"touch","id":"D","mu":0.9,"sigma":0.0}
`)

	st := d.Stats()
	require.GreaterOrEqual(t, st.Migrations, 2)
	// A, B, C admitted (30 each) + compaction relocates C (30) + D admits (40).
	require.Equal(t, 3*30+30+40, st.BytesMoved)
	require.Equal(t, 0, d.Allocator().LargestFreeExtent())
	require.Equal(t, 0, len(d.Allocator().ExtentsFree()))
}

func TestScenario5_BudgetFallbackBlocksPrefetch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 200
	cfg.MaxMigrationBytes = 50
	cfg.MaxFaults = 99
	cfg.EpochLen = 1000

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":30}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
{"event":"alloc","id":"B","size":30}
{"event":"touch","id":"B","mu":0.9,"sigma":0.0}
{"event":"alloc","id":"C","size":10}
{"event":"touch","id":"C","mu":0.9,"sigma":0.0}
`)

	st := d.Stats()
	require.Equal(t, 2, st.Admit)
	require.Equal(t, 1, st.BlockedPrefetch)
}

func TestScenario6_DemandFallbackCorrectnessPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 200
	cfg.MaxMigrationBytes = 50
	cfg.MaxFaults = 99
	cfg.EpochLen = 1000
	cfg.MissMode = MissDemand
	cfg.DemandFallbackOnly = true

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":30}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
{"event":"alloc","id":"B","size":30}
{"event":"touch","id":"B","mu":0.9,"sigma":0.0}
{"event":"alloc","id":"C","size":10}
{"event":"touch","id":"C","mu":0.9,"sigma":0.0}
`)

	st := d.Stats()
	// A and B admitted normally, C demand-loaded via the fallback
	// correctness path: admit count includes all three, gate stays in
	// fallback.
	require.Equal(t, 3, st.Admit)
	require.True(t, d.Allocator().InMem("C"))
}

func TestEpochBoundary_ResetsCountersAndCountsFallbackEpoch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100
	cfg.EpochLen = 2
	cfg.MaxMigrationBytes = 1
	cfg.MaxFaults = 0

	d := New(cfg, nil)
	d.Process(trace.Event{Kind: trace.KindTouch, ID: "X", Line: 1}) // event 1: epoch start, fault
	require.True(t, d.gate.Fallback)                                // 1 fault > budget 0

	d.Process(trace.Event{Kind: trace.KindTouch, ID: "X", Line: 2}) // event 2: no epoch reset yet
	d.Process(trace.Event{Kind: trace.KindTouch, ID: "X", Line: 3}) // event 3: epoch boundary, resets
	require.Equal(t, 1, d.stats.FallbackEpochs)
	require.Equal(t, 1, d.gate.Faults) // reset to 0 at the boundary, then event 3's fault
}

func TestFaultsCountedOnlyWhenNotResident(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100

	d := runTrace(t, cfg, `
{"event":"alloc","id":"A","size":10}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
{"event":"touch","id":"A","mu":0.9,"sigma":0.0}
`)
	// First touch: not resident (fault). Second touch: already resident.
	require.Equal(t, 1, d.Stats().Faults)
}

func TestStaleTouchDefaultsSizeTo20(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 100

	d := runTrace(t, cfg, `{"event":"touch","id":"ghost","mu":0.9,"sigma":0.0}`)
	require.True(t, d.Allocator().InMem("ghost"))
	b, _ := d.Allocator().Block("ghost")
	require.Equal(t, 20, b.Size)
}
