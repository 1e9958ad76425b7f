// Package sim implements the event-driven simulation driver: it arbitrates
// between trace events, the residency policy, the allocator, the safety
// gate, and the safe-window scheduler, accumulating the counters that form
// the run summary.
package sim

import (
	"github.com/orizon-lang/hbmsim/internal/frag"
	"github.com/orizon-lang/hbmsim/internal/hbm"
	"github.com/orizon-lang/hbmsim/internal/policy"
	"github.com/orizon-lang/hbmsim/internal/safety"
	"github.com/orizon-lang/hbmsim/internal/trace"
)

// EventLogger receives optional per-event diagnostic lines. It is never
// required for correctness; nil is a valid, silent logger.
type EventLogger interface {
	Debug(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}

// Driver owns all simulator state exclusively and processes events to
// completion strictly in trace order.
type Driver struct {
	cfg Config
	log EventLogger

	alloc *hbm.Allocator
	conf  *policy.ConfidenceGatedPolicy
	lru   *policy.LRUBaseline
	gate  *safety.Gate
	sched *safety.Scheduler

	catalog map[string]int
	stats   Stats

	eventIdx     int
	upcomingNeed int
}

// New constructs a Driver from a validated Config. An optional logger may
// be nil.
func New(cfg Config, logger EventLogger) *Driver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Driver{
		cfg:     cfg,
		log:     logger,
		alloc:   hbm.New(cfg.Capacity),
		conf:    policy.NewConfidenceGatedPolicy(),
		lru:     policy.NewLRUBaseline(),
		gate:    safety.NewGate(safety.Budgets{MaxMigrationBytes: cfg.MaxMigrationBytes, MaxFaults: cfg.MaxFaults}),
		sched:   safety.NewScheduler(),
		catalog: make(map[string]int),
	}
}

// Allocator exposes the underlying allocator, for reporting (map render,
// invariant checks) after a run completes.
func (d *Driver) Allocator() *hbm.Allocator { return d.alloc }

// Stats returns a copy of the accumulated run counters.
func (d *Driver) Stats() Stats { return d.stats }

// CatalogSize returns the number of objects currently in the catalog.
func (d *Driver) CatalogSize() int { return len(d.catalog) }

// Process consumes one decoded trace event. Callers (trace.ReadAll or a
// Follower loop) invoke this once per event, strictly in order.
func (d *Driver) Process(ev trace.Event) {
	d.eventIdx++
	if (d.eventIdx-1)%d.cfg.EpochLen == 0 {
		if d.gate.Fallback {
			d.stats.FallbackEpochs++
		}
		d.gate.ResetEpoch()
		d.sched.EndWindow()
	}

	switch ev.Kind {
	case trace.KindSafeWindow:
		d.sched.OnSafeWindow()
	case trace.KindAlloc:
		d.catalog[ev.ID] = ev.Size
		d.stats.AllocEvents++
		if ev.Size > d.upcomingNeed {
			d.upcomingNeed = ev.Size
		}
	case trace.KindFree:
		delete(d.catalog, ev.ID)
		if d.alloc.InMem(ev.ID) {
			d.alloc.Free(ev.ID)
			d.lru.Remove(ev.ID)
		}
		d.stats.FreeEvents++
	case trace.KindTouch:
		d.handleTouch(ev)
	}
}

// handleTouch implements spec.md §4.7 step 3: the touch dispatch.
func (d *Driver) handleTouch(ev trace.Event) {
	id := ev.ID
	size, known := d.catalog[id]
	if !known {
		size = 20 // stale-touch tolerance
	}
	inHBM := d.alloc.InMem(id)

	if !inHBM {
		d.gate.ConsumeFault(1)
		d.stats.Faults++
	}

	if d.cfg.Policy == PolicyLRU {
		d.handleTouchLRU(id, size, inHBM)
		return
	}
	d.handleTouchConfidence(ev, id, size, inHBM)
}

func (d *Driver) handleTouchLRU(id string, size int, inHBM bool) {
	if inHBM {
		d.lru.OnTouch(id)
		return
	}
	if d.cfg.MissMode != MissDemand {
		return
	}
	if !(d.gate.AllowAction() && d.sched.CanPrefetch()) {
		d.stats.BlockedPrefetch++
		return
	}

	ok := d.tryCompactThenAlloc(id, size)
	if !ok {
		if victim, has := d.lru.PickVictim(); has {
			d.alloc.Free(victim)
			d.stats.Evict++
			ok = d.tryCompactThenAlloc(id, size)
		}
	}
	if ok {
		d.lru.OnAdmit(id)
		d.gate.ConsumeMigration(size)
		d.stats.BytesMoved += size
		d.stats.Migrations++
		d.stats.Admit++
		d.log.Debug("lru admit id=%s size=%d", id, size)
	} else {
		d.stats.HBMAllocFail++
	}
}

func (d *Driver) handleTouchConfidence(ev trace.Event, id string, size int, inHBM bool) {
	var fc *policy.Forecast
	if ev.HasForecast() {
		fc = &policy.Forecast{Mu: *ev.Mu, Sigma: *ev.Sigma}
	}
	dec := d.conf.DecideOnTouch(id, inHBM, fc)

	switch dec.Action {
	case policy.Admit:
		if !d.sched.CanPrefetch() {
			// Matches the reference implementation's behavior of
			// skipping the entire rest of this touch's handling
			// (demand-fallback path and compaction trigger included)
			// when prefetch is disallowed outside the safe window.
			return
		}
		if !d.gate.AllowAction() {
			d.stats.BlockedPrefetch++
		} else if d.tryCompactThenAlloc(id, size) {
			d.gate.ConsumeMigration(size)
			d.stats.BytesMoved += size
			d.stats.Migrations++
			d.stats.Admit++
			d.log.Debug("confidence admit id=%s size=%d reason=%s", id, size, dec.Reason)
		} else {
			d.stats.HBMAllocFail++
		}

	case policy.Pin:
		d.stats.Pin++
		d.log.Debug("confidence pin id=%s reason=%s", id, dec.Reason)

	case policy.Evict:
		if !d.sched.CanEvict() {
			return
		}
		if !d.gate.AllowAction() {
			d.stats.BlockedEvict++
		} else if d.alloc.InMem(id) {
			d.alloc.Free(id)
			d.stats.Evict++
			d.log.Debug("confidence evict id=%s reason=%s", id, dec.Reason)
		}
	}

	// Demand-mode correctness path: only replaces budgeted admission, it
	// is never an addition to it. It is only entered once fallback has
	// already tripped (allow_action()==false), per the resolved open
	// question in spec.md §9.
	if !inHBM && d.cfg.MissMode == MissDemand {
		allowDemand := true
		if d.cfg.DemandFallbackOnly {
			allowDemand = d.gate.Fallback
		}
		if allowDemand && d.sched.CanPrefetch() && !d.gate.AllowAction() {
			if d.tryCompactThenAlloc(id, size) {
				d.stats.BytesMoved += size
				d.stats.Migrations++
				d.stats.Admit++
				d.log.Debug("confidence demand-load id=%s size=%d (fallback)", id, size)
			} else {
				d.stats.HBMAllocFail++
			}
		}
	}

	d.considerCompaction()
}

// considerCompaction implements spec.md §4.7 step 4: post-touch
// compaction request, confidence branch only.
func (d *Driver) considerCompaction() {
	m := frag.Compute(d.alloc.ExtentsFree())
	comp := d.conf.RequestCompaction(m.ExternalFrag, m.LFE, d.upcomingNeed)
	d.upcomingNeed = 0

	if comp.Action != policy.Compact || !d.sched.CanCompact() {
		return
	}
	if !d.gate.AllowAction() {
		d.stats.BlockedCompact++
		return
	}
	moved := d.alloc.Compact(d.cfg.Reserve)
	if moved > 0 {
		d.gate.ConsumeMigration(moved)
		d.stats.BytesMoved += moved
		d.stats.Migrations++
		d.stats.Compact++
		d.log.Debug("compact moved=%d reason=%s", moved, comp.Reason)
	}
}

// tryCompactThenAlloc attempts a direct allocation; on failure, if
// compaction is currently permitted, it compacts (subject to the safety
// gate) and retries once.
func (d *Driver) tryCompactThenAlloc(id string, size int) bool {
	if d.alloc.Alloc(id, size) {
		return true
	}
	if !d.sched.CanCompact() {
		return false
	}
	if !d.gate.AllowAction() {
		d.stats.BlockedCompact++
		return false
	}
	moved := d.alloc.Compact(d.cfg.Reserve)
	if moved > 0 {
		d.gate.ConsumeMigration(moved)
		d.stats.BytesMoved += moved
		d.stats.Migrations++
		d.stats.Compact++
	}
	return d.alloc.Alloc(id, size)
}
