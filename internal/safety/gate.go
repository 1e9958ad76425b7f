// Package safety implements the epoch-scoped data-movement budget and the
// safe-window scheduler that together bound how much relocation work the
// simulator may perform per epoch and when compaction is permitted.
package safety

// Budgets caps the per-epoch migration and fault work.
type Budgets struct {
	MaxMigrationBytes int
	MaxFaults         int
}

// Gate tracks per-epoch counters and a sticky fallback flag: once either
// budget is exceeded within an epoch, fallback remains true until the next
// ResetEpoch.
type Gate struct {
	Budgets        Budgets
	MigrationBytes int
	Faults         int
	Fallback       bool
}

// NewGate constructs a Gate with the given budgets, already reset.
func NewGate(b Budgets) *Gate {
	g := &Gate{Budgets: b}
	g.ResetEpoch()
	return g
}

// ResetEpoch zeroes the counters and clears fallback.
func (g *Gate) ResetEpoch() {
	g.MigrationBytes = 0
	g.Faults = 0
	g.Fallback = false
}

// ConsumeMigration adds n bytes to the migration counter and re-checks.
func (g *Gate) ConsumeMigration(n int) {
	g.MigrationBytes += n
	g.check()
}

// ConsumeFault adds n to the fault counter and re-checks.
func (g *Gate) ConsumeFault(n int) {
	g.Faults += n
	g.check()
}

func (g *Gate) check() {
	if g.MigrationBytes > g.Budgets.MaxMigrationBytes || g.Faults > g.Budgets.MaxFaults {
		g.Fallback = true
	}
}

// AllowAction reports whether discretionary (non-correctness-path) action
// is currently permitted.
func (g *Gate) AllowAction() bool {
	return !g.Fallback
}
