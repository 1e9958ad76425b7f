package safety

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGate_FallbackStickyWithinEpoch(t *testing.T) {
	g := NewGate(Budgets{MaxMigrationBytes: 50, MaxFaults: 99})
	g.ConsumeMigration(30)
	require.False(t, g.Fallback)

	g.ConsumeMigration(30) // total 60 > 50
	require.True(t, g.Fallback)
	require.False(t, g.AllowAction())

	// Stays sticky even with further consumption.
	g.ConsumeFault(1)
	require.True(t, g.Fallback)
}

func TestGate_ResetEpochZeroesCounters(t *testing.T) {
	g := NewGate(Budgets{MaxMigrationBytes: 10, MaxFaults: 1})
	g.ConsumeMigration(20)
	g.ConsumeFault(5)
	require.True(t, g.Fallback)

	g.ResetEpoch()
	require.Equal(t, 0, g.MigrationBytes)
	require.Equal(t, 0, g.Faults)
	require.False(t, g.Fallback)
}

func TestGate_StrictlyGreaterThanBudget(t *testing.T) {
	g := NewGate(Budgets{MaxMigrationBytes: 50, MaxFaults: 10})
	g.ConsumeMigration(50) // exactly at budget: not exceeded
	require.False(t, g.Fallback)
	g.ConsumeMigration(1) // now 51 > 50
	require.True(t, g.Fallback)
}

func TestScheduler_DefaultsAllowOutsideWindow(t *testing.T) {
	s := NewScheduler()
	require.False(t, s.CanCompact())
	require.True(t, s.CanPrefetch())
	require.True(t, s.CanEvict())

	s.OnSafeWindow()
	require.True(t, s.CanCompact())

	s.EndWindow()
	require.False(t, s.CanCompact())
}

func TestScheduler_RestrictiveFlags(t *testing.T) {
	s := &Scheduler{}
	require.False(t, s.CanPrefetch())
	require.False(t, s.CanEvict())
	s.OnSafeWindow()
	require.True(t, s.CanPrefetch())
	require.True(t, s.CanEvict())
}
