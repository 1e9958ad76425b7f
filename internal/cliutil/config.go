package cliutil

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orizon-lang/hbmsim/internal/sim"
)

// FileConfig mirrors sim.Config's fields as an optional JSON config file,
// loaded beneath explicit flags: a --config file supplies defaults, and
// any flag the user set on the command line overrides it. A missing file
// is not an error — it simply yields sim.DefaultConfig() unchanged.
type FileConfig struct {
	Policy             *string `json:"policy,omitempty"`
	MissMode           *string `json:"miss_mode,omitempty"`
	DemandFallbackOnly *bool   `json:"demand_fallback_only,omitempty"`
	Capacity           *int    `json:"capacity,omitempty"`
	Reserve            *int    `json:"reserve,omitempty"`
	Epoch              *int    `json:"epoch,omitempty"`
	MaxMigrationBytes  *int    `json:"max_migration_bytes,omitempty"`
	MaxFaults          *int    `json:"max_faults,omitempty"`
}

// LoadFileConfig reads path as a JSON FileConfig. A non-existent path
// yields a zero-value FileConfig and no error.
func LoadFileConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc, nil
}

// ApplyTo overlays fc's set fields onto base, returning the merged
// sim.Config. Fields left nil in fc leave base's value untouched.
func (fc FileConfig) ApplyTo(base sim.Config) sim.Config {
	if fc.Policy != nil {
		base.Policy = sim.PolicyKind(*fc.Policy)
	}
	if fc.MissMode != nil {
		base.MissMode = sim.MissMode(*fc.MissMode)
	}
	if fc.DemandFallbackOnly != nil {
		base.DemandFallbackOnly = *fc.DemandFallbackOnly
	}
	if fc.Capacity != nil {
		base.Capacity = *fc.Capacity
	}
	if fc.Reserve != nil {
		base.Reserve = *fc.Reserve
	}
	if fc.Epoch != nil {
		base.EpochLen = *fc.Epoch
	}
	if fc.MaxMigrationBytes != nil {
		base.MaxMigrationBytes = *fc.MaxMigrationBytes
	}
	if fc.MaxFaults != nil {
		base.MaxFaults = *fc.MaxFaults
	}
	return base
}
