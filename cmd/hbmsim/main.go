// Command hbmsim replays a JSON-lines memory-access trace through the
// tiered-memory residency simulator and prints a run summary.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/orizon-lang/hbmsim/internal/cliutil"
	"github.com/orizon-lang/hbmsim/internal/sim"
	"github.com/orizon-lang/hbmsim/internal/trace"
	"github.com/orizon-lang/hbmsim/internal/viz"
)

func main() {
	var (
		tracePath   string
		configPath  string
		policy      string
		missMode    string
		demandOnly  bool
		capacity    int
		reserve     int
		epoch       int
		maxMigBytes int
		maxFaults   int
		showMap     bool
		mapWidth    int
		follow      bool
		verbose     bool
		showVersion bool
		jsonVersion bool
	)

	flag.StringVar(&tracePath, "trace", "", "path to the JSON-lines trace file (required)")
	flag.StringVar(&configPath, "config", "", "optional JSON file of default flag values")
	flag.StringVar(&policy, "policy", string(sim.PolicyConfidence), "residency policy: confidence or lru")
	flag.StringVar(&missMode, "miss-mode", string(sim.MissServe), "touch-miss handling: serve or demand")
	flag.BoolVar(&demandOnly, "demand-fallback-only", true, "restrict demand-mode loads to fallback epochs")
	flag.IntVar(&capacity, "capacity", 0, "HBM capacity in bytes (if unset, config/default applies)")
	flag.IntVar(&reserve, "reserve", -1, "reserve bytes kept free at the high end during compaction (if unset, config/default applies)")
	flag.IntVar(&epoch, "epoch", 0, "events per safety-gate epoch (if unset, config/default applies)")
	flag.IntVar(&maxMigBytes, "max-migration-bytes", -1, "epoch migration-byte budget before fallback trips (if unset, config/default applies)")
	flag.IntVar(&maxFaults, "max-faults", -1, "epoch fault budget before fallback trips (if unset, config/default applies)")
	flag.BoolVar(&showMap, "show-map", false, "print an ASCII memory map after the run")
	flag.IntVar(&mapWidth, "map-width", 0, "ASCII map width in columns (0 = autodetect terminal width)")
	flag.BoolVar(&follow, "follow", false, "tail the trace file for appended events instead of reading it once")
	flag.BoolVar(&verbose, "verbose", false, "log per-event debug lines to stderr")
	flag.BoolVar(&showVersion, "version", false, "print version info and exit")
	flag.BoolVar(&jsonVersion, "json", false, "with --version, print version info as JSON")
	flag.Parse()

	if showVersion {
		cliutil.PrintVersion("hbmsim", jsonVersion)
		return
	}

	fc, err := cliutil.LoadFileConfig(configPath)
	if err != nil {
		cliutil.ExitConfigError("%v", err)
	}
	cfg := fc.ApplyTo(sim.DefaultConfig())

	setFlag := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlag[f.Name] = true })
	if setFlag["policy"] {
		cfg.Policy = sim.PolicyKind(policy)
	}
	if setFlag["miss-mode"] {
		cfg.MissMode = sim.MissMode(missMode)
	}
	if setFlag["demand-fallback-only"] {
		cfg.DemandFallbackOnly = demandOnly
	}
	if setFlag["capacity"] {
		cfg.Capacity = capacity
	}
	if setFlag["reserve"] {
		cfg.Reserve = reserve
	}
	if setFlag["epoch"] {
		cfg.EpochLen = epoch
	}
	if setFlag["max-migration-bytes"] {
		cfg.MaxMigrationBytes = maxMigBytes
	}
	if setFlag["max-faults"] {
		cfg.MaxFaults = maxFaults
	}

	if err := cfg.Validate(); err != nil {
		cliutil.ExitConfigError("%v", err)
	}
	if tracePath == "" {
		cliutil.ExitConfigError("--trace is required")
	}

	logger := cliutil.NewLogger(os.Stderr, verbose)
	driver := sim.New(cfg, logger)

	if follow {
		runFollow(driver, tracePath)
	} else {
		runOnce(driver, tracePath)
	}

	width := mapWidth
	if width <= 0 {
		width = viz.TerminalWidth()
	}
	if width <= 0 {
		width = viz.DefaultWidth
	}
	viz.WriteReport(os.Stdout, driver.Allocator(), driver.Stats(), showMap, width)
}

func runOnce(driver *sim.Driver, path string) {
	f, err := os.Open(path)
	if err != nil {
		cliutil.ExitConfigError("%v", err)
	}
	defer f.Close()

	if err := trace.ReadAll(f, func(ev trace.Event) error {
		driver.Process(ev)
		return nil
	}); err != nil {
		cliutil.ExitTraceError(err)
	}
}

func runFollow(driver *sim.Driver, path string) {
	fl, err := trace.NewFollower(path)
	if err != nil {
		cliutil.ExitConfigError("%v", err)
	}
	defer fl.Close()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigC)

	for {
		select {
		case <-sigC:
			return
		case ev, ok := <-fl.Events():
			if !ok {
				return
			}
			driver.Process(ev)
		case err, ok := <-fl.Errors():
			if !ok {
				return
			}
			cliutil.ExitTraceError(err)
		}
	}
}
