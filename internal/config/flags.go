package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagPoints    = flag.Int("n", 0, "Density samples per axis")
	flagTicks     = flag.Int("ticks", -1, "Stop after this many water ticks (0 runs forever)")
	flagTerrain   = flag.String("terrain", "", "Terrain generator: plane, basin or noise")
	flagTelemetry = flag.String("telemetry", "", "Write per-tick CSV telemetry to this directory")
	flagWorkers   = flag.Int("workers", 0, "Background worker count")
	flagSave      = flag.Bool("save-config", false, "Write the resolved config to the user config directory and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Viewer.ShowOverlay = true
	}
	if *flagPoints > 0 {
		cfg.Volume.PointsPerAxis = *flagPoints
	}
	if *flagTicks >= 0 {
		cfg.Simulation.MaxTicks = *flagTicks
	}
	if *flagTerrain != "" {
		cfg.Terrain.Kind = *flagTerrain
	}
	if *flagTelemetry != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Dir = *flagTelemetry
	}
	if *flagWorkers > 0 {
		cfg.Pipeline.Workers = *flagWorkers
	}
}
