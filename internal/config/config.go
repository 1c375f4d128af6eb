// Package config handles simulation configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Volume     VolumeConfig     `yaml:"volume"`
	Simulation SimulationConfig `yaml:"simulation"`
	Mesh       MeshConfig       `yaml:"mesh"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Viewer     ViewerConfig     `yaml:"viewer"`
}

// VolumeConfig holds the density grid settings shared by every surface.
type VolumeConfig struct {
	PointsPerAxis int     `yaml:"points_per_axis"` // N, samples along each axis
	IsoValue      float32 `yaml:"iso_value"`
}

// SimulationConfig holds water simulation settings.
type SimulationConfig struct {
	Damping    float32 `yaml:"damping"`
	TickRateHz float64 `yaml:"tick_rate_hz"`
	Seed       []int   `yaml:"seed,flow"` // [x, y, z]; empty means top center
	MaxTicks   int     `yaml:"max_ticks"` // 0 runs until interrupted
}

// MeshConfig holds assembly settings per surface.
type MeshConfig struct {
	TerrainShading string `yaml:"terrain_shading"` // flat or smooth
	WaterShading   string `yaml:"water_shading"`
}

// PipelineConfig holds background worker settings.
type PipelineConfig struct {
	Workers   int `yaml:"workers"` // 0 means one per CPU
	QueueSize int `yaml:"queue_size"`
}

// TerrainConfig selects and parameterises the terrain generator.
type TerrainConfig struct {
	Kind      string  `yaml:"kind"`      // plane, basin or noise
	Height    float64 `yaml:"height"`    // floor height in grid units
	Radius    float64 `yaml:"radius"`    // basin bowl radius as a fraction of the grid
	Seed      int64   `yaml:"seed"`      // noise seed
	Scale     float64 `yaml:"scale"`     // noise frequency
	Amplitude float64 `yaml:"amplitude"` // noise strength
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// TelemetryConfig controls per-tick CSV output.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// ViewerConfig holds window settings for the interactive viewer.
type ViewerConfig struct {
	Width       int  `yaml:"width"`
	Height      int  `yaml:"height"`
	VSync       bool `yaml:"vsync"`
	ShowOverlay bool `yaml:"show_overlay"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Volume: VolumeConfig{
			PointsPerAxis: 16,
			IsoValue:      0.5,
		},
		Simulation: SimulationConfig{
			Damping:    17,
			TickRateHz: 30,
			MaxTicks:   0,
		},
		Mesh: MeshConfig{
			TerrainShading: "smooth",
			WaterShading:   "smooth",
		},
		Pipeline: PipelineConfig{
			Workers:   0,
			QueueSize: 64,
		},
		Terrain: TerrainConfig{
			Kind:      "basin",
			Height:    5,
			Radius:    0.4,
			Seed:      1,
			Scale:     0.15,
			Amplitude: 0.35,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Dir:     "telemetry",
		},
		Viewer: ViewerConfig{
			Width:       1280,
			Height:      720,
			VSync:       true,
			ShowOverlay: false,
		},
	}
}
