package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfig names a config file when -config is not given.
const EnvConfig = "MARCHWATER_CONFIG"

const fileName = "config.yaml"

// Load resolves the config with priority defaults < file < flags and
// validates the result. The file is -config, then $MARCHWATER_CONFIG, then
// the first of ./config.yaml and ConfigDir()/config.yaml that exists.
func Load() (*Config, error) {
	path := ConfigPath()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = findConfigFile()
	}
	return load(path, applyFlags)
}

// LoadFrom loads defaults overlaid with the file at path, ignoring flags.
// It is used to replay the config saved with a telemetry run.
func LoadFrom(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	return load(path, nil)
}

func load(path string, override func(*Config)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	for _, path := range []string{fileName, UserConfigPath()} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for marchwater.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "marchwater")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".marchwater")
}

// UserConfigPath is the per-user config file.
func UserConfigPath() string {
	return filepath.Join(ConfigDir(), fileName)
}

// loadFromFile overlays the YAML file at path onto cfg. Unknown keys are
// rejected so a misspelt setting does not silently fall back to its default.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
