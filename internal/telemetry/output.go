package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/Faultbox/marchwater/internal/config"
)

// Output writes ticks.csv into a run directory.
type Output struct {
	dir           string
	ticksFile     *os.File
	headerWritten bool
}

// NewOutput creates the directory and opens ticks.csv. Returns nil if dir
// is empty (output disabled).
func NewOutput(dir string) (*Output, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks.csv: %w", err)
	}
	return &Output{dir: dir, ticksFile: f}, nil
}

// WriteConfig saves the run's configuration next to the CSV.
func (o *Output) WriteConfig(cfg *config.Config) error {
	if o == nil {
		return nil
	}
	return cfg.SaveTo(filepath.Join(o.dir, "config.yaml"))
}

// WriteTick appends one record to ticks.csv.
func (o *Output) WriteTick(rec TickRecord) error {
	if o == nil {
		return nil
	}

	records := []TickRecord{rec}
	if !o.headerWritten {
		if err := gocsv.Marshal(records, o.ticksFile); err != nil {
			return fmt.Errorf("writing ticks: %w", err)
		}
		o.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, o.ticksFile); err != nil {
		return fmt.Errorf("writing ticks: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (o *Output) Dir() string {
	if o == nil {
		return ""
	}
	return o.dir
}

// Close closes ticks.csv.
func (o *Output) Close() error {
	if o == nil || o.ticksFile == nil {
		return nil
	}
	return o.ticksFile.Close()
}
