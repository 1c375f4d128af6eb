package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Faultbox/marchwater/internal/config"
)

func TestOutputWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	out, err := NewOutput(dir)
	if err != nil {
		t.Fatalf("NewOutput() error = %v", err)
	}

	rec := NewRecorder(out)
	for i := 1; i <= 3; i++ {
		if err := rec.Record(TickRecord{Tick: uint64(i), WaterMass: float64(i)}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		t.Fatalf("reading ticks.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("ticks.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "tick,sim_ms") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "tick,") != 1 {
		t.Error("header written more than once")
	}

	var parsed []TickRecord
	if err := gocsv.UnmarshalBytes(data, &parsed); err != nil {
		t.Fatalf("UnmarshalBytes() error = %v", err)
	}
	if len(parsed) != 3 || parsed[2].Tick != 3 {
		t.Errorf("parsed %d records, last tick %d", len(parsed), parsed[len(parsed)-1].Tick)
	}
}

func TestOutputDisabled(t *testing.T) {
	out, err := NewOutput("")
	if out != nil || err != nil {
		t.Fatalf("NewOutput(\"\") = %v, %v; want nil, nil", out, err)
	}
	if err := out.WriteTick(TickRecord{}); err != nil {
		t.Errorf("nil WriteTick() error = %v", err)
	}
	if out.Dir() != "" || out.Close() != nil || out.WriteConfig(config.Default()) != nil {
		t.Error("nil output should be inert")
	}

	rec := NewRecorder(nil)
	if err := rec.Record(TickRecord{Tick: 1}); err != nil {
		t.Errorf("Record() without output error = %v", err)
	}
	if len(rec.Records()) != 1 {
		t.Errorf("Records() = %d, want 1", len(rec.Records()))
	}

	var nilRec *Recorder
	if nilRec.Record(TickRecord{}) != nil || nilRec.Records() != nil {
		t.Error("nil recorder should be inert")
	}
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := NewOutput(dir)
	if err != nil {
		t.Fatalf("NewOutput() error = %v", err)
	}
	defer out.Close()

	if err := out.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}

func TestSummary(t *testing.T) {
	rec := NewRecorder(nil)
	rows := []TickRecord{
		{Tick: 1, SimMillis: 2, WaterMass: 1.5, MassDelta: 0.5},
		{Tick: 2, SimMillis: 4, WaterMass: 1.4, MassDelta: -0.1},
		{Tick: 3, SimMillis: 6, WaterMass: 1.6, MassDelta: 0.2},
	}
	for _, r := range rows {
		_ = rec.Record(r)
	}

	s := rec.Summary()
	if s.Ticks != 3 {
		t.Errorf("Ticks = %d, want 3", s.Ticks)
	}
	if s.MeanSimMillis != 4 || s.MaxSimMillis != 6 {
		t.Errorf("mean/max = %v/%v, want 4/6", s.MeanSimMillis, s.MaxSimMillis)
	}
	if math.Abs(s.StdSimMillis-2) > 1e-9 {
		t.Errorf("StdSimMillis = %v, want 2", s.StdSimMillis)
	}
	if math.Abs(s.TotalMassDrift-0.6) > 1e-9 || s.MaxAbsDrift != 0.5 {
		t.Errorf("drift total/max = %v/%v, want 0.6/0.5", s.TotalMassDrift, s.MaxAbsDrift)
	}
	if s.FinalMass != 1.6 {
		t.Errorf("FinalMass = %v, want 1.6", s.FinalMass)
	}

	if got := NewRecorder(nil).Summary(); got != (Summary{}) {
		t.Errorf("empty Summary() = %+v, want zero", got)
	}
}

func TestMillis(t *testing.T) {
	if got := Millis(1500 * time.Microsecond); got != 1.5 {
		t.Errorf("Millis() = %v, want 1.5", got)
	}
}
