package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"commonDue/internal/errs"
	"commonDue/internal/sa"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Annealing.CoolingFactor != 0.8 || cfg.Annealing.StageStopCount != 3 || cfg.Annealing.InitialAcceptance != 0.3 {
		t.Errorf("unexpected annealing defaults: %+v", cfg.Annealing)
	}
	if cfg.FixAndOptimize.WindowSize != 10 || cfg.FixAndOptimize.Jump != 5 {
		t.Errorf("unexpected window defaults: %+v", cfg.FixAndOptimize)
	}
	if !cfg.UseConstructiveHeuristic {
		t.Error("constructive heuristic disabled by default")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	src := `
annealing:
  cooling_factor: 0.9
  stage_stop_count: 4
  initial_acceptance: 0.5
  relative_stop_min_stages: 6
  relative_stop_min_pct_change: 0.001
  neighborhoods: [2, 4]
fix_and_optimize:
  window_size: 8
  jump: 3
  enabled: false
use_constructive_heuristic: false
solver:
  max_nodes: 5000
log:
  level: debug
  format: json
`
	cfg, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	a := cfg.Annealing
	if a.CoolingFactor != 0.9 || a.StageStopCount != 4 || a.InitialAcceptance != 0.5 ||
		a.RelativeStopMinStages != 6 || a.RelativeStopMinPctChange != 0.001 {
		t.Errorf("annealing = %+v", a)
	}
	if want := []sa.Neighborhood{2, 4}; !reflect.DeepEqual(a.Neighborhoods, want) {
		t.Errorf("neighborhoods = %v, want %v", a.Neighborhoods, want)
	}
	// Не заданные ключи секции сохраняют значения по умолчанию
	if a.TemperatureSamples != 100 {
		t.Errorf("temperature_samples = %d, want default 100", a.TemperatureSamples)
	}
	if cfg.FixAndOptimize.WindowSize != 8 || cfg.FixAndOptimize.Jump != 3 || cfg.FixAndOptimize.Enabled {
		t.Errorf("fix_and_optimize = %+v", cfg.FixAndOptimize)
	}
	if cfg.UseConstructiveHeuristic {
		t.Error("use_constructive_heuristic not applied")
	}
	if cfg.MILP().MaxNodes != 5000 {
		t.Errorf("max nodes = %d", cfg.MILP().MaxNodes)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Log.Output != "stderr" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errs.Code
	}{
		{"unknown top-level key", "annealing_typo: {}\n", errs.CodeInvalidConfig},
		{"unknown nested key", "annealing:\n  cooling: 0.5\n", errs.CodeInvalidConfig},
		{"bad type", "fix_and_optimize:\n  window_size: ten\n", errs.CodeInvalidConfig},
		{"cooling out of range", "annealing:\n  cooling_factor: 1.2\n", errs.CodeInvalidConfig},
		{"zero jump", "fix_and_optimize:\n  jump: 0\n", errs.CodeInvalidConfig},
		{"unsupported neighborhood", "annealing:\n  neighborhoods: [1, 9]\n", errs.CodeUnsupportedNeighborhood},
		{"negative max nodes", "solver:\n  max_nodes: -1\n", errs.CodeInvalidConfig},
		{"file log without path", "log:\n  output: file\n", errs.CodeInvalidConfig},
		{"bad log format", "log:\n  format: xml\n", errs.CodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			if !errs.Is(err, tt.code) {
				t.Errorf("Parse() = %v, want %s", err, tt.code)
			}
			if !errs.IsInstanceClass(err) && tt.code == errs.CodeInvalidConfig {
				t.Errorf("INVALID_CONFIG must be instance-class: %v", err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("empty document changed defaults: %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("fix_and_optimize:\n  window_size: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COMMONDUE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FixAndOptimize.WindowSize != 4 {
		t.Errorf("window_size = %d, want 4", cfg.FixAndOptimize.WindowSize)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want env override", cfg.Log.Level)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errs.Is(err, errs.CodeInvalidConfig) {
		t.Errorf("missing file: %v, want INVALID_CONFIG", err)
	}
	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") = %v", err)
	}
}
