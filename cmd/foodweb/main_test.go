package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/foodweb-simulator/internal/config"
	"github.com/signalsfoundry/foodweb-simulator/internal/export"
	"github.com/signalsfoundry/foodweb-simulator/internal/storage"
)

// writeTinyConfig saves a three-level sweep of 1000 steps each.
func writeTinyConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timing = config.TimingConfig{Dt: 0.01, MaxTime: 10, OutputInterval: 1}
	cfg.Sweep.Levels = 3
	cfg.Workers = 2
	cfg.Logging.Level = "warn"
	cfg.Storage = config.StorageConfig{Kind: "sqlite", Path: filepath.Join(dir, "foodweb.db")}
	cfg.Output = config.OutputConfig{SummaryPath: filepath.Join(dir, "summary.csv")}

	path := filepath.Join(dir, "foodweb.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSweepCommandWritesOutputsAndStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTinyConfig(t, dir)
	seriesDir := filepath.Join(dir, "series")
	plotDir := filepath.Join(dir, "plots")

	out, err := execute(t, "sweep", "--config", cfgPath, "--series-dir", seriesDir, "--plot-dir", plotDir)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "3/3 levels") {
		t.Fatalf("unexpected sweep output %q", out)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.csv"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(summary)), "\n")
	if len(lines) != 4 || lines[0] != "nsupply,bmass0,bmass1,bmass2,bmass3,hmass0,hmass1,hmass2,hmass3" {
		t.Fatalf("summary =\n%s", summary)
	}
	if !strings.HasPrefix(lines[1], "0.02,") {
		t.Fatalf("first row %q does not start with the base supply", lines[1])
	}

	for _, name := range []string{"series/level_00.csv", "series/level_02.csv", "plots/level_01.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	store := storage.NewSQLiteStore(filepath.Join(dir, "foodweb.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	sweeps, err := store.ListSweeps(context.Background())
	if err != nil {
		t.Fatalf("list sweeps: %v", err)
	}
	if len(sweeps) != 1 || len(sweeps[0].Records) != 3 {
		t.Fatalf("stored sweeps = %+v", sweeps)
	}
	if !strings.Contains(out, sweeps[0].ID) {
		t.Fatalf("output %q does not name stored sweep %s", out, sweeps[0].ID)
	}
}

func TestSweepCommandKeepsDivergedResults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(writeTinyConfig(t, dir))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	for i := range cfg.Model.Groups {
		cfg.Model.Groups[i].Seed = 1e200
	}
	cfg.Seed.Scale = 1
	cfg.CheckDivergence = false
	cfgPath := filepath.Join(dir, "diverge.yaml")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatalf("save config: %v", err)
	}

	_, err = execute(t, "sweep", "--config", cfgPath, "--plot-dir", filepath.Join(dir, "plots"))
	if err != nil && !errors.Is(err, export.ErrNoFiniteSeries) {
		t.Fatalf("sweep: %v", err)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.csv"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(summary), "NaN") && !strings.Contains(string(summary), "Inf") {
		t.Fatalf("summary holds no non-finite values:\n%s", summary)
	}

	store := storage.NewSQLiteStore(filepath.Join(dir, "foodweb.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	sweeps, err := store.ListSweeps(context.Background())
	if err != nil {
		t.Fatalf("list sweeps: %v", err)
	}
	if len(sweeps) != 1 || len(sweeps[0].Records) != 3 {
		t.Fatalf("stored sweeps = %+v", sweeps)
	}
}

func TestRunCommandPrintsSummaryRow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTinyConfig(t, dir)

	out, err := execute(t, "run", "--config", cfgPath, "--level", "2", "--series", filepath.Join(dir, "l2.csv"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "nsupply,") {
		t.Fatalf("run output =\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "l2.csv")); err != nil {
		t.Fatalf("missing series file: %v", err)
	}

	out, err = execute(t, "run", "--config", cfgPath, "--supply", "0")
	if err != nil {
		t.Fatalf("run with explicit supply: %v", err)
	}
	if !strings.Contains(out, "\n0,") {
		t.Fatalf("expected zero supply row, got\n%s", out)
	}
}

func TestTraitsCommand(t *testing.T) {
	cfgPath := writeTinyConfig(t, t.TempDir())

	out, err := execute(t, "traits", "--config", cfgPath)
	if err != nil {
		t.Fatalf("traits: %v", err)
	}
	for _, want := range []string{"specific_vmax", "autotroph", "heterotroph", "consumer"} {
		if !strings.Contains(out, want) {
			t.Fatalf("traits output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommandPrintsEffectiveYAML(t *testing.T) {
	cfgPath := writeTinyConfig(t, t.TempDir())
	t.Setenv("FOODWEB_WORKERS", "5")

	out, err := execute(t, "config", "--config", cfgPath)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("parse printed config: %v", err)
	}
	if cfg.Workers != 5 || cfg.Sweep.Levels != 3 {
		t.Fatalf("printed config workers=%d levels=%d, want 5 and 3", cfg.Workers, cfg.Sweep.Levels)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("timing:\n  dt: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := execute(t, "sweep", "--config", path); err == nil {
		t.Fatalf("expected invalid configuration error")
	}
}
