// Package config loads the simulator configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/foodweb-simulator/core"
	"github.com/signalsfoundry/foodweb-simulator/internal/logging"
	"github.com/signalsfoundry/foodweb-simulator/internal/observability"
	"github.com/signalsfoundry/foodweb-simulator/model"
)

// Config holds all simulator configuration.
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Timing TimingConfig `yaml:"timing"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Seed   SeedConfig   `yaml:"seed"`

	GrazingMode         model.GrazingMode `yaml:"grazing_mode"`
	ExtinctionThreshold float64           `yaml:"extinction_threshold"`
	CheckDivergence     bool              `yaml:"check_divergence"`
	// Workers bounds concurrent sweep levels; 0 or 1 is sequential.
	Workers int `yaml:"workers"`

	Logging logging.Config              `yaml:"logging"`
	Metrics MetricsConfig               `yaml:"metrics"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	Storage StorageConfig               `yaml:"storage"`
	Output  OutputConfig                `yaml:"output"`
}

// ModelConfig describes the functional groups and their grazing links.
type ModelConfig struct {
	Groups    []GroupConfig   `yaml:"groups"`
	Pairings  []model.Pairing `yaml:"pairings"`
	Allometry model.Allometry `yaml:"allometry"`
}

// GroupConfig is one functional group.
type GroupConfig struct {
	CellVolume  float64 `yaml:"cell_volume"` // µm^3
	Autotrophic bool    `yaml:"autotrophic"`
	Seed        float64 `yaml:"seed"` // unscaled initial biomass
}

// TimingConfig is the integration schedule, in days.
type TimingConfig struct {
	Dt             float64 `yaml:"dt"`
	MaxTime        float64 `yaml:"max_time"`
	OutputInterval float64 `yaml:"output_interval"`
}

// SweepConfig sets the nitrate supply levels: base + k·step for k < levels.
type SweepConfig struct {
	Levels     int     `yaml:"levels"`
	SupplyBase float64 `yaml:"supply_base"`
	SupplyStep float64 `yaml:"supply_step"`
}

// SeedConfig scales the group seeds and sets the initial nitrate.
type SeedConfig struct {
	Scale   float64 `yaml:"scale"`
	Nitrate float64 `yaml:"nitrate"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects the sweep result store.
type StorageConfig struct {
	Kind string `yaml:"kind"` // memory or sqlite
	Path string `yaml:"path"` // sqlite database file
}

// OutputConfig names the files a sweep writes. Empty directories disable
// the corresponding output.
type OutputConfig struct {
	SummaryPath string `yaml:"summary_path"`
	SeriesDir   string `yaml:"series_dir"`
	PlotDir     string `yaml:"plot_dir"`
}

// DefaultConfig returns the reference model with sequential sweeps and an
// in-memory store.
func DefaultConfig() *Config {
	cfg := FromParameters(model.DefaultParameters())
	cfg.Workers = 1
	cfg.Logging = logging.Config{Level: "info", Format: "text", Backend: "slog"}
	cfg.Tracing = observability.DefaultTracingConfig()
	cfg.Storage = StorageConfig{Kind: "memory", Path: "foodweb.db"}
	cfg.Output = OutputConfig{SummaryPath: "foodweb_summary.csv"}
	return cfg
}

// FromParameters builds the model sections of a Config from p.
func FromParameters(p model.Parameters) *Config {
	groups := make([]GroupConfig, p.Groups())
	for i := range groups {
		groups[i] = GroupConfig{CellVolume: p.CellVolumes[i]}
		if i < len(p.Autotrophic) {
			groups[i].Autotrophic = p.Autotrophic[i]
		}
		if i < len(p.SeedBiomass) {
			groups[i].Seed = p.SeedBiomass[i]
		}
	}
	return &Config{
		Model: ModelConfig{
			Groups:    groups,
			Pairings:  append([]model.Pairing(nil), p.Pairings...),
			Allometry: p.Allometry,
		},
		Timing:              TimingConfig{Dt: p.Dt, MaxTime: p.MaxTime, OutputInterval: p.TimeOut},
		Sweep:               SweepConfig{Levels: p.SweepCount, SupplyBase: p.SupplyBase, SupplyStep: p.SupplyStep},
		Seed:                SeedConfig{Scale: p.SeedScale, Nitrate: p.SeedNitrate},
		GrazingMode:         p.Mode,
		ExtinctionThreshold: p.ExtinctionThreshold,
		CheckDivergence:     p.CheckDivergence,
	}
}

// Parameters converts the model sections to engine parameters.
func (c *Config) Parameters() model.Parameters {
	n := len(c.Model.Groups)
	p := model.Parameters{
		CellVolumes:         make([]float64, n),
		Autotrophic:         make([]bool, n),
		SeedBiomass:         make([]float64, n),
		Pairings:            append([]model.Pairing(nil), c.Model.Pairings...),
		Allometry:           c.Model.Allometry,
		Mode:                c.GrazingMode,
		Dt:                  c.Timing.Dt,
		MaxTime:             c.Timing.MaxTime,
		TimeOut:             c.Timing.OutputInterval,
		SweepCount:          c.Sweep.Levels,
		SupplyBase:          c.Sweep.SupplyBase,
		SupplyStep:          c.Sweep.SupplyStep,
		SeedScale:           c.Seed.Scale,
		SeedNitrate:         c.Seed.Nitrate,
		ExtinctionThreshold: c.ExtinctionThreshold,
		CheckDivergence:     c.CheckDivergence,
	}
	for i, g := range c.Model.Groups {
		p.CellVolumes[i] = g.CellVolume
		p.Autotrophic[i] = g.Autotrophic
		p.SeedBiomass[i] = g.Seed
	}
	return p
}

// Validate checks the model parameters plus the runtime sections. Errors
// wrap core.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if err := core.ValidateParameters(c.Parameters()); err != nil {
		return err
	}
	if c.ExtinctionThreshold < 0 {
		return invalid("extinction_threshold must be non-negative, got %v", c.ExtinctionThreshold)
	}
	if c.Workers < 0 {
		return invalid("workers must be non-negative, got %d", c.Workers)
	}
	switch strings.ToLower(c.Storage.Kind) {
	case "", "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return invalid("storage.path is required for the sqlite store")
		}
	default:
		return invalid("unknown storage kind %q", c.Storage.Kind)
	}
	switch strings.ToLower(c.Logging.Backend) {
	case "", "slog", "zap":
	default:
		return invalid("unknown logging backend %q", c.Logging.Backend)
	}
	return nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// YAML renders the configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies FOODWEB_* environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("FOODWEB_DT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FOODWEB_DT: %w", err)
		}
		c.Timing.Dt = f
	}
	if v := os.Getenv("FOODWEB_MAX_TIME"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FOODWEB_MAX_TIME: %w", err)
		}
		c.Timing.MaxTime = f
	}
	if v := os.Getenv("FOODWEB_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FOODWEB_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("FOODWEB_GRAZING_MODE"); v != "" {
		mode, err := model.ParseGrazingMode(v)
		if err != nil {
			return fmt.Errorf("FOODWEB_GRAZING_MODE: %w", err)
		}
		c.GrazingMode = mode
	}
	if v := os.Getenv("FOODWEB_STORE"); v != "" {
		c.Storage.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("FOODWEB_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FOODWEB_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	c.Tracing = observability.ApplyTracingEnv(c.Tracing)
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
