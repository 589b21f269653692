// Package config assembles the run configuration from defaults, an optional
// YAML file, EVOBLOCK_* environment variables and command-line flags, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/engine"
	"github.com/brensch/evoblock/rules"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Grid    GridConfig   `yaml:"grid"`
	Workers int          `yaml:"workers"`
	Seed    uint64       `yaml:"seed"`
	Variant string       `yaml:"variant"`
	Brain   BrainConfig  `yaml:"brain"`
	Lambda  float64      `yaml:"lambda"`
	Spawn   SpawnConfig  `yaml:"spawn"`
	Census  CensusConfig `yaml:"census"`
	Run     RunConfig    `yaml:"run"`
	Log     LogConfig    `yaml:"log"`
}

type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// InitialOrganisms is the fraction of cells seeded with random
	// organisms before the first tick.
	InitialOrganisms float64 `yaml:"initial_organisms"`
}

type BrainConfig struct {
	InternalLayers int     `yaml:"internal_layers"`
	WeightBound    float64 `yaml:"weight_bound"`
	BiasBound      float64 `yaml:"bias_bound"`
	HiddenInit     float64 `yaml:"hidden_init"`
}

type SpawnConfig struct {
	Organism float64 `yaml:"organism"`
	Birth    float64 `yaml:"birth"`
	Death    float64 `yaml:"death"`
}

type CensusConfig struct {
	// Dir enables the parquet census when non-empty.
	Dir string `yaml:"dir"`
	// FlushRows is the number of rows per parquet file.
	FlushRows int `yaml:"flush_rows"`
	// Every samples one row per Every ticks.
	Every int `yaml:"every"`
}

type RunConfig struct {
	// MaxTicks stops the run after that many ticks; 0 runs until interrupted.
	MaxTicks   uint64        `yaml:"max_ticks"`
	StatsEvery time.Duration `yaml:"stats_every"`
	TUI        bool          `yaml:"tui"`
	Trace      bool          `yaml:"trace"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
	// File receives the logs while the terminal viewer owns the screen.
	File   string `yaml:"file"`
	Source bool   `yaml:"source"`
}

func Default() Config {
	rp := rules.DefaultParams()
	return Config{
		Grid:    GridConfig{Width: 256, Height: 144},
		Workers: runtime.NumCPU(),
		Variant: rp.Variant.String(),
		Brain: BrainConfig{
			InternalLayers: rp.Brain.InternalLayers,
			WeightBound:    rp.Brain.WeightBound,
			BiasBound:      rp.Brain.BiasBound,
			HiddenInit:     rp.Brain.HiddenInit,
		},
		Lambda: rp.Lambda,
		Spawn: SpawnConfig{
			Organism: rp.SpawnOrganism,
			Birth:    rp.SpawnBirth,
			Death:    rp.SpawnDeath,
		},
		Census: CensusConfig{FlushRows: 1000, Every: 1},
		Run:    RunConfig{StatsEvery: 5 * time.Second},
		Log:    LogConfig{Format: "pretty", Level: "info", File: "evoblock.log"},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		bad("grid must be at least 1x1, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if !unit(c.Grid.InitialOrganisms) {
		bad("initial_organisms must be in [0,1], got %v", c.Grid.InitialOrganisms)
	}
	if c.Workers < 1 {
		bad("workers must be >= 1, got %d", c.Workers)
	}
	if _, err := rules.ParseVariant(c.Variant); err != nil {
		bad("%v", err)
	}
	if c.Brain.InternalLayers < 0 {
		bad("brain.internal_layers must be >= 0, got %d", c.Brain.InternalLayers)
	}
	if !(c.Brain.WeightBound > 0) || !(c.Brain.BiasBound > 0) {
		bad("brain bounds must be > 0, got weight=%v bias=%v", c.Brain.WeightBound, c.Brain.BiasBound)
	}
	if !(c.Brain.HiddenInit >= 0) {
		bad("brain.hidden_init must be >= 0, got %v", c.Brain.HiddenInit)
	}
	if !(c.Lambda >= 0) || math.IsInf(c.Lambda, 0) {
		bad("lambda must be finite and >= 0, got %v", c.Lambda)
	}
	rates := []struct {
		name string
		v    float64
	}{
		{"spawn.organism", c.Spawn.Organism},
		{"spawn.birth", c.Spawn.Birth},
		{"spawn.death", c.Spawn.Death},
	}
	for _, r := range rates {
		if !unit(r.v) {
			bad("%s must be in [0,1], got %v", r.name, r.v)
		}
	}
	if c.Census.FlushRows < 1 {
		bad("census.flush_rows must be >= 1, got %d", c.Census.FlushRows)
	}
	if c.Census.Every < 1 {
		bad("census.every must be >= 1, got %d", c.Census.Every)
	}
	if c.Run.StatsEvery <= 0 {
		bad("run.stats_every must be positive, got %v", c.Run.StatsEvery)
	}
	if c.Run.TUI && c.Log.File == "" {
		bad("log.file is required with the terminal viewer")
	}
	return errors.Join(errs...)
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// RulesParams converts the validated config into transition parameters.
func (c Config) RulesParams() (rules.Params, error) {
	v, err := rules.ParseVariant(c.Variant)
	if err != nil {
		return rules.Params{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return rules.Params{
		Variant: v,
		Brain: brain.Params{
			InputWidth:     v.InputWidth(),
			InternalLayers: c.Brain.InternalLayers,
			WeightBound:    c.Brain.WeightBound,
			BiasBound:      c.Brain.BiasBound,
			HiddenInit:     c.Brain.HiddenInit,
		},
		Lambda:        c.Lambda,
		SpawnOrganism: c.Spawn.Organism,
		SpawnBirth:    c.Spawn.Birth,
		SpawnDeath:    c.Spawn.Death,
	}, nil
}

func (c Config) EngineConfig() (engine.Config, error) {
	if err := c.Validate(); err != nil {
		return engine.Config{}, err
	}
	rp, err := c.RulesParams()
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		Width:            c.Grid.Width,
		Height:           c.Grid.Height,
		Workers:          c.Workers,
		Seed:             c.Seed,
		Rules:            rp,
		InitialOrganisms: c.Grid.InitialOrganisms,
	}, nil
}
