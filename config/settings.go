package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override, e.g. EVOBLOCK_WIDTH.
const EnvPrefix = "EVOBLOCK_"

// setting is one overridable field, addressable by flag name and by
// environment variable.
type setting struct {
	name   string
	usage  string
	isBool bool
	set    func(c *Config, v string) error
}

func intSetting(name, usage string, field func(*Config) *int) setting {
	return setting{name, usage, false, func(c *Config, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = i
		return nil
	}}
}

func uintSetting(name, usage string, field func(*Config) *uint64) setting {
	return setting{name, usage, false, func(c *Config, v string) error {
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		*field(c) = u
		return nil
	}}
}

func floatSetting(name, usage string, field func(*Config) *float64) setting {
	return setting{name, usage, false, func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}}
}

func boolSetting(name, usage string, field func(*Config) *bool) setting {
	return setting{name, usage, true, func(c *Config, v string) error {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			*field(c) = true
		case "false", "0", "no":
			*field(c) = false
		default:
			return fmt.Errorf("not a boolean")
		}
		return nil
	}}
}

func stringSetting(name, usage string, field func(*Config) *string) setting {
	return setting{name, usage, false, func(c *Config, v string) error {
		*field(c) = v
		return nil
	}}
}

func durationSetting(name, usage string, field func(*Config) *time.Duration) setting {
	return setting{name, usage, false, func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}}
}

var settings = []setting{
	intSetting("width", "grid width in cells", func(c *Config) *int { return &c.Grid.Width }),
	intSetting("height", "grid height in cells", func(c *Config) *int { return &c.Grid.Height }),
	floatSetting("initial-organisms", "fraction of cells seeded with organisms", func(c *Config) *float64 { return &c.Grid.InitialOrganisms }),
	intSetting("workers", "parallel workers per pass", func(c *Config) *int { return &c.Workers }),
	uintSetting("seed", "random seed (0 = time based)", func(c *Config) *uint64 { return &c.Seed }),
	stringSetting("variant", "rule variant: blocks or brain-only", func(c *Config) *string { return &c.Variant }),
	intSetting("internal-layers", "recurrent layers after the input layer", func(c *Config) *int { return &c.Brain.InternalLayers }),
	floatSetting("lambda", "per-parameter mutation rate", func(c *Config) *float64 { return &c.Lambda }),
	floatSetting("spawn-organism", "per-cell organism spawn rate", func(c *Config) *float64 { return &c.Spawn.Organism }),
	floatSetting("spawn-birth", "per-cell Birth block spawn rate", func(c *Config) *float64 { return &c.Spawn.Birth }),
	floatSetting("spawn-death", "per-cell Death block spawn rate", func(c *Config) *float64 { return &c.Spawn.Death }),
	uintSetting("max-ticks", "stop after this many ticks (0 = run until interrupted)", func(c *Config) *uint64 { return &c.Run.MaxTicks }),
	boolSetting("tui", "show the terminal viewer", func(c *Config) *bool { return &c.Run.TUI }),
	boolSetting("trace", "log an ASCII dump of the grid with every stats line", func(c *Config) *bool { return &c.Run.Trace }),
	durationSetting("stats-every", "interval between stats log lines", func(c *Config) *time.Duration { return &c.Run.StatsEvery }),
	stringSetting("census-dir", "write parquet census files here (empty = off)", func(c *Config) *string { return &c.Census.Dir }),
	intSetting("census-flush", "census rows per parquet file", func(c *Config) *int { return &c.Census.FlushRows }),
	intSetting("census-every", "sample the census every N ticks", func(c *Config) *int { return &c.Census.Every }),
	stringSetting("log-format", "log format: pretty, json or text", func(c *Config) *string { return &c.Log.Format }),
	stringSetting("log-level", "log level: debug, info, warn or error", func(c *Config) *string { return &c.Log.Level }),
	stringSetting("log-file", "log file used while the viewer is active", func(c *Config) *string { return &c.Log.File }),
	boolSetting("log-source", "include source locations in logs", func(c *Config) *bool { return &c.Log.Source }),
}

func envKey(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// ApplyEnv overrides fields from environment variables looked up with
// getenv. Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, s := range settings {
		key := envKey(s.name)
		v := getenv(key)
		if v == "" {
			continue
		}
		if err := s.set(c, v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, err)
		}
	}
	return nil
}

// Flags records the command-line overrides so they can be applied after the
// config file and environment have been read.
type Flags struct {
	values map[string]string
	order  []string
}

type recordedFlag struct {
	f      *Flags
	name   string
	isBool bool
}

func (r recordedFlag) String() string {
	if r.f == nil {
		return ""
	}
	return r.f.values[r.name]
}

func (r recordedFlag) Set(v string) error {
	if _, seen := r.f.values[r.name]; !seen {
		r.f.order = append(r.f.order, r.name)
	}
	r.f.values[r.name] = v
	return nil
}

func (r recordedFlag) IsBoolFlag() bool { return r.isBool }

// RegisterFlags adds one flag per setting to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{values: map[string]string{}}
	for _, s := range settings {
		fs.Var(recordedFlag{f: f, name: s.name, isBool: s.isBool}, s.name, s.usage+" (env "+envKey(s.name)+")")
	}
	return f
}

// Apply writes the recorded flags into c in command-line order.
func (f *Flags) Apply(c *Config) error {
	byName := make(map[string]setting, len(settings))
	for _, s := range settings {
		byName[s.name] = s
	}
	for _, name := range f.order {
		v := f.values[name]
		if err := byName[name].set(c, v); err != nil {
			return fmt.Errorf("%w: -%s=%q: %v", ErrInvalid, name, v, err)
		}
	}
	return nil
}
