package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/config"
	"github.com/brensch/evoblock/engine"
	"github.com/brensch/evoblock/grid"
	"github.com/brensch/evoblock/logging"
	"github.com/brensch/evoblock/store"
	"github.com/brensch/evoblock/viewer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "evoblock:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML config file (env "+config.EnvPrefix+"CONFIG)")
	overrides := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if err := overrides.Apply(&cfg); err != nil {
		return err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	// The viewer owns the terminal, so logs go to a file while it runs.
	var logOut io.Writer = os.Stderr
	if cfg.Run.TUI {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	runID := uuid.NewString()
	logger, err := logging.New(logOut, cfg.Log.Format, level, cfg.Log.Source)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	logger = logger.With("run_id", runID)
	slog.SetDefault(logger)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	eng, err := engine.New(engineCfg)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	engineCfg = eng.Config()
	logger.Info("engine started",
		"width", engineCfg.Width,
		"height", engineCfg.Height,
		"workers", engineCfg.Workers,
		"seed", engineCfg.Seed,
		"variant", engineCfg.Rules.Variant,
		"lambda", engineCfg.Rules.Lambda,
		"max_ticks", cfg.Run.MaxTicks,
		"tui", cfg.Run.TUI,
	)

	var census *store.CensusWriter
	if cfg.Census.Dir != "" {
		census = store.NewCensusWriter(cfg.Census.Dir, cfg.Census.FlushRows, logger.With("component", "census"))
		logger.Info("census enabled", "dir", cfg.Census.Dir, "flush_rows", cfg.Census.FlushRows, "every", cfg.Census.Every)
	}
	runInfo := store.RunInfo{
		RunID:   runID,
		Width:   engineCfg.Width,
		Height:  engineCfg.Height,
		Variant: engineCfg.Rules.Variant.String(),
	}

	var latest atomic.Pointer[engine.Stats]
	var updates chan engine.Stats
	if cfg.Run.TUI {
		updates = make(chan engine.Stats, 1)
	}
	censusFailed := false
	onTick := func(st engine.Stats) {
		latest.Store(&st)
		if census != nil && !censusFailed && st.Tick%uint64(cfg.Census.Every) == 0 {
			if err := census.Add(store.NewCensusRow(runInfo, st, time.Now())); err != nil {
				logger.Error("census stopped", "error", err)
				censusFailed = true
			}
		}
		if updates != nil {
			// Drop rather than stall the simulation on a slow terminal.
			select {
			case updates <- st:
			default:
			}
		}
	}

	startTime := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if updates != nil {
			defer close(updates)
		}
		return eng.Run(gctx, cfg.Run.MaxTicks, onTick)
	})
	if cfg.Run.TUI {
		g.Go(func() error {
			defer cancel()
			p := tea.NewProgram(viewer.New(eng, updates), tea.WithAltScreen(), tea.WithContext(gctx))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("viewer: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		statsLoop(gctx, logger, logOut, eng, &latest, startTime, cfg.Run.StatsEvery, cfg.Run.Trace)
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		logger.Error("run failed", "error", runErr)
	}

	if census != nil {
		if err := census.Close(); err != nil {
			logger.Error("census final flush failed", "error", err)
			runErr = errors.Join(runErr, err)
		} else {
			logger.Info("census closed", "files", len(census.Files()))
		}
	}

	fields := []any{"ticks", eng.Ticks(), "elapsed", time.Since(startTime).Round(time.Millisecond)}
	if st := latest.Load(); st != nil {
		fields = append(fields, "organisms", st.Census.Organisms)
	}
	logger.Info("shutdown complete", fields...)
	return runErr
}

// statsLoop logs a stats line every interval until ctx is done.
func statsLoop(ctx context.Context, logger *slog.Logger, out io.Writer, eng *engine.Engine, latest *atomic.Pointer[engine.Stats], start time.Time, every time.Duration, trace bool) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var lastTick uint64
	lastTime := start
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			st := latest.Load()
			if st == nil {
				continue
			}
			tps := float64(st.Tick-lastTick) / now.Sub(lastTime).Seconds()
			lastTick, lastTime = st.Tick, now

			logger.Info("stats",
				"tick", st.Tick,
				"ticks_per_sec", fmt.Sprintf("%.2f", tps),
				"tick_ms", float64(st.Duration.Microseconds())/1000,
				"paused", eng.IsPaused(),
				slog.Group("census",
					"organisms", st.Census.Organisms,
					"birth_blocks", st.Census.BirthBlocks,
					"death_blocks", st.Census.DeathBlocks,
					"holding_birth", st.Census.HoldingBirth,
					"holding_death", st.Census.HoldingDeath,
				),
				slog.Group("events",
					"entered", st.Events.Entered,
					"incubated", st.Events.Incubated,
					"dropped", st.Events.Dropped,
					"destroyed", st.Events.Destroyed,
					"obliterated", st.Events.Obliterated,
					"mutated", st.Events.Mutated,
				),
			)
			if trace {
				// The grid may be a tick or two ahead of st by now.
				tick := eng.Ticks()
				eng.View(func(g *grid.Grid[cell.Cell]) {
					fmt.Fprint(out, viewer.Trace(tick, g))
				})
			}
		}
	}
}
