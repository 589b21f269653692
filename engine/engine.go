// Package engine drives the simulation: one tick is a parallel Step pass
// over every cell, a barrier, then a parallel Update pass.
//
// Step outputs live in a per-cell buffer owned by the engine. During Step a
// cell reads the grid and writes only its own buffer slot; during Update it
// reads its own Diff plus the neighbors' slots and writes only its own
// grid cell. No locks are needed inside a pass.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
	"github.com/brensch/evoblock/rules"
	"golang.org/x/sync/errgroup"
)

// ErrInvariant wraps a panic recovered inside a tick pass. It means the
// configuration or the grid is corrupt; the run cannot continue.
var ErrInvariant = errors.New("simulation invariant violated")

type Config struct {
	Width   int
	Height  int
	Workers int
	// Seed feeds the per-band random sources. Zero picks a time-based seed.
	Seed  uint64
	Rules rules.Params
	// InitialOrganisms is the fraction of cells seeded with random
	// organisms at construction.
	InitialOrganisms float64
}

func DefaultConfig() Config {
	return Config{
		Width:   256,
		Height:  144,
		Workers: runtime.NumCPU(),
		Rules:   rules.DefaultParams(),
	}
}

type stepOutput struct {
	diff  rules.Diff
	moves grid.Neighbors[rules.Move]
}

// band is a contiguous range of cell indices handled by one worker, with a
// random source only that worker touches.
type band struct {
	lo, hi int
	rng    *rand.Rand
	census Census
	events Events
}

type Engine struct {
	cfg Config

	mu    sync.RWMutex
	cells *grid.Grid[cell.Cell]
	out   []stepOutput
	bands []*band
	tick  uint64

	paused atomic.Bool
}

func New(cfg Config) (*Engine, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	if !(cfg.InitialOrganisms >= 0 && cfg.InitialOrganisms <= 1) {
		return nil, fmt.Errorf("initial organism fraction must be in [0,1], got %v", cfg.InitialOrganisms)
	}
	cells, err := grid.New[cell.Cell](cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	e := &Engine{
		cfg:   cfg,
		cells: cells,
		out:   make([]stepOutput, cells.Len()),
	}
	e.bands = makeBands(cells.Len(), cfg.Workers, cfg.Seed)

	if cfg.InitialOrganisms > 0 {
		bp := cfg.Rules.BrainParams()
		for _, b := range e.bands {
			for i := b.lo; i < b.hi; i++ {
				if b.rng.Float64() < cfg.InitialOrganisms {
					cells.SetIndex(i, cell.NewLife(brain.NewRandom(b.rng, bp), cell.NoBlock))
				}
			}
		}
	}
	return e, nil
}

func makeBands(n, workers int, seed uint64) []*band {
	if workers > n {
		workers = n
	}
	master := rand.New(rand.NewPCG(seed, seed^0xD1B54A32D192ED03))
	bands := make([]*band, 0, workers)
	size := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += size {
		bands = append(bands, &band{
			lo:  lo,
			hi:  min(lo+size, n),
			rng: rand.New(rand.NewPCG(master.Uint64(), master.Uint64())),
		})
	}
	return bands
}

func (e *Engine) Config() Config { return e.cfg }

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

// Set replaces one cell between ticks.
func (e *Engine) Set(x, y int, c cell.Cell) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cells.Set(x, y, c)
}

// At returns one cell between ticks.
func (e *Engine) At(x, y int) cell.Cell {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cells.At(x, y)
}

// View gives fn read-only access to the grid between ticks. fn must not
// retain the grid or write to it.
func (e *Engine) View(fn func(g *grid.Grid[cell.Cell])) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.cells)
}

func (e *Engine) Pause()         { e.paused.Store(true) }
func (e *Engine) Resume()        { e.paused.Store(false) }
func (e *Engine) TogglePause()   { e.paused.Store(!e.paused.Load()) }
func (e *Engine) IsPaused() bool { return e.paused.Load() }

// Tick advances the simulation by one tick. ctx is only checked before the
// tick starts; cancelling it never interrupts a started tick.
//
// The grid is undefined after an ErrInvariant: the update pass may have
// stopped with some bands applied and others not. Callers should stop the
// run rather than read or tick it further.
func (e *Engine) Tick(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	if err := e.pass("step", e.stepBand); err != nil {
		return Stats{}, err
	}
	if err := e.pass("update", e.updateBand); err != nil {
		return Stats{}, err
	}
	e.tick++

	st := Stats{Tick: e.tick, Duration: time.Since(start)}
	for _, b := range e.bands {
		st.Census.add(b.census)
		st.Events.add(b.events)
	}
	return st, nil
}

// pass runs fn over every band concurrently and waits for all of them. A
// panic inside fn is converted to ErrInvariant.
func (e *Engine) pass(name string, fn func(*band)) error {
	var g errgroup.Group
	for _, b := range e.bands {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("tick %d %s pass, cells [%d,%d): %v: %w", e.tick+1, name, b.lo, b.hi, r, ErrInvariant)
				}
			}()
			fn(b)
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) stepBand(b *band) {
	p := e.cfg.Rules
	for i := b.lo; i < b.hi; i++ {
		c := e.cells.AtIndex(i)
		if !c.IsOrganism() {
			e.out[i] = stepOutput{}
			continue
		}
		diff, moves := rules.Step(c, e.cells.Neighbors(i), p)
		e.out[i] = stepOutput{diff: diff, moves: moves}
	}
}

func (e *Engine) updateBand(b *band) {
	p := e.cfg.Rules
	b.census = Census{}
	b.events = Events{}
	for i := b.lo; i < b.hi; i++ {
		var incoming grid.Neighbors[rules.Move]
		for _, d := range grid.Directions {
			n := e.cells.NeighborIndex(i, d)
			incoming[d] = e.out[n].moves[d.Opposite()]
		}
		c := e.cells.Ptr(i)
		b.events.observe(rules.Update(c, e.out[i].diff, incoming, p, b.rng))
		b.census.observe(c)
	}
}

// Run steps until ctx is cancelled, maxTicks ticks have run (0 means no
// limit), or a tick fails. onTick, if set, is called after every tick.
// While paused, Run idles without stepping.
func (e *Engine) Run(ctx context.Context, maxTicks uint64, onTick func(Stats)) error {
	var ran uint64
	for maxTicks == 0 || ran < maxTicks {
		if e.paused.Load() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}
		st, err := e.Tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ran++
		if onTick != nil {
			onTick(st)
		}
	}
	return nil
}

// Census counts the current population without stepping.
func (e *Engine) Census() Census {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var c Census
	e.cells.Each(func(_ int, v *cell.Cell) { c.observe(v) })
	return c
}
