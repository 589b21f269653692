package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
	"github.com/brensch/evoblock/rules"
	"gonum.org/v1/gonum/mat"
)

func quietRules() rules.Params {
	p := rules.DefaultParams()
	p.Lambda = 0
	p.SpawnOrganism = 0
	p.SpawnBirth = 0
	p.SpawnDeath = 0
	return p
}

func newTestEngine(t *testing.T, w, h, workers int, p rules.Params) *Engine {
	t.Helper()
	e, err := New(Config{Width: w, Height: h, Workers: workers, Seed: 1, Rules: p})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// scripted builds a brain whose output is ~+1 at the given indices and ~-1
// elsewhere after every step, whatever it senses.
func scripted(t *testing.T, v rules.Variant, active ...int) brain.Brain {
	t.Helper()
	gate := func(bias []float64) brain.Gate {
		g, err := brain.NewGate(
			mat.NewDense(brain.HiddenWidth, brain.HiddenWidth, nil),
			mat.NewDense(brain.HiddenWidth, v.InputWidth(), nil),
			mat.NewVecDense(brain.HiddenWidth, bias),
		)
		if err != nil {
			t.Fatalf("NewGate: %v", err)
		}
		return g
	}
	forget := make([]float64, brain.HiddenWidth)
	output := make([]float64, brain.HiddenWidth)
	for i := range forget {
		forget[i] = -20
		output[i] = -10
	}
	for _, i := range active {
		output[i] = 10
	}
	l, err := brain.NewLayer(gate(forget), gate(output))
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	n, err := brain.NewNetwork(l)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	return brain.Brain{Network: n, Hiddens: brain.NewHiddens(nil, 1, 0)}
}

// board renders the grid top row first: O organism, B/D blocks, . empty.
func board(e *Engine) string {
	var sb strings.Builder
	e.View(func(g *grid.Grid[cell.Cell]) {
		for y := g.Height() - 1; y >= 0; y-- {
			for x := range g.Width() {
				c := g.At(x, y)
				switch {
				case c.IsOrganism():
					sb.WriteByte('O')
				case c.IsBlock(cell.Birth):
					sb.WriteByte('B')
				case c.IsBlock(cell.Death):
					sb.WriteByte('D')
				default:
					sb.WriteByte('.')
				}
			}
			sb.WriteByte('\n')
		}
	})
	return sb.String()
}

func TestMoveRightScenario(t *testing.T) {
	e := newTestEngine(t, 5, 5, 2, quietRules())
	mover := scripted(t, rules.VariantBlocks, 8+int(grid.Right))
	e.Set(2, 2, cell.NewLife(mover, cell.NoBlock))

	before := board(e)
	st, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if got := e.At(2, 2); !got.IsEmpty() {
		t.Errorf("origin = %v, want Empty\nbefore:\n%s\nafter:\n%s", got, before, board(e))
	}
	got := e.At(3, 2)
	life, ok := got.Organism()
	if !ok {
		t.Fatalf("right neighbor = %v, want organism\nafter:\n%s", got, board(e))
	}
	if life.Holding != cell.NoBlock {
		t.Errorf("holding = %v, want None", life.Holding)
	}

	want := mover.Think(make([]float64, rules.VariantBlocks.InputWidth())).Output()
	out := life.Brain.Output()
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("output[%d] = %v, want post-inference %v", i, out[i], want[i])
		}
	}
	if st.Census.Organisms != 1 || st.Events.Entered != 1 || st.Events.Vacated != 1 {
		t.Errorf("stats = %+v", st)
	}
	if e.Ticks() != 1 {
		t.Errorf("Ticks = %d, want 1", e.Ticks())
	}
}

func TestIncubationScenarios(t *testing.T) {
	incubateRight := 16 + int(grid.Right)
	incubateLeft := 16 + int(grid.Left)

	t.Run("single incubate hatches", func(t *testing.T) {
		e := newTestEngine(t, 5, 5, 1, quietRules())
		parent := scripted(t, rules.VariantBlocks, incubateRight)
		e.Set(1, 2, cell.NewLife(parent, cell.NoBlock))
		e.Set(2, 2, cell.NewBlock(cell.Birth))

		st, err := e.Tick(context.Background())
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		child := e.At(2, 2)
		life, ok := child.Organism()
		if !ok || life.Holding != cell.NoBlock {
			t.Fatalf("birth cell = %v, want Organism(holding=None)\n%s", child, board(e))
		}
		if !e.At(1, 2).IsOrganism() {
			t.Errorf("parent disappeared\n%s", board(e))
		}
		if st.Events.Incubated != 1 || st.Census.Organisms != 2 || st.Census.BirthBlocks != 0 {
			t.Errorf("stats = %+v", st)
		}
	})

	t.Run("two incubates obliterate", func(t *testing.T) {
		e := newTestEngine(t, 5, 5, 3, quietRules())
		e.Set(1, 2, cell.NewLife(scripted(t, rules.VariantBlocks, incubateRight), cell.NoBlock))
		e.Set(3, 2, cell.NewLife(scripted(t, rules.VariantBlocks, incubateLeft), cell.NoBlock))
		e.Set(2, 2, cell.NewBlock(cell.Birth))

		st, err := e.Tick(context.Background())
		if err != nil {
			t.Fatalf("Tick: %v", err)
		}
		if got := e.At(2, 2); !got.IsEmpty() {
			t.Fatalf("birth cell = %v, want Empty\n%s", got, board(e))
		}
		if st.Events.Obliterated != 1 {
			t.Errorf("obliterated = %d, want 1", st.Events.Obliterated)
		}
	})
}

func TestWrapsAroundEdges(t *testing.T) {
	e := newTestEngine(t, 4, 3, 2, quietRules())
	e.Set(3, 0, cell.NewLife(scripted(t, rules.VariantBlocks, 8+int(grid.DownRight)), cell.NoBlock))

	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !e.At(0, 2).IsOrganism() {
		t.Fatalf("organism did not wrap to (0,2)\n%s", board(e))
	}
}

// snapshot records each cell's kind and output so two runs can be compared
// bit for bit.
func snapshot(e *Engine) []string {
	var out []string
	e.View(func(g *grid.Grid[cell.Cell]) {
		g.Each(func(_ int, c *cell.Cell) {
			s := c.String()
			if life, ok := c.Organism(); ok {
				for _, v := range life.Brain.Output() {
					s += " " + strconv.FormatFloat(v, 'g', -1, 64)
				}
			}
			out = append(out, s)
		})
	})
	return out
}

func seedRandom(t *testing.T, e *Engine, seed uint64) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	bp := e.Config().Rules.BrainParams()
	for y := range e.Config().Height {
		for x := range e.Config().Width {
			switch r := rng.Float64(); {
			case r < 0.3:
				e.Set(x, y, cell.NewLife(brain.NewRandom(rng, bp), cell.NoBlock))
			case r < 0.4:
				e.Set(x, y, cell.NewBlock(cell.Birth))
			case r < 0.45:
				e.Set(x, y, cell.NewBlock(cell.Death))
			}
		}
	}
}

func TestWorkerCountDoesNotChangeOutcome(t *testing.T) {
	p := quietRules()
	single := newTestEngine(t, 24, 16, 1, p)
	multi := newTestEngine(t, 24, 16, 7, p)
	seedRandom(t, single, 99)
	seedRandom(t, multi, 99)

	ctx := context.Background()
	for tick := range 25 {
		a, err := single.Tick(ctx)
		if err != nil {
			t.Fatalf("single Tick: %v", err)
		}
		b, err := multi.Tick(ctx)
		if err != nil {
			t.Fatalf("multi Tick: %v", err)
		}
		if a.Census != b.Census || a.Events != b.Events {
			t.Fatalf("tick %d: stats diverged\n%+v\n%+v", tick, a, b)
		}
	}
	sa, sb := snapshot(single), snapshot(multi)
	for i := range sa {
		if sa[i] != sb[i] {
			t.Fatalf("cell %d diverged:\n%s\n%s", i, sa[i], sb[i])
		}
	}
}

func TestInvariantsHoldUnderChurn(t *testing.T) {
	for _, v := range []rules.Variant{rules.VariantBlocks, rules.VariantBrainOnly} {
		t.Run(v.String(), func(t *testing.T) {
			p := rules.DefaultParams()
			p.Variant = v
			p.Lambda = 0.01
			p.SpawnOrganism = 0.02
			p.SpawnBirth = 0.05
			p.SpawnDeath = 0.02
			e, err := New(Config{Width: 16, Height: 12, Workers: 4, Seed: 5, Rules: p, InitialOrganisms: 0.3})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for tick := range 40 {
				st, err := e.Tick(context.Background())
				if err != nil {
					t.Fatalf("tick %d: %v", tick, err)
				}
				c := st.Census
				if total := c.Organisms + c.BirthBlocks + c.DeathBlocks + c.Empty; total != 16*12 {
					t.Fatalf("tick %d: census covers %d cells", tick, total)
				}
				if c.HoldingBirth+c.HoldingDeath > c.Organisms {
					t.Fatalf("tick %d: more holders than organisms: %+v", tick, c)
				}
				e.View(func(g *grid.Grid[cell.Cell]) {
					g.Each(func(i int, c *cell.Cell) {
						if err := c.Validate(); err != nil {
							x, y := g.Coords(i)
							t.Fatalf("tick %d (%d,%d): %v", tick, x, y, err)
						}
					})
				})
				if census := e.Census(); census != c {
					t.Fatalf("tick %d: Census() = %+v, tick stats %+v", tick, census, c)
				}
			}
		})
	}
}

func TestTickPanicBecomesErrInvariant(t *testing.T) {
	e := newTestEngine(t, 4, 4, 2, quietRules())
	// A brain sized for the brain-only variant cannot read blocks-variant input.
	e.Set(1, 1, cell.NewLife(scripted(t, rules.VariantBrainOnly), cell.NoBlock))

	_, err := e.Tick(context.Background())
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("err = %v, want ErrInvariant", err)
	}
	if e.Ticks() != 0 {
		t.Errorf("failed tick was counted")
	}

	err = e.Run(context.Background(), 3, nil)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("Run err = %v, want ErrInvariant", err)
	}
}

func TestTickChecksContextFirst(t *testing.T) {
	e := newTestEngine(t, 4, 4, 1, quietRules())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if err := e.Run(ctx, 0, nil); err != nil {
		t.Fatalf("Run on cancelled ctx = %v, want nil", err)
	}
	if e.Ticks() != 0 {
		t.Errorf("Ticks = %d after cancelled run", e.Ticks())
	}
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	e := newTestEngine(t, 6, 6, 2, quietRules())
	var seen []uint64
	if err := e.Run(context.Background(), 5, func(st Stats) { seen = append(seen, st.Tick) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 5 || seen[0] != 1 || seen[4] != 5 {
		t.Fatalf("ticks seen = %v", seen)
	}
}

func TestPausedRunWaitsForContext(t *testing.T) {
	e := newTestEngine(t, 4, 4, 1, quietRules())
	e.Pause()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, 0, nil) }()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Ticks() != 0 {
		t.Errorf("paused engine ticked %d times", e.Ticks())
	}

	e.TogglePause()
	if e.IsPaused() {
		t.Errorf("TogglePause did not resume")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	bad := quietRules()
	bad.Lambda = -1
	cases := map[string]Config{
		"zero width":     {Width: 0, Height: 4, Rules: quietRules()},
		"negative rate":  {Width: 4, Height: 4, Rules: bad},
		"initial over 1": {Width: 4, Height: 4, Rules: quietRules(), InitialOrganisms: 1.5},
	}
	for name, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Errorf("%s: New succeeded", name)
		}
	}
}

func BenchmarkTick(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Seed = 3
	cfg.InitialOrganisms = 0.2
	e, err := New(cfg)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	b.ResetTimer()
	for range b.N {
		if _, err := e.Tick(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
