package rules

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
	"gonum.org/v1/gonum/mat"
)

// quietParams disables spawn-in and mutation so outcomes are deterministic.
func quietParams(v Variant) Params {
	p := DefaultParams()
	p.Variant = v
	p.Lambda = 0
	p.SpawnOrganism = 0
	p.SpawnBirth = 0
	p.SpawnDeath = 0
	return p
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

// scriptedBrain returns a single-layer brain whose output after one step is
// ~+1 at every index in active and ~-1 elsewhere, regardless of input. The
// forget gate is saturated shut so the previous state is discarded.
func scriptedBrain(t *testing.T, v Variant, active ...int) brain.Brain {
	t.Helper()
	width := v.InputWidth()

	constGate := func(bias []float64) brain.Gate {
		g, err := brain.NewGate(
			mat.NewDense(brain.HiddenWidth, brain.HiddenWidth, nil),
			mat.NewDense(brain.HiddenWidth, width, nil),
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

	layer, err := brain.NewLayer(constGate(forget), constGate(output))
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	n, err := brain.NewNetwork(layer)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	return brain.Brain{Network: n, Hiddens: brain.NewHiddens(nil, n.NumLayers(), 0)}
}

func randomBrain(t *testing.T, v Variant) brain.Brain {
	t.Helper()
	p := quietParams(v)
	return brain.NewRandom(testRNG(), p.BrainParams())
}

func moveSlot(d grid.Direction) int     { return moveZone + int(d) }
func incubateSlot(d grid.Direction) int { return incubateZone + int(d) }
func lastSlot(d grid.Direction) int     { return lastZone + int(d) }

func emptyNeighbors() grid.Neighbors[*cell.Cell] {
	return grid.NewNeighbors(func(grid.Direction) *cell.Cell {
		c := cell.Empty()
		return &c
	})
}

func inbox(moves map[grid.Direction]Move) grid.Neighbors[Move] {
	var in grid.Neighbors[Move]
	for d, m := range moves {
		in[d] = m
	}
	return in
}

func dumpMoves(moves grid.Neighbors[Move]) string {
	var b strings.Builder
	for _, d := range grid.Directions {
		if moves[d].Kind == MoveNothing {
			continue
		}
		b.WriteString(d.String())
		b.WriteByte('=')
		b.WriteString(moves[d].Kind.String())
		b.WriteByte(' ')
	}
	return b.String()
}
