package rules

import (
	"testing"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
)

func TestStepNonOrganismIsInert(t *testing.T) {
	for _, c := range []cell.Cell{cell.Empty(), cell.NewBlock(cell.Birth), cell.NewBlock(cell.Death)} {
		diff, moves := Step(c, emptyNeighbors(), quietParams(VariantBlocks))
		if diff.Kind != DiffNone {
			t.Errorf("%s: diff kind = %d, want none", c, diff.Kind)
		}
		if got := dumpMoves(moves); got != "" {
			t.Errorf("%s: unexpected moves %s", c, got)
		}
	}
}

func TestStepMoveRight(t *testing.T) {
	p := quietParams(VariantBlocks)
	b := scriptedBrain(t, VariantBlocks, moveSlot(grid.Right))
	c := cell.NewLife(b, cell.NoBlock)

	diff, moves := Step(c, emptyNeighbors(), p)
	t.Logf("moves: %s", dumpMoves(moves))

	if diff.Kind != DiffDestroy {
		t.Fatalf("diff kind = %d, want destroy", diff.Kind)
	}
	m := moves[grid.Right]
	if m.Kind != MoveEnter {
		t.Fatalf("Right move = %s, want Enter", m.Kind)
	}
	if m.Holding != cell.NoBlock {
		t.Fatalf("entering organism holds %s", m.Holding)
	}
	want := b.Think(SenseInput(emptyNeighbors(), cell.NoBlock, p.Variant)).Output()
	for i, v := range m.Brain.Output() {
		if v != want[i] {
			t.Fatalf("carried brain output[%d] = %v, want post-inference %v", i, v, want[i])
		}
	}
	if m.Brain.Network.SharedLayers(b.Network) != b.Network.NumLayers() {
		t.Fatal("carried brain should share the parent's layers")
	}
	for _, d := range grid.Directions {
		if d != grid.Right && moves[d].Kind != MoveNothing {
			t.Errorf("%s: unexpected %s", d, moves[d].Kind)
		}
	}
}

func TestStepMoveClaimsSlotBeforeIncubate(t *testing.T) {
	b := scriptedBrain(t, VariantBlocks,
		moveSlot(grid.Right),
		incubateSlot(grid.Right),
		incubateSlot(grid.Up),
	)
	_, moves := Step(cell.NewLife(b, cell.NoBlock), emptyNeighbors(), quietParams(VariantBlocks))

	if moves[grid.Right].Kind != MoveEnter {
		t.Fatalf("Right = %s, want Enter", moves[grid.Right].Kind)
	}
	if moves[grid.Up].Kind != MoveIncubate {
		t.Fatalf("Up = %s, want Incubate", moves[grid.Up].Kind)
	}
}

func TestStepDropWithInventory(t *testing.T) {
	b := scriptedBrain(t, VariantBlocks, lastSlot(grid.Down))
	diff, moves := Step(cell.NewLife(b, cell.Death), emptyNeighbors(), quietParams(VariantBlocks))

	if moves[grid.Down].Kind != MoveDrop || moves[grid.Down].Block != cell.Death {
		t.Fatalf("Down = %s(%s), want Drop(Death)", moves[grid.Down].Kind, moves[grid.Down].Block)
	}
	if diff.Kind != DiffUpdate || diff.Holding != cell.NoBlock {
		t.Fatalf("diff = %d holding %s, want update holding none", diff.Kind, diff.Holding)
	}
	if len(diff.Hiddens) != b.Network.NumLayers() {
		t.Fatalf("diff carries %d hidden layers", len(diff.Hiddens))
	}
}

func TestStepDropWithoutInventoryIsNothing(t *testing.T) {
	b := scriptedBrain(t, VariantBlocks, lastSlot(grid.Down))
	diff, moves := Step(cell.NewLife(b, cell.NoBlock), emptyNeighbors(), quietParams(VariantBlocks))
	if got := dumpMoves(moves); got != "" {
		t.Fatalf("unexpected moves %s", got)
	}
	if diff.Kind != DiffUpdate {
		t.Fatalf("diff kind = %d, want update", diff.Kind)
	}
}

func TestStepMoveAndDropLeavesInventoryBehind(t *testing.T) {
	b := scriptedBrain(t, VariantBlocks, moveSlot(grid.Left), lastSlot(grid.Right))
	diff, moves := Step(cell.NewLife(b, cell.Birth), emptyNeighbors(), quietParams(VariantBlocks))

	if diff.Kind != DiffDestroy {
		t.Fatalf("diff kind = %d, want destroy", diff.Kind)
	}
	if moves[grid.Right].Kind != MoveDrop {
		t.Fatalf("Right = %s, want Drop", moves[grid.Right].Kind)
	}
	if moves[grid.Left].Kind != MoveEnter || moves[grid.Left].Holding != cell.NoBlock {
		t.Fatalf("Left = %s holding %s, want Enter holding none", moves[grid.Left].Kind, moves[grid.Left].Holding)
	}
}

func TestStepDropBlockedByIncubateKeepsInventory(t *testing.T) {
	b := scriptedBrain(t, VariantBlocks, incubateSlot(grid.Up), lastSlot(grid.Up))
	diff, moves := Step(cell.NewLife(b, cell.Birth), emptyNeighbors(), quietParams(VariantBlocks))

	if moves[grid.Up].Kind != MoveIncubate {
		t.Fatalf("Up = %s, want Incubate", moves[grid.Up].Kind)
	}
	if diff.Holding != cell.Birth {
		t.Fatalf("holding = %s, want Birth kept", diff.Holding)
	}
}

func TestStepChosenDropEmptiesMoverEvenWhenBlocked(t *testing.T) {
	// blocked is the direction whose slot the drop lost.
	cases := []struct {
		name    string
		active  []int
		blocked grid.Direction
		want    MoveKind
	}{
		{"drop aimed at the move", []int{moveSlot(grid.Left), lastSlot(grid.Left)}, grid.Left, MoveEnter},
		{"drop slot taken by incubate", []int{moveSlot(grid.Left), incubateSlot(grid.Up), lastSlot(grid.Up)}, grid.Up, MoveIncubate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := scriptedBrain(t, VariantBlocks, tc.active...)
			diff, moves := Step(cell.NewLife(b, cell.Birth), emptyNeighbors(), quietParams(VariantBlocks))

			if diff.Kind != DiffDestroy {
				t.Fatalf("diff kind = %d, want destroy", diff.Kind)
			}
			if moves[tc.blocked].Kind != tc.want {
				t.Fatalf("%s = %s, want %s", tc.blocked, moves[tc.blocked].Kind, tc.want)
			}
			enter := moves[grid.Left]
			if enter.Kind != MoveEnter || enter.Holding != cell.NoBlock {
				t.Fatalf("Left = %s holding %s, want Enter holding None\n%s", enter.Kind, enter.Holding, dumpMoves(moves))
			}
			for _, d := range grid.Directions {
				if moves[d].Kind == MoveDrop {
					t.Fatalf("%s = Drop, want no drop emitted", d)
				}
			}
		})
	}
}

func TestStepMoverKeepsInventoryWithoutDrop(t *testing.T) {
	b := scriptedBrain(t, VariantBlocks, moveSlot(grid.Down))
	_, moves := Step(cell.NewLife(b, cell.Death), emptyNeighbors(), quietParams(VariantBlocks))
	if m := moves[grid.Down]; m.Kind != MoveEnter || m.Holding != cell.Death {
		t.Fatalf("Down = %s holding %s, want Enter holding Death", m.Kind, m.Holding)
	}
}

func TestStepBrainOnlyDestroy(t *testing.T) {
	b := scriptedBrain(t, VariantBrainOnly, lastSlot(grid.Up), lastSlot(grid.Down), moveSlot(grid.Down))
	_, moves := Step(cell.NewLife(b, cell.NoBlock), emptyNeighbors(), quietParams(VariantBrainOnly))

	if moves[grid.Up].Kind != MoveDestroy {
		t.Fatalf("Up = %s, want Destroy", moves[grid.Up].Kind)
	}
	if moves[grid.Down].Kind != MoveEnter {
		t.Fatalf("Down = %s, want Enter (move claims the slot)", moves[grid.Down].Kind)
	}
}

func TestSenseInput(t *testing.T) {
	birth := cell.NewBlock(cell.Birth)
	death := cell.NewBlock(cell.Death)
	n := emptyNeighbors()
	n[grid.Up] = &birth
	n[grid.Left] = &death
	n[grid.Down] = nil

	in := SenseInput(n, cell.Death, VariantBlocks)
	if len(in) != VariantBlocks.InputWidth() {
		t.Fatalf("width = %d", len(in))
	}
	if in[grid.Up] != cell.BirthSignal || in[grid.Left] != cell.DeathSignal || in[grid.Down] != cell.EmptySignal {
		t.Fatalf("signals = %v", in)
	}
	if in[grid.NumDirections] != cell.HoldingSignal(cell.Death) {
		t.Fatalf("holding scalar = %v", in[grid.NumDirections])
	}

	if got := len(SenseInput(n, cell.Death, VariantBrainOnly)); got != grid.NumDirections {
		t.Fatalf("brain-only width = %d", got)
	}
}
