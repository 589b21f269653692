package rules

import (
	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
)

// Step is the read-only phase for one cell. It senses the neighbors, runs
// the brain, decodes the output, and returns the cell's own Diff plus one
// Move per direction. Neither c nor any neighbor is modified.
//
// In each direction at most one Move is emitted, checked in order: the
// chosen move, then incubation, then drop (or destroy).
func Step(c cell.Cell, neighbors grid.Neighbors[*cell.Cell], p Params) (Diff, grid.Neighbors[Move]) {
	var moves grid.Neighbors[Move]
	life, ok := c.Organism()
	if !ok {
		return Diff{}, moves
	}

	next := life.Brain.Think(SenseInput(neighbors, life.Holding, p.Variant))
	dec := Decode(next.Output(), p.Variant)

	dropped := false
	for _, d := range grid.Directions {
		switch {
		case dec.HasMove && d == dec.Move:
			// filled in below once the outgoing inventory is known
		case dec.Incubate[d]:
			moves[d] = Incubate(next.Clone())
		case p.Variant == VariantBlocks && dec.HasDrop && d == dec.Drop && life.Holding != cell.NoBlock:
			moves[d] = Drop(life.Holding)
			dropped = true
		case p.Variant == VariantBrainOnly && dec.Destroy[d]:
			moves[d] = Destroy()
		}
	}

	if dec.HasMove {
		// Choosing a drop empties the mover's hands even when the drop
		// itself was not emitted.
		carried := life.Holding
		if p.Variant == VariantBlocks && dec.HasDrop {
			carried = cell.NoBlock
		}
		moves[dec.Move] = Enter(next.Clone(), carried)
		return Diff{Kind: DiffDestroy}, moves
	}

	keep := life.Holding
	if dropped {
		keep = cell.NoBlock
	}
	return UpdateDiff(next.Hiddens, keep), moves
}

// SenseInput builds the input vector: one signal per neighbor in direction
// order, then the held-block scalar for VariantBlocks.
func SenseInput(neighbors grid.Neighbors[*cell.Cell], holding cell.Block, v Variant) []float64 {
	input := make([]float64, 0, v.InputWidth())
	for _, n := range neighbors {
		if n == nil {
			input = append(input, cell.EmptySignal)
			continue
		}
		input = append(input, n.Signal())
	}
	if v == VariantBlocks {
		input = append(input, cell.HoldingSignal(holding))
	}
	return input
}
