package rules

import (
	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/cell"
)

type MoveKind uint8

const (
	MoveNothing MoveKind = iota
	MoveEnter
	MoveIncubate
	MoveDrop
	MoveDestroy
)

func (k MoveKind) String() string {
	switch k {
	case MoveNothing:
		return "Nothing"
	case MoveEnter:
		return "Enter"
	case MoveIncubate:
		return "Incubate"
	case MoveDrop:
		return "Drop"
	case MoveDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// Move is what a cell proposes to one neighbor during Step.
type Move struct {
	Kind MoveKind
	// Brain is the cloned brain carried by Enter and Incubate.
	Brain brain.Brain
	// Holding is the inventory an entering organism brings along.
	Holding cell.Block
	// Block is the dropped block.
	Block cell.Block
}

func Enter(b brain.Brain, holding cell.Block) Move {
	return Move{Kind: MoveEnter, Brain: b, Holding: holding}
}

func Incubate(b brain.Brain) Move { return Move{Kind: MoveIncubate, Brain: b} }
func Drop(b cell.Block) Move      { return Move{Kind: MoveDrop, Block: b} }
func Destroy() Move               { return Move{Kind: MoveDestroy} }

type DiffKind uint8

const (
	DiffNone DiffKind = iota
	DiffUpdate
	DiffDestroy
)

// Diff is what a cell's own Step asks Update to do to it.
type Diff struct {
	Kind    DiffKind
	Hiddens brain.Hiddens
	Holding cell.Block
}

func UpdateDiff(h brain.Hiddens, holding cell.Block) Diff {
	return Diff{Kind: DiffUpdate, Hiddens: h, Holding: holding}
}
