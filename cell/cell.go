// Package cell defines the contents of a single grid cell.
//
// A cell is empty, a bare block, or an organism. An organism may hold one
// block as inventory; holding a block is distinct from the cell being one.
package cell

import (
	"fmt"

	"github.com/brensch/evoblock/brain"
)

// Block is a passive marker. NoBlock doubles as "nothing held".
type Block uint8

const (
	NoBlock Block = iota
	Birth
	Death
)

func (b Block) String() string {
	switch b {
	case NoBlock:
		return "None"
	case Birth:
		return "Birth"
	case Death:
		return "Death"
	default:
		return fmt.Sprintf("Block(%d)", uint8(b))
	}
}

type Kind uint8

const (
	KindEmpty Kind = iota
	KindBlock
	KindOrganism
)

// Life is an organism: a brain plus at most one held block.
type Life struct {
	Brain   brain.Brain
	Holding Block
}

// Cell is the value stored at every grid position. Only the field matching
// Kind is meaningful; the constructors keep the others zeroed.
type Cell struct {
	Kind  Kind
	Block Block
	Life  Life
}

func Empty() Cell { return Cell{} }

func NewBlock(b Block) Cell {
	if b == NoBlock {
		return Cell{}
	}
	return Cell{Kind: KindBlock, Block: b}
}

func NewLife(b brain.Brain, holding Block) Cell {
	return Cell{Kind: KindOrganism, Life: Life{Brain: b, Holding: holding}}
}

func (c Cell) IsEmpty() bool           { return c.Kind == KindEmpty }
func (c Cell) IsOrganism() bool        { return c.Kind == KindOrganism }
func (c Cell) IsBlock(b Block) bool    { return c.Kind == KindBlock && c.Block == b }
func (c Cell) IsAnyBlock() bool        { return c.Kind == KindBlock }
func (c Cell) Holding() Block          { return c.Life.Holding }
func (c Cell) Organism() (Life, bool)  { return c.Life, c.Kind == KindOrganism }
func (c Cell) String() string          { return c.describe() }

// Give deposits a block. An organism keeps its identity and its inventory
// is overwritten; anything else becomes the bare block.
func (c *Cell) Give(b Block) {
	if b == NoBlock {
		return
	}
	if c.Kind == KindOrganism {
		c.Life.Holding = b
		return
	}
	*c = NewBlock(b)
}

// Validate reports a cell whose fields contradict its Kind.
func (c Cell) Validate() error {
	switch c.Kind {
	case KindEmpty:
		if c.Block != NoBlock || c.Life.Brain.Network.NumLayers() != 0 {
			return fmt.Errorf("empty cell carries data: %s", c.describe())
		}
	case KindBlock:
		if c.Block != Birth && c.Block != Death {
			return fmt.Errorf("block cell has invalid block %s", c.Block)
		}
		if c.Life.Brain.Network.NumLayers() != 0 || c.Life.Holding != NoBlock {
			return fmt.Errorf("block cell carries an organism: %s", c.describe())
		}
	case KindOrganism:
		if c.Block != NoBlock {
			return fmt.Errorf("organism is also a bare %s block", c.Block)
		}
		if c.Life.Brain.Network.NumLayers() == 0 {
			return fmt.Errorf("organism has no network")
		}
	default:
		return fmt.Errorf("unknown cell kind %d", c.Kind)
	}
	return nil
}

func (c Cell) describe() string {
	switch c.Kind {
	case KindEmpty:
		return "Empty"
	case KindBlock:
		return "Block(" + c.Block.String() + ")"
	case KindOrganism:
		return "Organism(holding=" + c.Life.Holding.String() + ")"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(c.Kind))
	}
}
