package viewer

import (
	"fmt"
	"strings"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
)

// Glyph returns the single-character form of a cell used by Board.
//
//	.  empty       B  Birth block   D  Death block
//	O  organism    b  organism holding Birth   d  organism holding Death
func Glyph(c cell.Cell) byte {
	switch c.Kind {
	case cell.KindOrganism:
		switch c.Life.Holding {
		case cell.Birth:
			return 'b'
		case cell.Death:
			return 'd'
		}
		return 'O'
	case cell.KindBlock:
		if c.Block == cell.Birth {
			return 'B'
		}
		return 'D'
	default:
		return '.'
	}
}

// Board renders the grid as ASCII with the top row (highest y) first.
func Board(g *grid.Grid[cell.Cell]) string {
	var sb strings.Builder
	sb.Grow((g.Width() + 1) * g.Height())
	for y := g.Height() - 1; y >= 0; y-- {
		for x := range g.Width() {
			sb.WriteByte(Glyph(g.At(x, y)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Trace is Board with a header naming the tick.
func Trace(tick uint64, g *grid.Grid[cell.Cell]) string {
	return fmt.Sprintf("=== TRACE tick %d (%dx%d) ===\n%s", tick, g.Width(), g.Height(), Board(g))
}
