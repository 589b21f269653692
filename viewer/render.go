package viewer

import (
	"strings"

	"github.com/brensch/evoblock/cell"
	"github.com/brensch/evoblock/grid"
	"github.com/charmbracelet/lipgloss"
)

const halfBlock = "▀"

// renderHalfBlocks draws two grid rows per terminal line: the upper cell is
// the glyph's foreground and the lower cell its background. At most cols
// columns and 2*rows grid rows are drawn, starting from the top of the grid.
func renderHalfBlocks(g *grid.Grid[cell.Cell], cols, rows int) string {
	width := min(g.Width(), cols)
	bottom := g.Height() - min(g.Height(), 2*rows)
	styles := map[[2]string]lipgloss.Style{}

	var sb strings.Builder
	for top := g.Height() - 1; top >= bottom; top -= 2 {
		for x := range width {
			upper := cell.Color(g.At(x, top)).Hex()
			lower := cell.Color(cell.Empty()).Hex()
			if top-1 >= bottom {
				lower = cell.Color(g.At(x, top-1)).Hex()
			}
			key := [2]string{upper, lower}
			st, ok := styles[key]
			if !ok {
				st = lipgloss.NewStyle().
					Foreground(lipgloss.Color(upper)).
					Background(lipgloss.Color(lower))
				styles[key] = st
			}
			sb.WriteString(st.Render(halfBlock))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
