package cell

import "fmt"

// RGB is a color with channels in [0, 1].
type RGB [3]float64

var (
	birthColor = RGB{0, 1, 0}
	deathColor = RGB{1, 0, 0}
	emptyColor = RGB{0, 0, 0}
)

// Color maps a cell to its display color. Organisms show the first three
// entries of their output vector, lifted slightly so they never render as
// black. It only reads the cell.
func Color(c Cell) RGB {
	switch c.Kind {
	case KindOrganism:
		out := c.Life.Brain.Output()
		var rgb RGB
		for i := range rgb {
			if i < len(out) {
				rgb[i] = clamp01(out[i]*0.95 + 0.05)
			}
		}
		return rgb
	case KindBlock:
		if c.Block == Birth {
			return birthColor
		}
		return deathColor
	default:
		return emptyColor
	}
}

// Hex formats the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c[0]), channel(c[1]), channel(c[2]))
}

func channel(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
