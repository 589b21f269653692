package cell

// SignalIndex is the output entry an organism exposes to its neighbors.
const SignalIndex = 0

// Sentinels for non-organism neighbors. Organism signals come from a
// tanh-blended hidden state in [-1, 1], so these never collide with them.
const (
	EmptySignal = 0.0
	BirthSignal = 2.0
	DeathSignal = -2.0
)

// Signal is what a neighbor senses from this cell.
func (c Cell) Signal() float64 {
	switch c.Kind {
	case KindOrganism:
		out := c.Life.Brain.Output()
		if len(out) <= SignalIndex {
			return EmptySignal
		}
		return out[SignalIndex]
	case KindBlock:
		if c.Block == Birth {
			return BirthSignal
		}
		return DeathSignal
	default:
		return EmptySignal
	}
}

// HoldingSignal encodes an organism's inventory as one input scalar.
func HoldingSignal(b Block) float64 {
	switch b {
	case Birth:
		return 1.0
	case Death:
		return 0.5
	default:
		return 0.0
	}
}
