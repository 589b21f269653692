package rules

import (
	"fmt"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/grid"
)

// Threshold is the activation a direction must exceed to be acted on.
const Threshold = 0.5

// Output vector zones, each one entry per direction.
const (
	moveZone     = 8
	incubateZone = 16
	lastZone     = 24
)

// Decision is the discrete action set decoded from an output vector.
type Decision struct {
	Move    grid.Direction
	HasMove bool

	Incubate [grid.NumDirections]bool

	// Drop is used by VariantBlocks.
	Drop    grid.Direction
	HasDrop bool

	// Destroy is used by VariantBrainOnly.
	Destroy [grid.NumDirections]bool
}

// Decode maps a brain output vector to a Decision. It is pure.
//
// The move and drop zones pick at most one direction: the highest
// activation above Threshold, with the lowest direction index winning ties.
// Incubate and destroy are independent per-direction flags.
func Decode(output []float64, v Variant) Decision {
	if len(output) < brain.HiddenWidth {
		panic(fmt.Sprintf("rules: output vector has width %d, want %d", len(output), brain.HiddenWidth))
	}
	var d Decision
	d.Move, d.HasMove = choose(output[moveZone : moveZone+grid.NumDirections])
	d.Incubate = flags(output[incubateZone : incubateZone+grid.NumDirections])
	last := output[lastZone : lastZone+grid.NumDirections]
	if v == VariantBrainOnly {
		d.Destroy = flags(last)
	} else {
		d.Drop, d.HasDrop = choose(last)
	}
	return d
}

func choose(zone []float64) (grid.Direction, bool) {
	best := -1
	for i, v := range zone {
		if v > Threshold && (best < 0 || v > zone[best]) {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return grid.Direction(best), true
}

func flags(zone []float64) [grid.NumDirections]bool {
	var out [grid.NumDirections]bool
	for i, v := range zone {
		out[i] = v > Threshold
	}
	return out
}
