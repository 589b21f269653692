// Package brain implements the organisms' recurrent networks: a stack of
// minimal gated units with a forget gate and an output gate per layer.
//
// Networks are immutable once built. Mutation returns a new Network that
// shares every layer it did not touch, so clones of a parent brain keep
// pointing at the same weights until one of them actually changes.
package brain

import "fmt"

// HiddenWidth is the width of every layer's hidden vector and of the
// network output.
const HiddenWidth = 32

// Params describes the shape and parameter bounds of freshly built networks.
type Params struct {
	// InputWidth is the width of the vector fed to the input layer.
	InputWidth int
	// InternalLayers is the number of layers stacked after the input layer.
	InternalLayers int
	// WeightBound bounds every matrix entry to [-WeightBound, WeightBound).
	WeightBound float64
	// BiasBound bounds every bias entry. It is larger than WeightBound so
	// gates can saturate.
	BiasBound float64
	// HiddenInit is the magnitude of the random initial hidden state.
	// Zero starts organisms from an all-zero (neutral) state.
	HiddenInit float64
}

// DefaultParams returns the parameters used by the simulator for the given
// input width.
func DefaultParams(inputWidth int) Params {
	return Params{
		InputWidth:     inputWidth,
		InternalLayers: 1,
		WeightBound:    1.0,
		BiasBound:      4.0,
		HiddenInit:     0.1,
	}
}

func (p Params) Validate() error {
	if p.InputWidth <= 0 {
		return fmt.Errorf("input width must be positive, got %d", p.InputWidth)
	}
	if p.InternalLayers < 0 {
		return fmt.Errorf("internal layers must be >= 0, got %d", p.InternalLayers)
	}
	if !(p.WeightBound > 0) || !(p.BiasBound > 0) {
		return fmt.Errorf("parameter bounds must be positive, got weight=%v bias=%v", p.WeightBound, p.BiasBound)
	}
	if p.HiddenInit < 0 {
		return fmt.Errorf("hidden init must be >= 0, got %v", p.HiddenInit)
	}
	return nil
}

// Mutation configures the replacement mutation applied every tick.
type Mutation struct {
	// Lambda is the per-entry mutation rate; each parameter block draws
	// Poisson(Lambda*size) replacement events.
	Lambda      float64
	WeightBound float64
	BiasBound   float64
}

// MutationFor returns the mutation settings matching the bounds in p.
func (p Params) MutationFor(lambda float64) Mutation {
	return Mutation{Lambda: lambda, WeightBound: p.WeightBound, BiasBound: p.BiasBound}
}
