// Package rules holds the per-cell transition functions of the simulation.
//
// A tick has two phases. Step reads a cell and its neighbors and produces a
// Diff for the cell itself plus one Move per direction; it never writes.
// Update then applies a cell's own Diff and the eight Moves its neighbors
// addressed to it, resolves conflicts, and runs spawn-in and mutation.
package rules

import (
	"fmt"
	"math"

	"github.com/brensch/evoblock/brain"
	"github.com/brensch/evoblock/grid"
)

// Variant selects how the last decision zone is interpreted.
type Variant uint8

const (
	// VariantBlocks gives organisms an inventory slot; the last zone picks
	// a direction to drop the held block toward.
	VariantBlocks Variant = iota
	// VariantBrainOnly has no inventory sensing or dropping; the last zone
	// flags neighbors to destroy.
	VariantBrainOnly
)

func (v Variant) String() string {
	switch v {
	case VariantBlocks:
		return "blocks"
	case VariantBrainOnly:
		return "brain-only"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "blocks", "":
		return VariantBlocks, nil
	case "brain-only":
		return VariantBrainOnly, nil
	default:
		return 0, fmt.Errorf("unknown variant %q", s)
	}
}

// InputWidth is the width of the sensed vector: one signal per neighbor,
// plus the held-block scalar when organisms have inventory.
func (v Variant) InputWidth() int {
	if v == VariantBlocks {
		return grid.NumDirections + 1
	}
	return grid.NumDirections
}

// Params configures the transition functions.
type Params struct {
	Variant Variant
	// Brain shapes newly spawned networks. InputWidth is derived from
	// Variant and ignored here.
	Brain brain.Params
	// Lambda is the per-parameter mutation rate applied every tick.
	Lambda float64
	// Per-cell, per-tick Bernoulli rates of the spawn-in events.
	SpawnOrganism float64
	SpawnBirth    float64
	SpawnDeath    float64
}

// Base spawn rate and the multipliers applied to it.
const (
	DefaultLambda    = 0.001
	DefaultSpawnRate = 0.00001
)

func DefaultParams() Params {
	return Params{
		Variant:       VariantBlocks,
		Brain:         brain.DefaultParams(VariantBlocks.InputWidth()),
		Lambda:        DefaultLambda,
		SpawnOrganism: 1 * DefaultSpawnRate,
		SpawnBirth:    1000 * DefaultSpawnRate,
		SpawnDeath:    1 * DefaultSpawnRate,
	}
}

// BrainParams returns Brain with the input width matching the variant.
func (p Params) BrainParams() brain.Params {
	bp := p.Brain
	bp.InputWidth = p.Variant.InputWidth()
	return bp
}

func (p Params) Mutation() brain.Mutation {
	return p.BrainParams().MutationFor(p.Lambda)
}

func (p Params) Validate() error {
	if p.Variant != VariantBlocks && p.Variant != VariantBrainOnly {
		return fmt.Errorf("unknown variant %d", p.Variant)
	}
	if err := p.BrainParams().Validate(); err != nil {
		return fmt.Errorf("brain: %w", err)
	}
	if !(p.Lambda >= 0) || math.IsInf(p.Lambda, 0) {
		return fmt.Errorf("mutation lambda must be finite and >= 0, got %v", p.Lambda)
	}
	rates := []struct {
		name string
		v    float64
	}{
		{"spawn organism", p.SpawnOrganism},
		{"spawn birth", p.SpawnBirth},
		{"spawn death", p.SpawnDeath},
	}
	for _, r := range rates {
		if !(r.v >= 0 && r.v <= 1) {
			return fmt.Errorf("%s rate must be in [0,1], got %v", r.name, r.v)
		}
	}
	return nil
}
