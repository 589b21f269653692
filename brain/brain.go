package brain

import "math/rand/v2"

// Brain is an organism's network plus its recurrent working memory.
type Brain struct {
	Network Network
	Hiddens Hiddens
}

// NewRandom builds a brain with random weights and initial hidden state.
func NewRandom(rng *rand.Rand, p Params) Brain {
	n := NewRandomNetwork(rng, p)
	return Brain{
		Network: n,
		Hiddens: NewHiddens(rng, n.NumLayers(), p.HiddenInit),
	}
}

// Think runs one forward pass and returns the brain with its new hidden
// state. b is not modified.
func (b Brain) Think(input []float64) Brain {
	return Brain{Network: b.Network, Hiddens: b.Network.Apply(input, b.Hiddens)}
}

func (b Brain) Output() []float64 { return b.Hiddens.Output() }

// Clone returns a brain for an offspring or a moving organism. Network
// layers and hidden vectors are immutable, so the clone shares them.
func (b Brain) Clone() Brain {
	return Brain{Network: b.Network, Hiddens: b.Hiddens}
}

// Mutate rebinds b to a mutated network when at least one parameter was
// replaced. It reports whether anything changed.
func (b *Brain) Mutate(m Mutation, rng *rand.Rand) bool {
	n, changed := b.Network.Mutated(m, rng)
	if changed {
		b.Network = n
	}
	return changed
}
