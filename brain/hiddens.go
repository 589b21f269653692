package brain

import "math/rand/v2"

// Hiddens holds one HiddenWidth vector per layer. The vectors are never
// written after construction; Network.Apply always returns new ones.
type Hiddens [][]float64

// NewHiddens builds the initial state for a network with the given number
// of layers. A zero init gives the neutral all-zero state.
func NewHiddens(rng *rand.Rand, layers int, init float64) Hiddens {
	h := make(Hiddens, layers)
	for i := range h {
		if init > 0 && rng != nil {
			h[i] = uniform(rng, HiddenWidth, init)
		} else {
			h[i] = make([]float64, HiddenWidth)
		}
	}
	return h
}

// Output is the last layer's vector; it is both the organism's decision
// vector and its visible signal.
func (h Hiddens) Output() []float64 {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}
