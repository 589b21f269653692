package brain

import (
	"fmt"
	"math/rand/v2"
)

// Network is the ordered layer stack: one input layer followed by the
// internal layers. It is a small value type; copies share layers.
type Network struct {
	layers []*Layer
}

// NewNetwork assembles a network from explicit layers. The first layer is
// the input layer; every later layer must consume HiddenWidth inputs.
func NewNetwork(layers ...*Layer) (Network, error) {
	if len(layers) == 0 {
		return Network{}, fmt.Errorf("network needs at least an input layer")
	}
	for i, l := range layers[1:] {
		if l.InputWidth() != HiddenWidth {
			return Network{}, fmt.Errorf("internal layer %d has input width %d, want %d", i, l.InputWidth(), HiddenWidth)
		}
	}
	return Network{layers: append([]*Layer(nil), layers...)}, nil
}

// NewRandomNetwork draws every parameter uniformly within the bounds in p.
func NewRandomNetwork(rng *rand.Rand, p Params) Network {
	layers := make([]*Layer, 0, 1+p.InternalLayers)
	layers = append(layers, newRandomLayer(rng, p.InputWidth, p))
	for range p.InternalLayers {
		layers = append(layers, newRandomLayer(rng, HiddenWidth, p))
	}
	return Network{layers: layers}
}

func (n Network) NumLayers() int { return len(n.layers) }

// Layer returns layer i. Layers are immutable.
func (n Network) Layer(i int) *Layer { return n.layers[i] }

// InputWidth is the width of the vector the network senses.
func (n Network) InputWidth() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[0].InputWidth()
}

// Size is the total number of scalar parameters.
func (n Network) Size() int {
	total := 0
	for _, l := range n.layers {
		total += l.Size()
	}
	return total
}

// Apply runs one recurrent step and returns fresh hidden state. Each
// internal layer consumes the hidden vector just computed by the layer
// below it. prev is not modified.
func (n Network) Apply(input []float64, prev Hiddens) Hiddens {
	if len(prev) != len(n.layers) {
		panic(fmt.Sprintf("brain: hiddens have %d layers, network has %d", len(prev), len(n.layers)))
	}
	next := make(Hiddens, len(n.layers))
	x := input
	for i, l := range n.layers {
		next[i] = l.Apply(prev[i], x)
		x = next[i]
	}
	return next
}

// Mutated applies replacement mutation. When nothing changed it returns n
// itself and false, so callers keep sharing the existing layers. Otherwise
// it returns a network with a fresh layer slice: untouched layers are still
// shared, changed ones are new copies, and n is left intact for every other
// holder.
func (n Network) Mutated(m Mutation, rng *rand.Rand) (Network, bool) {
	var layers []*Layer
	for i, l := range n.layers {
		next := l.mutated(m, rng)
		if next == nil {
			continue
		}
		if layers == nil {
			layers = append([]*Layer(nil), n.layers...)
		}
		layers[i] = next
	}
	if layers == nil {
		return n, false
	}
	return Network{layers: layers}, true
}

// SharedLayers counts the layers n and o hold by reference in common.
func (n Network) SharedLayers(o Network) int {
	shared := 0
	for i := range min(len(n.layers), len(o.layers)) {
		if n.layers[i] == o.layers[i] {
			shared++
		}
	}
	return shared
}
