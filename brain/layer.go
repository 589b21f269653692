package brain

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Layer is a minimal gated unit. The forget gate alone decides how much of
// the previous hidden state survives; the rest is replaced by the output
// gate's candidate:
//
//	f  = sigmoid(forget(h, x))
//	r  = f * h
//	g  = tanh(output(r, x))
//	h' = r + (1 - f) * g
type Layer struct {
	forget Gate
	output Gate
}

// NewLayer builds a layer from two gates with the same input width.
func NewLayer(forget, output Gate) (*Layer, error) {
	if forget.inputWidth() != output.inputWidth() {
		return nil, fmt.Errorf("gate input widths differ: forget=%d output=%d", forget.inputWidth(), output.inputWidth())
	}
	return &Layer{forget: forget, output: output}, nil
}

func newRandomLayer(rng *rand.Rand, inputWidth int, p Params) *Layer {
	return &Layer{
		forget: newRandomGate(rng, inputWidth, p),
		output: newRandomGate(rng, inputWidth, p),
	}
}

// InputWidth is the width of the vector this layer consumes.
func (l *Layer) InputWidth() int { return l.forget.inputWidth() }

// Apply computes the next hidden vector. Neither argument is modified.
func (l *Layer) Apply(hidden, input []float64) []float64 {
	if len(hidden) != HiddenWidth {
		panic(fmt.Sprintf("brain: hidden vector has width %d, want %d", len(hidden), HiddenWidth))
	}
	if len(input) != l.InputWidth() {
		panic(fmt.Sprintf("brain: input vector has width %d, want %d", len(input), l.InputWidth()))
	}

	h := mat.NewVecDense(HiddenWidth, hidden)
	x := mat.NewVecDense(len(input), input)

	f := l.forget.linear(h, x).RawVector().Data
	remembered := make([]float64, HiddenWidth)
	for i := range f {
		f[i] = sigmoid(f[i])
		remembered[i] = f[i] * hidden[i]
	}

	g := l.output.linear(mat.NewVecDense(HiddenWidth, remembered), x).RawVector().Data
	next := remembered
	for i := range next {
		next[i] += (1 - f[i]) * math.Tanh(g[i])
	}
	return next
}

// mutated returns a mutated copy of l, or nil when no replacement event
// was drawn. Event counts are drawn before copying so unchanged layers
// never allocate.
func (l *Layer) mutated(m Mutation, rng *rand.Rand) *Layer {
	blocks := l.blocks(m)
	var counts [6]int
	total := 0
	for i, b := range blocks {
		counts[i] = eventCount(m.Lambda, len(b.data), rng)
		total += counts[i]
	}
	if total == 0 {
		return nil
	}

	next := &Layer{forget: l.forget.clone(), output: l.output.clone()}
	for i, b := range next.blocks(m) {
		replace(b, counts[i], rng)
	}
	return next
}

func (l *Layer) blocks(m Mutation) [6]paramBlock {
	f := l.forget.blocks(m)
	o := l.output.blocks(m)
	return [6]paramBlock{f[0], f[1], f[2], o[0], o[1], o[2]}
}

// Size is the number of scalar parameters in the layer.
func (l *Layer) Size() int {
	n := 0
	for _, b := range l.blocks(Mutation{}) {
		n += len(b.data)
	}
	return n
}
