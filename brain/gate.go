package brain

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Gate is an affine map: hidden·h + input·x + bias.
type Gate struct {
	hidden *mat.Dense    // HiddenWidth x HiddenWidth
	input  *mat.Dense    // HiddenWidth x input width
	bias   *mat.VecDense // HiddenWidth
}

// NewGate builds a gate from explicit parameters. The matrices are used
// as-is and must not be modified afterwards.
func NewGate(hidden, input *mat.Dense, bias *mat.VecDense) (Gate, error) {
	hr, hc := hidden.Dims()
	if hr != HiddenWidth || hc != HiddenWidth {
		return Gate{}, fmt.Errorf("hidden matrix must be %dx%d, got %dx%d", HiddenWidth, HiddenWidth, hr, hc)
	}
	ir, ic := input.Dims()
	if ir != HiddenWidth || ic == 0 {
		return Gate{}, fmt.Errorf("input matrix must be %dxN, got %dx%d", HiddenWidth, ir, ic)
	}
	if bias.Len() != HiddenWidth {
		return Gate{}, fmt.Errorf("bias must have length %d, got %d", HiddenWidth, bias.Len())
	}
	return Gate{hidden: hidden, input: input, bias: bias}, nil
}

func newRandomGate(rng *rand.Rand, inputWidth int, p Params) Gate {
	return Gate{
		hidden: mat.NewDense(HiddenWidth, HiddenWidth, uniform(rng, HiddenWidth*HiddenWidth, p.WeightBound)),
		input:  mat.NewDense(HiddenWidth, inputWidth, uniform(rng, HiddenWidth*inputWidth, p.WeightBound)),
		bias:   mat.NewVecDense(HiddenWidth, uniform(rng, HiddenWidth, p.BiasBound)),
	}
}

func (g Gate) inputWidth() int {
	_, c := g.input.Dims()
	return c
}

func (g Gate) linear(h, x mat.Vector) *mat.VecDense {
	var out, in mat.VecDense
	out.MulVec(g.hidden, h)
	in.MulVec(g.input, x)
	out.AddVec(&out, &in)
	out.AddVec(&out, g.bias)
	return &out
}

func (g Gate) clone() Gate {
	return Gate{
		hidden: mat.DenseCopyOf(g.hidden),
		input:  mat.DenseCopyOf(g.input),
		bias:   mat.VecDenseCopyOf(g.bias),
	}
}

// blocks returns the raw parameter storage with its bound, in a fixed order.
func (g Gate) blocks(m Mutation) [3]paramBlock {
	return [3]paramBlock{
		{data: g.hidden.RawMatrix().Data, bound: m.WeightBound},
		{data: g.input.RawMatrix().Data, bound: m.WeightBound},
		{data: g.bias.RawVector().Data, bound: m.BiasBound},
	}
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func uniform(rng *rand.Rand, n int, bound float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * bound
	}
	return out
}
