package brain

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

type paramBlock struct {
	data  []float64
	bound float64
}

// eventCount draws the number of replacement events for a block of size
// entries. A negative or NaN rate is a corrupted configuration and panics.
func eventCount(lambda float64, size int, rng *rand.Rand) int {
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		panic(fmt.Sprintf("brain: invalid mutation rate %v", lambda))
	}
	if lambda == 0 || size == 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda * float64(size), Src: rng}.Rand())
}

// replace overwrites n uniformly chosen entries with fresh values in
// [-bound, bound).
func replace(b paramBlock, n int, rng *rand.Rand) {
	if n > 0 && len(b.data) == 0 {
		panic("brain: mutated empty parameter block")
	}
	for range n {
		b.data[rng.IntN(len(b.data))] = (rng.Float64()*2 - 1) * b.bound
	}
}
