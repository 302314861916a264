package fuzz

import (
	"math/bits"

	"github.com/cocosip/go-jpeg-fuzz/codec"
)

// ResolveSamplingFactors picks per-component sampling factors that stay
// within the MCU block budget.
//
// One shared maximum per axis is drawn from [1,4]; each component's
// candidate factor is that maximum right-shifted by a random amount up
// to its bit length. For power-of-two maxima this enumerates the exact
// divisors ({4,2,1} for 4); for a maximum of 3 it yields {3,1}. The
// shift arithmetic is kept as is: reference outputs depend on this
// exact candidate distribution, including the non-power-of-two case.
//
// A single linear pass enforces the budget: whenever the candidate plus
// one block for every component still to come would exceed the limit,
// the component falls back to 1x1 instead of re-drawing. The factors
// and the final block total (always <= codec.MaxBlocksPerMCU) are
// returned.
func ResolveSamplingFactors(src *Source) ([3]codec.SamplingFactor, int) {
	maxH := src.IntInRange(1, 4)
	maxV := src.IntInRange(1, 4)

	var factors [3]codec.SamplingFactor
	total := 0
	for i := range factors {
		h := maxH >> uint(src.Intn(bits.Len(uint(maxH))))
		v := maxV >> uint(src.Intn(bits.Len(uint(maxV))))

		remaining := len(factors) - 1 - i
		if total+h*v+remaining > codec.MaxBlocksPerMCU {
			h, v = 1, 1
		}

		factors[i] = codec.SamplingFactor{H: h, V: v}
		total += h * v
	}
	return factors, total
}
