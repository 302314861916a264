package fuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-jpeg-fuzz/codec"
)

// candidateSets are the factor values reachable per axis: one shared
// maximum in [1,4], shifted right by up to its bit length.
var candidateSets = [][]int{
	{1},
	{2, 1},
	{3, 1},
	{4, 2, 1},
}

func subsetOfAny(values map[int]bool) bool {
	for _, set := range candidateSets {
		ok := true
		for v := range values {
			found := false
			for _, c := range set {
				if v == c {
					found = true
					break
				}
			}
			if !found {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestResolveSamplingFactorsBudget(t *testing.T) {
	for seed := int64(0); seed < 2000; seed++ {
		src := NewSourceSeed(seed)
		factors, total := ResolveSamplingFactors(src)

		sum := 0
		for _, f := range factors {
			require.GreaterOrEqual(t, f.H, 1, "seed %d", seed)
			require.LessOrEqual(t, f.H, 4, "seed %d", seed)
			require.GreaterOrEqual(t, f.V, 1, "seed %d", seed)
			require.LessOrEqual(t, f.V, 4, "seed %d", seed)
			sum += f.Blocks()
		}
		require.Equal(t, sum, total, "seed %d", seed)
		require.LessOrEqual(t, total, codec.MaxBlocksPerMCU, "seed %d", seed)
	}
}

func TestResolveSamplingFactorsCandidates(t *testing.T) {
	// All components share one maximum per axis, so the observed values
	// on an axis must fit inside a single candidate set.
	for seed := int64(0); seed < 2000; seed++ {
		src := NewSourceSeed(seed)
		factors, _ := ResolveSamplingFactors(src)

		hs := map[int]bool{}
		vs := map[int]bool{}
		for _, f := range factors {
			hs[f.H] = true
			vs[f.V] = true
		}
		assert.True(t, subsetOfAny(hs), "seed %d: horizontal %v", seed, hs)
		assert.True(t, subsetOfAny(vs), "seed %d: vertical %v", seed, vs)
	}
}

func TestResolveSamplingFactorsOverrides(t *testing.T) {
	// An unconstrained 4x-heavy draw totals more than the budget, so
	// overrides to 1x1 must show up somewhere in a large sample.
	sawOverride := false
	sawLarge := false
	for seed := int64(0); seed < 2000; seed++ {
		src := NewSourceSeed(seed)
		factors, total := ResolveSamplingFactors(src)

		if factors[0].Blocks() >= 8 {
			sawLarge = true
			// Whatever the first component took, the rest fit.
			require.LessOrEqual(t, total, codec.MaxBlocksPerMCU)
			if factors[1] == (codec.SamplingFactor{H: 1, V: 1}) &&
				factors[2] == (codec.SamplingFactor{H: 1, V: 1}) {
				sawOverride = true
			}
		}
	}
	assert.True(t, sawLarge, "expected at least one 8+ block first component")
	assert.True(t, sawOverride, "expected budget overrides to trigger")
}

func TestResolveSamplingFactorsDeterministic(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		a, atot := ResolveSamplingFactors(NewSourceSeed(seed))
		b, btot := ResolveSamplingFactors(NewSourceSeed(seed))
		assert.Equal(t, a, b)
		assert.Equal(t, atot, btot)
	}
}

func TestPickDimensionsBounds(t *testing.T) {
	src := NewSourceSeed(7)
	for i := 0; i < 500; i++ {
		d, err := PickDimensions(src, 64, 48)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d.Width, 1)
		assert.LessOrEqual(t, d.Width, 64)
		assert.GreaterOrEqual(t, d.Height, 1)
		assert.LessOrEqual(t, d.Height, 48)
	}
}

func TestPickDimensionsUnit(t *testing.T) {
	src := NewSourceSeed(3)
	for i := 0; i < 100; i++ {
		d, err := PickDimensions(src, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, Dimensions{Width: 1, Height: 1}, d)
	}
}

func TestPickDimensionsInvalid(t *testing.T) {
	src := NewSourceSeed(1)
	_, err := PickDimensions(src, 0, 10)
	assert.ErrorIs(t, err, codec.ErrInvalidDimensions)
	_, err = PickDimensions(src, 10, 0)
	assert.ErrorIs(t, err, codec.ErrInvalidDimensions)
}

func TestPickOptionsDomains(t *testing.T) {
	src := NewSourceSeed(11)
	for i := 0; i < 500; i++ {
		opts := PickOptions(src)
		assert.GreaterOrEqual(t, opts.Quality, 0)
		assert.LessOrEqual(t, opts.Quality, 99)
		assert.GreaterOrEqual(t, opts.RestartInterval, 0)
		assert.LessOrEqual(t, opts.RestartInterval, 7)
	}
}
