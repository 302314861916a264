// Package fuzz synthesizes randomized, structurally valid encoder
// configurations and pixel data for exercising a JPEG codec. Every
// randomized decision of a run flows from one seeded Source, so a
// failing case replays from its printed seed alone.
package fuzz

import (
	"math/rand"
	"time"
)

// Source is a seeded stream of bounded random integers.
type Source struct {
	seed int64
	rng  *rand.Rand
}

// NewSource seeds from the monotonic clock's nanosecond reading.
func NewSource() *Source {
	return NewSourceSeed(int64(time.Now().Nanosecond()))
}

// NewSourceSeed replays the run identified by seed.
func NewSourceSeed(seed int64) *Source {
	return &Source{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the value this source was seeded with. Callers must
// surface it before any randomized decision is consumed.
func (s *Source) Seed() int64 {
	return s.seed
}

// Intn returns a uniform integer in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// IntInRange returns a uniform integer in [lo, hi], both inclusive.
func (s *Source) IntInRange(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}
