// Package randutil builds the seeded generators used for shuffling.
package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Both PCG seeds are derived from the one value so a logged seed is enough to
// replay every shuffle of a session or simulation.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewTimeSeeded returns a generator seeded from the wall clock together with
// the seed it used.
func NewTimeSeeded() (*rand.Rand, int64) {
	seed := time.Now().UnixNano()
	return New(seed), seed
}

// FromOptional uses seed when set and falls back to NewTimeSeeded otherwise.
func FromOptional(seed *int64) (*rand.Rand, int64) {
	if seed != nil {
		return New(*seed), *seed
	}
	return NewTimeSeeded()
}

// Derive returns a child seed for stream i, so parallel workers get
// independent but reproducible generators.
func Derive(seed int64, i int) int64 {
	return int64(mix(uint64(seed) + uint64(i+1)*goldenRatio64))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
