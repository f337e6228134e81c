// Package rng provides a seeded random source whose position can be saved
// and restored, so market walks and spawn rolls replay identically.
package rng

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// New creates a new deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Restore creates an RNG and advances it to the given position.
func Restore(seed, position int64) *RNG {
	r := New(seed)
	for i := int64(0); i < position; i++ {
		r.src.Float64()
	}
	r.pos = position
	return r
}

// Float64 returns a value in [0,1).
func (r *RNG) Float64() float64 {
	r.pos++
	return r.src.Float64()
}

// Range returns a uniform value in [lo,hi).
func (r *RNG) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Chance reports whether a roll succeeds with probability p.
func (r *RNG) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		r.Float64()
		return true
	}
	return r.Float64() < p
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Position returns the number of draws since creation.
func (r *RNG) Position() int64 { return r.pos }
