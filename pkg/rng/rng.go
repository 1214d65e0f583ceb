// Package rng provides the random source used for simulated provider data
// and fallback scores. It is injectable so tests can pin the output.
package rng

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source yields pseudo-random floats in [0, 1).
type Source interface {
	Float64() float64
}

// Locked wraps a *rand.Rand so it can be shared by the traffic and bike
// computations that run concurrently.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a goroutine-safe source seeded with seed.
func New(seed uint64) *Locked {
	return &Locked{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded returns a source seeded from the wall clock.
func NewTimeSeeded() *Locked {
	return New(uint64(time.Now().UnixNano()))
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Fixed always returns the same value. Handy in tests.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

// Between returns a value in [lo, hi) drawn from src.
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Above reports whether a draw from src is strictly above threshold, which
// happens with probability 1-threshold.
func Above(src Source, threshold float64) bool {
	return src.Float64() > threshold
}
