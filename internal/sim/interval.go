package sim

import (
	"math/rand/v2"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler is the single random source shared by a highway. Every random
// draw in the simulation (vehicle attributes, spawn spacing, decision
// timers) goes through it so a fixed seed reproduces a run exactly.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler wraps src. A nil src panics on first use, like rand.New.
func NewSampler(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// NewSource returns the PCG source used for a given seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// NewSeededSampler returns a sampler backed by NewSource(seed).
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(NewSource(seed))
}

// Float64 returns a uniform value in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// Interval is a closed range [Min, Max] used to draw bounded scalars.
type Interval struct {
	Min float64
	Max float64
}

// Uniform draws uniformly from the interval.
func (iv Interval) Uniform(s *Sampler) float64 {
	if iv.Max <= iv.Min {
		return iv.Min
	}
	u := distuv.Uniform{Min: iv.Min, Max: iv.Max}
	return u.Quantile(s.Float64())
}

// Normal draws from a normal distribution centred on the interval's
// midpoint with sigma = (Max-Min)/4, clipped to [Min, Max].
func (iv Interval) Normal(s *Sampler) float64 {
	if iv.Max <= iv.Min {
		return iv.Min
	}
	n := distuv.Normal{Mu: iv.Mid(), Sigma: (iv.Max - iv.Min) / 4}
	// Inverse-transform sampling keeps the draw on our own source.
	// Quantile(0) is -Inf, which the clamp folds onto Min.
	return lo.Clamp(n.Quantile(s.Float64()), iv.Min, iv.Max)
}

// Mid returns the midpoint of the interval.
func (iv Interval) Mid() float64 {
	return (iv.Min + iv.Max) / 2
}

// Contains reports whether x lies within the interval.
func (iv Interval) Contains(x float64) bool {
	return x >= iv.Min && x <= iv.Max
}
