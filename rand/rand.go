/*package rand provides a small deterministic pseudo-random generator for
reproducible simulation setup. The underlying sequence is the classic
linear congruential generator, which is more than good enough for drawing
initial velocities and has the advantage of being trivially portable
across implementations.
*/
package rand

import (
	"math"
)

const (
	lcgA   = 1103515245
	lcgC   = 12345
	lcgMod = 1 << 31
)

// Generator is a seeded deterministic generator. Two Generators created
// with the same seed produce bit-identical sequences.
type Generator struct {
	seed uint32

	hasSpare bool
	spare    float64
}

// New creates a Generator with the given seed.
func New(seed uint32) *Generator {
	return &Generator{seed: seed % lcgMod}
}

// Uniform returns the next deviate, uniformly distributed in [0, 1).
func (gen *Generator) Uniform() float64 {
	gen.seed = (gen.seed*lcgA + lcgC) % lcgMod
	return float64(gen.seed) / lcgMod
}

// UniformRange returns the next deviate, uniformly distributed in
// [low, high).
func (gen *Generator) UniformRange(low, high float64) float64 {
	return low + (high-low)*gen.Uniform()
}

// Gaussian returns the next deviate drawn from a unit normal distribution
// via the Box-Muller transform. Deviates are generated in pairs and the
// second member of each pair is cached.
func (gen *Generator) Gaussian() float64 {
	if gen.hasSpare {
		gen.hasSpare = false
		return gen.spare
	}

	u1 := gen.Uniform()
	for u1 == 0 {
		u1 = gen.Uniform()
	}
	u2 := gen.Uniform()

	r := math.Sqrt(-2 * math.Log(u1))
	gen.spare = r * math.Sin(2*math.Pi*u2)
	gen.hasSpare = true

	return r * math.Cos(2*math.Pi*u2)
}
