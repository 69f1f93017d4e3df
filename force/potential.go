/*package force evaluates short-range pair potentials over a neighbor
list. Potentials are interchangeable behind the Potential interface; each
concrete potential owns a symmetric per-type-pair coefficient matrix and a
particle-parallel kernel. Because the neighbor list is full, every
particle sums its own contributions and no force write is ever shared
between kernels.
*/
package force

import (
	"fmt"

	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/neighbor"
	"github.com/phil-mansfield/gomd/state"
)

// Potential is a pair potential usable by the integration loop.
type Potential interface {
	// SetCoeff stores interaction parameters for the type pair (ti, tj)
	// and its mirror (tj, ti), and recomputes any derived coefficients.
	// The meaning of params is potential specific.
	SetCoeff(ti, tj int, params ...float64) error

	// UpdateBox re-derives the cached box geometry used for
	// minimum-image separations inside the kernel.
	UpdateBox(box geom.Box)

	// Compute zeroes the force array and accumulates pair forces for
	// every particle from its neighbor row. When withEnergy is set the
	// per-particle potential energy is accumulated as well.
	Compute(s *state.State, l *neighbor.List, withEnergy bool)

	// ComputeWithEnergy runs Compute with energy accumulation and
	// returns the total potential energy.
	ComputeWithEnergy(s *state.State, l *neighbor.List) float64

	// MaxCutoff returns the largest pair cutoff, which the neighbor list
	// must cover.
	MaxCutoff() float64
}

// pairMatrix is a symmetric ntypes x ntypes matrix of scalar
// coefficients stored flat.
type pairMatrix struct {
	ntypes int
	vals   []float64
}

func newPairMatrix(ntypes int) pairMatrix {
	return pairMatrix{ntypes, make([]float64, ntypes*ntypes)}
}

func (m *pairMatrix) at(ti, tj int) float64 {
	return m.vals[ti*m.ntypes+tj]
}

// set writes both (ti, tj) and (tj, ti).
func (m *pairMatrix) set(ti, tj int, x float64) {
	m.vals[ti*m.ntypes+tj] = x
	m.vals[tj*m.ntypes+ti] = x
}

func checkTypePair(ti, tj, ntypes int) error {
	if ti < 0 || ti >= ntypes || tj < 0 || tj >= ntypes {
		return fmt.Errorf(
			"Type pair (%d, %d) out of range for %d types.", ti, tj, ntypes,
		)
	}
	return nil
}
