/*package state owns the per-particle arrays of a simulation: positions,
velocities, forces, type indices, and masses, along with the current
simulation box. Every other component of the engine reads from and writes
into these arrays in place; nothing is ever resized after creation.
*/
package state

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/rand"
)

// State is the particle content of a simulation with a fixed particle
// count. Positions, velocities, and forces are flat arrays of length 3N
// with particle i occupying elements [3i, 3i+3).
type State struct {
	N     int
	Types int

	X, V, F []float64
	Type    []int
	Mass    []float64

	Box geom.Box
}

// New creates a State for n particles of the given number of distinct
// types. Masses default to 1 and types to 0.
func New(n, types int) *State {
	s := &State{
		N: n, Types: types,
		X:    make([]float64, 3*n),
		V:    make([]float64, 3*n),
		F:    make([]float64, 3*n),
		Type: make([]int, n),
		Mass: make([]float64, n),
	}
	for i := range s.Mass {
		s.Mass[i] = 1
	}
	return s
}

// SetBox replaces the simulation box.
func (s *State) SetBox(box geom.Box) { s.Box = box }

// SetPositions copies xs into the position array. The length of xs must
// be exactly 3N.
func (s *State) SetPositions(xs []float64) error {
	if len(xs) != 3*s.N {
		return fmt.Errorf(
			"Position array length is %d, but must be %d for %d particles.",
			len(xs), 3*s.N, s.N,
		)
	}
	copy(s.X, xs)
	return nil
}

// SetVelocities copies vs into the velocity array. The length of vs must
// be exactly 3N.
func (s *State) SetVelocities(vs []float64) error {
	if len(vs) != 3*s.N {
		return fmt.Errorf(
			"Velocity array length is %d, but must be %d for %d particles.",
			len(vs), 3*s.N, s.N,
		)
	}
	copy(s.V, vs)
	return nil
}

// SetTypes copies types into the type array. Every index must be in
// [0, Types).
func (s *State) SetTypes(types []int) error {
	if len(types) != s.N {
		return fmt.Errorf(
			"Type array length is %d, but must be %d.", len(types), s.N,
		)
	}
	for i, t := range types {
		if t < 0 || t >= s.Types {
			return fmt.Errorf(
				"Particle %d has type %d, but must be in [0, %d).",
				i, t, s.Types,
			)
		}
	}
	copy(s.Type, types)
	return nil
}

// SetMasses copies masses into the mass array. Every mass must be
// positive.
func (s *State) SetMasses(masses []float64) error {
	if len(masses) != s.N {
		return fmt.Errorf(
			"Mass array length is %d, but must be %d.", len(masses), s.N,
		)
	}
	for i, m := range masses {
		if m <= 0 {
			return fmt.Errorf(
				"Particle %d has mass %g, but masses must be positive.", i, m,
			)
		}
	}
	copy(s.Mass, masses)
	return nil
}

// ZeroForces clears the force array.
func (s *State) ZeroForces() {
	for i := range s.F {
		s.F[i] = 0
	}
}

// InitLattice places the particles at the centers of an nx x ny x nz
// simple cubic grid with the given spacing and resizes the box to exactly
// fit the lattice. The grid must contain exactly N points.
func (s *State) InitLattice(nx, ny, nz int, spacing float64) error {
	if nx*ny*nz != s.N {
		return fmt.Errorf(
			"Lattice is %d x %d x %d = %d points, but the State holds %d "+
				"particles.", nx, ny, nz, nx*ny*nz, s.N,
		)
	}

	idx := 0
	for iz := 0; iz < nz; iz++ {
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				s.X[3*idx+0] = (float64(ix) + 0.5) * spacing
				s.X[3*idx+1] = (float64(iy) + 0.5) * spacing
				s.X[3*idx+2] = (float64(iz) + 0.5) * spacing
				idx++
			}
		}
	}

	box, err := geom.NewOrthoBox(
		float64(nx)*spacing, float64(ny)*spacing, float64(nz)*spacing,
	)
	if err != nil {
		return err
	}
	s.Box = box

	return nil
}

// fccBasis is the four-point basis of the face-centered cubic unit cell
// in fractional coordinates.
var fccBasis = [4][3]float64{
	{0, 0, 0},
	{0.5, 0.5, 0},
	{0.5, 0, 0.5},
	{0, 0.5, 0.5},
}

// InitFCC places the particles on an FCC lattice of nx x ny x nz unit
// cells with the given lattice constant and resizes the box to exactly
// fit. The lattice must contain exactly N = 4*nx*ny*nz points.
func (s *State) InitFCC(nx, ny, nz int, latticeConst float64) error {
	if 4*nx*ny*nz != s.N {
		return fmt.Errorf(
			"FCC lattice is %d x %d x %d cells = %d points, but the State "+
				"holds %d particles.", nx, ny, nz, 4*nx*ny*nz, s.N,
		)
	}

	idx := 0
	for iz := 0; iz < nz; iz++ {
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				for _, b := range fccBasis {
					s.X[3*idx+0] = (float64(ix) + b[0]) * latticeConst
					s.X[3*idx+1] = (float64(iy) + b[1]) * latticeConst
					s.X[3*idx+2] = (float64(iz) + b[2]) * latticeConst
					idx++
				}
			}
		}
	}

	box, err := geom.NewOrthoBox(
		float64(nx)*latticeConst,
		float64(ny)*latticeConst,
		float64(nz)*latticeConst,
	)
	if err != nil {
		return err
	}
	s.Box = box

	return nil
}

// InitVelocities draws every velocity component from the Maxwell-Boltzmann
// distribution at temperature T (reduced units) and removes the aggregate
// center-of-mass drift so the system carries zero net momentum. The draw
// is fully determined by the seed.
func (s *State) InitVelocities(T float64, seed uint32) {
	gen := rand.New(seed)

	for i := 0; i < s.N; i++ {
		sigma := math.Sqrt(T / s.Mass[i])
		for k := 0; k < 3; k++ {
			s.V[3*i+k] = sigma * gen.Gaussian()
		}
	}

	// Mass-weighted center-of-mass velocity.
	var pSum [3]float64
	mSum := 0.0
	for i := 0; i < s.N; i++ {
		for k := 0; k < 3; k++ {
			pSum[k] += s.Mass[i] * s.V[3*i+k]
		}
		mSum += s.Mass[i]
	}

	for i := 0; i < s.N; i++ {
		for k := 0; k < 3; k++ {
			s.V[3*i+k] -= pSum[k] / mSum
		}
	}
}

// Position returns particle i's position as a vector.
func (s *State) Position(i int) geom.Vec {
	return geom.Vec{s.X[3*i], s.X[3*i+1], s.X[3*i+2]}
}

// Velocity returns particle i's velocity as a vector.
func (s *State) Velocity(i int) geom.Vec {
	return geom.Vec{s.V[3*i], s.V[3*i+1], s.V[3*i+2]}
}

// Force returns the force on particle i as a vector.
func (s *State) Force(i int) geom.Vec {
	return geom.Vec{s.F[3*i], s.F[3*i+1], s.F[3*i+2]}
}
