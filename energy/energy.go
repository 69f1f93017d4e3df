/*package energy computes kinetic energy and instantaneous temperature
from particle velocities and masses.
*/
package energy

import (
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/state"
)

// Reducer sums per-particle kinetic energies with a two-phase parallel
// reduction: each worker accumulates its own chunk and the partials are
// combined afterwards, so no kernel contends on a shared accumulator.
type Reducer struct {
	pool *parallel.Pool
}

// NewReducer creates a Reducer backed by the given pool.
func NewReducer(pool *parallel.Pool) *Reducer {
	return &Reducer{pool}
}

// Compute returns the total kinetic energy and the instantaneous
// temperature T = 2 KE / (3 N) in reduced units (kB = 1, equipartition in
// three dimensions). It reads velocities and masses and mutates nothing.
func (r *Reducer) Compute(s *state.State) (ke, temp float64) {
	vs := s.V

	ke = r.pool.RunSum(s.N, func(low, high int) float64 {
		sum := 0.0
		for i := low; i < high; i++ {
			vx, vy, vz := vs[3*i], vs[3*i+1], vs[3*i+2]
			sum += 0.5 * s.Mass[i] * (vx*vx + vy*vy + vz*vz)
		}
		return sum
	})

	temp = 2 * ke / (3 * float64(s.N))
	return ke, temp
}
