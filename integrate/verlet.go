/*package integrate advances particle positions and velocities in time
with the velocity-Verlet scheme: a half-step velocity kick and a full
position drift before the force evaluation, and a second half kick after
it. The scheme is time symmetric and symplectic, which is what keeps the
total energy bounded over long runs.
*/
package integrate

import (
	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/neighbor"
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/state"
)

// VelocityVerlet integrates a State in two phases per step that straddle
// an external force evaluation:
//
//	InitialStep: v += dt/2 f/m, x += dt v, wrap x into the box
//	(forces recomputed by the caller)
//	FinalStep:   v += dt/2 f/m
//
// If a DisplacementTracker is attached, InitialStep also folds each
// particle's drift since the last neighbor rebuild into the tracker's max
// reduction.
type VelocityVerlet struct {
	dt, halfDt float64

	boxDims  geom.Vec
	origin   geom.Vec
	periodic [3]bool

	tracker *neighbor.DisplacementTracker

	pool *parallel.Pool
}

// NewVelocityVerlet creates an integrator with the given timestep.
func NewVelocityVerlet(dt float64, pool *parallel.Pool) *VelocityVerlet {
	vv := &VelocityVerlet{pool: pool}
	vv.SetTimestep(dt)
	return vv
}

// SetTimestep replaces the timestep and recomputes the cached half step.
func (vv *VelocityVerlet) SetTimestep(dt float64) {
	vv.dt = dt
	vv.halfDt = 0.5 * dt
}

// Timestep returns the current timestep.
func (vv *VelocityVerlet) Timestep() float64 { return vv.dt }

// UpdateBox re-derives the cached geometry used for periodic wrapping.
func (vv *VelocityVerlet) UpdateBox(box geom.Box) {
	vv.boxDims = box.Dims()
	vv.origin = box.Origin
	vv.periodic = box.Periodic
}

// SetTracker attaches a displacement tracker. Pass nil to disable
// displacement accounting on the fast path.
func (vv *VelocityVerlet) SetTracker(tr *neighbor.DisplacementTracker) {
	vv.tracker = tr
}

// InitialStep applies the first half kick and the position drift, wraps
// positions back into the box on periodic axes, and accumulates drift
// into the tracker if one is attached.
func (vv *VelocityVerlet) InitialStep(s *state.State) {
	xs, vs, fs := s.X, s.V, s.F
	halfDt, dt := vv.halfDt, vv.dt

	vv.pool.Run(s.N, func(low, high int) {
		for i := low; i < high; i++ {
			scale := halfDt / s.Mass[i]
			for k := 0; k < 3; k++ {
				vs[3*i+k] += scale * fs[3*i+k]
				x := xs[3*i+k] + dt*vs[3*i+k]
				if vv.periodic[k] {
					x = geom.Wrap(x, vv.origin[k], vv.boxDims[k])
				}
				xs[3*i+k] = x
			}

			if vv.tracker != nil {
				vv.tracker.Accumulate(i, xs[3*i], xs[3*i+1], xs[3*i+2])
			}
		}
	})
}

// FinalStep applies the second half kick using the freshly computed
// forces.
func (vv *VelocityVerlet) FinalStep(s *state.State) {
	vs, fs := s.V, s.F
	halfDt := vv.halfDt

	vv.pool.Run(s.N, func(low, high int) {
		for i := low; i < high; i++ {
			scale := halfDt / s.Mass[i]
			for k := 0; k < 3; k++ {
				vs[3*i+k] += scale * fs[3*i+k]
			}
		}
	})
}
