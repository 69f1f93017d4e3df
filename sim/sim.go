/*package sim wires the simulation components together and drives the
fixed per-step protocol: initial integration half-step, a conditional
neighbor list rebuild, force evaluation, and the final half-step.
*/
package sim

import (
	"fmt"
	"log"
	"math"

	"github.com/phil-mansfield/gomd/energy"
	"github.com/phil-mansfield/gomd/force"
	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/integrate"
	"github.com/phil-mansfield/gomd/neighbor"
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/state"
)

// RebuildPolicy selects how the orchestrator decides when the neighbor
// list must be rebuilt.
type RebuildPolicy int

const (
	// FixedInterval rebuilds every RebuildInterval steps.
	FixedInterval RebuildPolicy = iota
	// DisplacementTriggered rebuilds when accumulated particle drift
	// threatens the skin margin, checked every
	// DisplacementCheckInterval steps, with an unconditional rebuild at
	// 5x RebuildInterval as a safety fallback.
	DisplacementTriggered
)

// CutoffPolicy selects what happens when the requested cutoff violates
// the minimum-image condition, i.e. when cutoff+skin exceeds half the
// smallest periodic box length.
type CutoffPolicy int

const (
	// RejectCutoff fails simulation construction.
	RejectCutoff CutoffPolicy = iota
	// ShrinkCutoff lowers the potential's cutoffs to fit the box and
	// logs the adjustment. This changes the physics being simulated, so
	// it must be opted into.
	ShrinkCutoff
)

// Params collects the numerical knobs of a simulation.
type Params struct {
	Timestep float64
	Skin     float64

	MaxNeighbors int
	MaxPerCell   int

	RebuildInterval           int
	DisplacementCheckInterval int
	Policy                    RebuildPolicy
	CutoffPolicy              CutoffPolicy
}

// DefaultParams returns the parameter set most runs start from.
func DefaultParams() Params {
	return Params{
		Timestep:                  0.005,
		Skin:                      0.3,
		MaxNeighbors:              128,
		MaxPerCell:                64,
		RebuildInterval:           20,
		DisplacementCheckInterval: 10,
		Policy:                    DisplacementTriggered,
		CutoffPolicy:              RejectCutoff,
	}
}

func (par *Params) check() error {
	if par.Timestep <= 0 {
		return fmt.Errorf("Timestep must be positive, got %g.", par.Timestep)
	}
	if par.Skin < 0 {
		return fmt.Errorf("Skin must be non-negative, got %g.", par.Skin)
	}
	if par.MaxNeighbors < 1 || par.MaxPerCell < 1 {
		return fmt.Errorf(
			"Capacities must be at least 1, got MaxNeighbors = %d, "+
				"MaxPerCell = %d.", par.MaxNeighbors, par.MaxPerCell,
		)
	}
	if par.RebuildInterval < 1 {
		return fmt.Errorf(
			"RebuildInterval must be at least 1, got %d.",
			par.RebuildInterval,
		)
	}
	if par.DisplacementCheckInterval < 1 {
		return fmt.Errorf(
			"DisplacementCheckInterval must be at least 1, got %d.",
			par.DisplacementCheckInterval,
		)
	}
	return nil
}

// cutoffShrinker is implemented by potentials that can lower their
// cutoffs after construction, enabling the ShrinkCutoff policy.
type cutoffShrinker interface {
	ShrinkCutoffs(max float64)
}

// Simulation owns one instance of every component and the step
// bookkeeping.
type Simulation struct {
	par Params

	st      *state.State
	nl      *neighbor.List
	tracker *neighbor.DisplacementTracker
	pot     force.Potential
	integ   *integrate.VelocityVerlet
	red     *energy.Reducer
	pool    *parallel.Pool

	step        int
	lastRebuild int
	needRebuild bool
}

// New assembles a simulation from a prepared particle state and
// potential. The state must already hold positions and a box; the
// neighbor list is built and forces are evaluated once so the first
// Step starts from a consistent configuration.
func New(par Params, st *state.State, pot force.Potential,
	pool *parallel.Pool) (*Simulation, error) {

	if err := par.check(); err != nil {
		return nil, err
	}
	if st.Box.Volume() <= 0 {
		return nil, fmt.Errorf("State has no box; set one before New.")
	}

	if err := checkCutoff(par, st.Box, pot); err != nil {
		return nil, err
	}

	sim := &Simulation{
		par:     par,
		st:      st,
		pot:     pot,
		tracker: neighbor.NewDisplacementTracker(st.N),
		nl: neighbor.New(
			pot.MaxCutoff(), par.Skin,
			par.MaxNeighbors, par.MaxPerCell, pool,
		),
		integ: integrate.NewVelocityVerlet(par.Timestep, pool),
		red:   energy.NewReducer(pool),
		pool:  pool,
	}
	sim.integ.SetTracker(sim.tracker)
	sim.updateBox(st.Box)

	sim.rebuild()
	sim.pot.Compute(sim.st, sim.nl, false)

	return sim, nil
}

// checkCutoff enforces the minimum-image validity condition
// cutoff+skin <= min(boxLength)/2 over the periodic axes, applying the
// configured policy on violation.
func checkCutoff(par Params, box geom.Box, pot force.Potential) error {
	d := box.Dims()
	halfMin := math.Inf(1)
	for k := 0; k < 3; k++ {
		if box.Periodic[k] && d[k]/2 < halfMin {
			halfMin = d[k] / 2
		}
	}

	search := pot.MaxCutoff() + par.Skin
	if search <= halfMin {
		return nil
	}

	switch par.CutoffPolicy {
	case ShrinkCutoff:
		shrinker, ok := pot.(cutoffShrinker)
		if !ok {
			return fmt.Errorf(
				"Cutoff+skin = %g exceeds half the smallest box length "+
					"(%g) and the potential does not support shrinking.",
				search, halfMin,
			)
		}
		newCut := halfMin - par.Skin
		if newCut <= 0 {
			return fmt.Errorf(
				"Box is too small for any positive cutoff with skin %g.",
				par.Skin,
			)
		}
		log.Printf(
			"Cutoff %g violates the minimum-image condition; "+
				"shrinking to %g.", pot.MaxCutoff(), newCut,
		)
		shrinker.ShrinkCutoffs(newCut)
		return nil
	default:
		return fmt.Errorf(
			"Cutoff+skin = %g exceeds half the smallest box length %g; "+
				"enlarge the box, lower the cutoff, or opt into "+
				"ShrinkCutoff.", search, halfMin,
		)
	}
}

func (sim *Simulation) updateBox(box geom.Box) {
	sim.st.Box = box
	sim.nl.UpdateBox(box, sim.st.N)
	sim.tracker.UpdateBox(box)
	sim.pot.UpdateBox(box)
	sim.integ.UpdateBox(box)
}

// SetBox replaces the simulation box, propagates the new geometry to
// every component, and forces a rebuild on the next step.
func (sim *Simulation) SetBox(box geom.Box) {
	sim.updateBox(box)
	sim.needRebuild = true
}

// SetTimestep replaces the integration timestep.
func (sim *Simulation) SetTimestep(dt float64) {
	sim.integ.SetTimestep(dt)
}

// ForceNeighborRebuild makes the next step rebuild the neighbor list
// unconditionally, regardless of policy.
func (sim *Simulation) ForceNeighborRebuild() {
	sim.needRebuild = true
}

// rebuild rebuilds the cell and neighbor lists from current positions
// and re-baselines displacement tracking.
func (sim *Simulation) rebuild() {
	sim.nl.Build(sim.st.X)
	sim.tracker.Save(sim.st.X)
	sim.lastRebuild = sim.step

	cellDrop := sim.nl.Cells().Overflow()
	nbrDrop := sim.nl.Overflow()
	if cellDrop > 0 || nbrDrop > 0 {
		log.Printf(
			"Capacity overflow at step %d: %d particles dropped from "+
				"cells, %d neighbors dropped from rows. Results are "+
				"biased; raise MaxPerCell/MaxNeighbors.",
			sim.step, cellDrop, nbrDrop,
		)
	}
}

// shouldRebuild applies the configured rebuild policy.
func (sim *Simulation) shouldRebuild() bool {
	if sim.needRebuild {
		return true
	}

	age := sim.step - sim.lastRebuild
	switch sim.par.Policy {
	case FixedInterval:
		return age >= sim.par.RebuildInterval
	default:
		// The displacement read-back is a synchronization point on
		// offloading backends, so it is only amortized in every
		// DisplacementCheckInterval steps. The 5x fallback catches a
		// tracker that under-triggers.
		if age >= 5*sim.par.RebuildInterval {
			return true
		}
		if age%sim.par.DisplacementCheckInterval == 0 {
			return sim.tracker.NeedsRebuild(sim.par.Skin)
		}
		return false
	}
}

// Step advances the simulation by exactly one timestep.
func (sim *Simulation) Step() {
	sim.integ.InitialStep(sim.st)

	sim.step++
	if sim.shouldRebuild() {
		sim.rebuild()
		sim.needRebuild = false
	}

	sim.pot.Compute(sim.st, sim.nl, false)
	sim.integ.FinalStep(sim.st)
}

// Run advances the simulation by n steps.
func (sim *Simulation) Run(n int) {
	for i := 0; i < n; i++ {
		sim.Step()
	}
}

// CurrentStep returns the number of completed steps.
func (sim *Simulation) CurrentStep() int { return sim.step }

// State returns the particle state. The arrays inside are the live
// simulation buffers and must not be modified by callers.
func (sim *Simulation) State() *state.State { return sim.st }

// Potential returns the pair potential, e.g. for coefficient updates.
func (sim *Simulation) Potential() force.Potential { return sim.pot }

// Energies evaluates the total kinetic energy, potential energy, and
// instantaneous temperature. This recomputes forces with energy
// accumulation enabled, so it is meant for periodic diagnostics rather
// than the hot loop.
func (sim *Simulation) Energies() (ke, pe, temp float64) {
	pe = sim.pot.ComputeWithEnergy(sim.st, sim.nl)
	ke, temp = sim.red.Compute(sim.st)
	return ke, pe, temp
}

// Overflows returns the cumulative capacity-overflow counts from the
// cell list and the neighbor list. Nonzero values mean interactions are
// being undercounted.
func (sim *Simulation) Overflows() (cellDrops, neighborDrops int64) {
	return sim.nl.Cells().Overflow(), sim.nl.Overflow()
}

// CheckStable scans positions for NaN or Inf components, the signature
// of a blown-up integration, and reports the first offender.
func (sim *Simulation) CheckStable() error {
	for i := 0; i < sim.st.N; i++ {
		for k := 0; k < 3; k++ {
			x := sim.st.X[3*i+k]
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf(
					"Particle %d has position component %d = %g at step "+
						"%d. The timestep is likely too large or "+
						"particles overlap.", i, k, x, sim.step,
				)
			}
		}
	}
	return nil
}
