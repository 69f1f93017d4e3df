package sim

import (
	"math"
	"testing"

	"github.com/phil-mansfield/gomd/force"
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/state"
)

// fccSystem builds an FCC crystal of cells^3 unit cells with uniform LJ
// coefficients and thermal velocities.
func fccSystem(
	t *testing.T, cells int, a, temp float64, pool *parallel.Pool,
) (*state.State, *force.LennardJones) {
	st := state.New(4*cells*cells*cells, 1)
	if err := st.InitFCC(cells, cells, cells, a); err != nil {
		t.Fatal(err.Error())
	}
	st.InitVelocities(temp, 42)

	lj, err := force.NewLennardJones(1, 2.5, pool)
	if err != nil {
		t.Fatal(err.Error())
	}
	if err := lj.SetCoeff(0, 0, 1, 1); err != nil {
		t.Fatal(err.Error())
	}
	return st, lj
}

func TestParamsCheck(t *testing.T) {
	table := []func(*Params){
		func(p *Params) { p.Timestep = 0 },
		func(p *Params) { p.Timestep = -0.005 },
		func(p *Params) { p.Skin = -0.1 },
		func(p *Params) { p.MaxNeighbors = 0 },
		func(p *Params) { p.MaxPerCell = 0 },
		func(p *Params) { p.RebuildInterval = 0 },
		func(p *Params) { p.DisplacementCheckInterval = 0 },
	}

	par := DefaultParams()
	if err := par.check(); err != nil {
		t.Fatalf("Default parameters rejected: %s", err.Error())
	}
	for i, breakParam := range table {
		par := DefaultParams()
		breakParam(&par)
		if par.check() == nil {
			t.Errorf("%d) Invalid parameter set accepted.", i+1)
		}
	}
}

func TestStepCount(t *testing.T) {
	pool := parallel.NewPool(2)
	st, lj := fccSystem(t, 4, 1.6, 0.5, pool)

	sim, err := New(DefaultParams(), st, lj, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	if sim.CurrentStep() != 0 {
		t.Errorf("New simulation starts at step %d.", sim.CurrentStep())
	}
	sim.Step()
	sim.Run(9)
	if sim.CurrentStep() != 10 {
		t.Errorf("Expected step 10 after 10 steps, got %d.",
			sim.CurrentStep())
	}
}

func TestRejectCutoff(t *testing.T) {
	pool := parallel.NewPool(1)

	// 2 cells at a = 1.6 gives a 3.2 box, so cutoff+skin = 2.8 exceeds
	// the half-length 1.6.
	st, lj := fccSystem(t, 2, 1.6, 0.5, pool)
	par := DefaultParams()

	if _, err := New(par, st, lj, pool); err == nil {
		t.Errorf("Cutoff violating the minimum-image condition accepted.")
	}
}

func TestShrinkCutoff(t *testing.T) {
	pool := parallel.NewPool(1)
	st, lj := fccSystem(t, 2, 1.6, 0.5, pool)

	par := DefaultParams()
	par.CutoffPolicy = ShrinkCutoff

	sim, err := New(par, st, lj, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	halfMin := st.Box.Dims()[0] / 2
	want := halfMin - par.Skin
	if got := sim.Potential().MaxCutoff(); !almostEq(got, want, 1e-12) {
		t.Errorf("Expected cutoff shrunk to %g, got %g.", want, got)
	}

	// The shrunk system must still step without violating anything.
	sim.Run(5)
	if err := sim.CheckStable(); err != nil {
		t.Errorf("Shrunk-cutoff run unstable: %s", err.Error())
	}
}

func TestPoliciesAgree(t *testing.T) {
	pool := parallel.NewPool(2)

	parA := DefaultParams()
	parA.Policy = FixedInterval
	parA.RebuildInterval = 1
	parB := DefaultParams()
	parB.Policy = DisplacementTriggered

	stA, ljA := fccSystem(t, 4, 1.6, 0.7, pool)
	stB, ljB := fccSystem(t, 4, 1.6, 0.7, pool)

	simA, err := New(parA, stA, ljA, pool)
	if err != nil {
		t.Fatal(err.Error())
	}
	simB, err := New(parB, stB, ljB, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	simA.Run(50)
	simB.Run(50)

	// Rebuild timing changes summation order, not physics, so the two
	// runs agree to far better than any physical tolerance.
	_, peA, _ := simA.Energies()
	_, peB, _ := simB.Energies()
	if !almostEq(peA, peB, 1e-6*math.Abs(peA)) {
		t.Errorf(
			"Rebuild policies diverged: PE = %g with every-step rebuilds, "+
				"%g with displacement triggering.", peA, peB,
		)
	}
}

func TestForceNeighborRebuild(t *testing.T) {
	pool := parallel.NewPool(1)
	st, lj := fccSystem(t, 4, 1.6, 0.5, pool)

	par := DefaultParams()
	par.Policy = FixedInterval
	par.RebuildInterval = 1000

	sim, err := New(par, st, lj, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	// Teleport a particle into an octahedral hole without stepping. With
	// the stale list frozen by the huge interval, only a forced rebuild
	// picks the move up.
	sim.Run(2)
	st.X[0], st.X[1], st.X[2] = 0.8, 0.8, 0.8
	sim.ForceNeighborRebuild()
	sim.Step()
	if err := sim.CheckStable(); err != nil {
		t.Errorf("Run unstable after forced rebuild: %s", err.Error())
	}
}

func TestCheckStable(t *testing.T) {
	pool := parallel.NewPool(1)
	st, lj := fccSystem(t, 4, 1.6, 0.5, pool)

	sim, err := New(DefaultParams(), st, lj, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	if err := sim.CheckStable(); err != nil {
		t.Errorf("Fresh simulation reported unstable: %s", err.Error())
	}
	st.X[7] = math.NaN()
	if sim.CheckStable() == nil {
		t.Errorf("NaN position not detected.")
	}
	st.X[7] = math.Inf(1)
	if sim.CheckStable() == nil {
		t.Errorf("Inf position not detected.")
	}
}

func TestMomentumConserved(t *testing.T) {
	pool := parallel.NewPool(2)
	st, lj := fccSystem(t, 4, 1.6, 1.0, pool)

	sim, err := New(DefaultParams(), st, lj, pool)
	if err != nil {
		t.Fatal(err.Error())
	}
	sim.Run(100)

	var p [3]float64
	for i := 0; i < st.N; i++ {
		for k := 0; k < 3; k++ {
			p[k] += st.Mass[i] * st.V[3*i+k]
		}
	}
	for k := 0; k < 3; k++ {
		if math.Abs(p[k]) > 1e-8 {
			t.Errorf("Momentum component %d drifted to %g.", k, p[k])
		}
	}
}

func TestEnergyConservation(t *testing.T) {
	if testing.Short() {
		t.Skip("Long energy conservation run skipped in short mode.")
	}

	pool := parallel.NewPool(4)
	st, lj := fccSystem(t, 4, 1.6, 0.7, pool)

	sim, err := New(DefaultParams(), st, lj, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	ke, pe, _ := sim.Energies()
	e0 := ke + pe

	sim.Run(2000)

	if err := sim.CheckStable(); err != nil {
		t.Fatal(err.Error())
	}
	ke, pe, _ = sim.Energies()
	e1 := ke + pe

	drift := math.Abs(e1-e0) / math.Abs(e0)
	if drift > 0.01 {
		t.Errorf(
			"Total energy drifted by %.2f%% over 2000 steps "+
				"(%g -> %g).", 100*drift, e0, e1,
		)
	}

	cellDrops, nbrDrops := sim.Overflows()
	if cellDrops != 0 || nbrDrops != 0 {
		t.Errorf(
			"Capacity overflow during run: %d cell drops, %d neighbor "+
				"drops.", cellDrops, nbrDrops,
		)
	}
}

func almostEq(x, y, eps float64) bool {
	return math.Abs(x-y) <= eps
}
