package sim

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/phil-mansfield/gomd/parallel"
	"gopkg.in/gcfg.v1"
)

func TestExampleRunFileParses(t *testing.T) {
	wrap := DefaultRunWrapper()
	err := gcfg.ReadStringInto(wrap, ExampleRunFile)
	if err != nil {
		t.Fatalf("Example config rejected: %s", err.Error())
	}

	con := &wrap.Run
	if !con.ValidSteps() || !con.ValidInput() || !con.ValidTimestep() ||
		!con.ValidPotential() || !con.ValidRebuildPolicy() ||
		!con.ValidCutoffPolicy() || !con.ValidDump() {
		t.Errorf("Example config fails its own validity checks.")
	}

	if con.Lattice != "FCC" || con.LatticeCells != 10 || con.Steps != 1000 {
		t.Errorf(
			"Example config parsed as Lattice = %s, LatticeCells = %d, "+
				"Steps = %d.", con.Lattice, con.LatticeCells, con.Steps,
		)
	}
}

func TestConfigValidity(t *testing.T) {
	table := []struct {
		breakCon func(*RunConfig)
		valid    func(*RunConfig) bool
	}{
		{func(c *RunConfig) { c.Steps = 0 },
			(*RunConfig).ValidSteps},
		{func(c *RunConfig) { c.Lattice = "BCC" },
			(*RunConfig).ValidInput},
		{func(c *RunConfig) { c.Lattice = ""; c.DataFile = "" },
			(*RunConfig).ValidInput},
		{func(c *RunConfig) { c.DataFile = "x.data" },
			(*RunConfig).ValidInput},
		{func(c *RunConfig) { c.LatticeCells = 0 },
			(*RunConfig).ValidInput},
		{func(c *RunConfig) { c.LatticeConstant = 0 },
			(*RunConfig).ValidInput},
		{func(c *RunConfig) { c.Timestep = 0 },
			(*RunConfig).ValidTimestep},
		{func(c *RunConfig) { c.Epsilon = -1 },
			(*RunConfig).ValidPotential},
		{func(c *RunConfig) { c.Cutoff = 0 },
			(*RunConfig).ValidPotential},
		{func(c *RunConfig) { c.RebuildPolicy = "sometimes" },
			(*RunConfig).ValidRebuildPolicy},
		{func(c *RunConfig) { c.CutoffPolicy = "ignore" },
			(*RunConfig).ValidCutoffPolicy},
		{func(c *RunConfig) { c.DumpEvery = 10 },
			(*RunConfig).ValidDump},
	}

	for i, test := range table {
		con := &DefaultRunWrapper().Run
		con.Lattice, con.LatticeCells, con.LatticeConstant = "FCC", 4, 1.6
		con.Steps = 100

		if !test.valid(con) {
			t.Errorf("%d) Valid config rejected before breaking.", i+1)
		}
		test.breakCon(con)
		if test.valid(con) {
			t.Errorf("%d) Broken config accepted.", i+1)
		}
	}
}

func TestConfigParams(t *testing.T) {
	con := &DefaultRunWrapper().Run

	con.RebuildPolicy, con.CutoffPolicy = "Interval", "Shrink"
	par := con.Params()
	if par.Policy != FixedInterval || par.CutoffPolicy != ShrinkCutoff {
		t.Errorf("Interval/Shrink config mapped to policies (%d, %d).",
			par.Policy, par.CutoffPolicy)
	}

	con.RebuildPolicy, con.CutoffPolicy = "displacement", "reject"
	par = con.Params()
	if par.Policy != DisplacementTriggered || par.CutoffPolicy != RejectCutoff {
		t.Errorf("Displacement/Reject config mapped to policies (%d, %d).",
			par.Policy, par.CutoffPolicy)
	}
}

func TestNewFromConfigLattice(t *testing.T) {
	con := &DefaultRunWrapper().Run
	con.Lattice, con.LatticeCells, con.LatticeConstant = "SC", 8, 1.2
	con.Steps = 10

	pool := parallel.NewPool(2)
	sim, err := NewFromConfig(con, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	if sim.State().N != 8*8*8 {
		t.Errorf("SC lattice built %d particles, expected %d.",
			sim.State().N, 8*8*8)
	}

	sim.Run(con.Steps)
	if err := sim.CheckStable(); err != nil {
		t.Errorf("Config-built run unstable: %s", err.Error())
	}
}

func TestNewFromConfigData(t *testing.T) {
	file := `two atoms

2 atoms
1 atom types

0 10 xlo xhi
0 10 ylo yhi
0 10 zlo zhi

Masses

1 2.0

Atoms

1 1 4.0 5.0 5.0
2 1 6.0 5.0 5.0
`
	dir, err := ioutil.TempDir("", "gomd_config_test")
	if err != nil {
		t.Fatal(err.Error())
	}
	defer os.RemoveAll(dir)

	name := path.Join(dir, "pair.data")
	if err := ioutil.WriteFile(name, []byte(file), 0644); err != nil {
		t.Fatal(err.Error())
	}

	con := &DefaultRunWrapper().Run
	con.Lattice, con.DataFile, con.Steps = "", name, 5
	con.Temperature = 0

	pool := parallel.NewPool(1)
	sim, err := NewFromConfig(con, pool)
	if err != nil {
		t.Fatal(err.Error())
	}

	st := sim.State()
	if st.N != 2 || st.Mass[0] != 2.0 {
		t.Errorf("Data file built N = %d, Mass[0] = %g.", st.N, st.Mass[0])
	}

	sim.Run(con.Steps)
	if err := sim.CheckStable(); err != nil {
		t.Errorf("Data-file run unstable: %s", err.Error())
	}
}
