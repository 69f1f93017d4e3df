package sim

import (
	"fmt"
	"strings"

	"github.com/phil-mansfield/gomd/data"
	"github.com/phil-mansfield/gomd/force"
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/state"
)

const (
	ExampleRunFile = `[Run]

#######################
# Required Parameters #
#######################

# Initial configuration. Either point DataFile at a LAMMPS-style data
# file, or build a lattice in place with the Lattice options below.
# DataFile = path/to/config.data

# Lattice must be one of [ FCC | SC ].
Lattice = FCC
# Number of unit cells per side. FCC places 4*Cells^3 particles, SC
# places Cells^3.
LatticeCells = 10
# Lattice constant (FCC) or grid spacing (SC), in reduced units.
LatticeConstant = 1.6

# Number of steps to run.
Steps = 1000

#######################
# Optional Parameters #
#######################

# Initial temperature in reduced units and the seed of the
# deterministic velocity draw.
# Temperature = 1.44
# Seed = 12345

# Integration timestep in reduced units.
# Timestep = 0.005

# Lennard-Jones parameters applied to every type pair.
# Epsilon = 1.0
# Sigma = 1.0
# Cutoff = 2.5

# Extra margin on the neighbor search radius. Larger skins rebuild less
# often but visit more pairs per step.
# Skin = 0.3

# Neighbor list capacities. Raise these if overflow warnings appear.
# MaxNeighbors = 128
# MaxPerCell = 64

# RebuildPolicy must be one of [ Displacement | Interval ].
# Displacement rebuilds when particle drift threatens the skin margin;
# Interval rebuilds every RebuildInterval steps unconditionally.
# RebuildPolicy = Displacement
# RebuildInterval = 20
# DisplacementCheckInterval = 10

# CutoffPolicy must be one of [ Reject | Shrink ] and controls what
# happens when Cutoff+Skin exceeds half the smallest box length. Shrink
# lowers the cutoff and logs it; note this changes the physics.
# CutoffPolicy = Reject

# Print total energy diagnostics every EnergyEvery steps (0 disables).
# EnergyEvery = 100

# Write an XYZ trajectory frame every DumpEvery steps (0 disables).
# DumpFile = run.xyz
# DumpEvery = 100

# Output files which are useful for profiling and debugging. Generally,
# there isn't a reason to use these unless something goes wrong.
# LogFile = log.out
# ProfileFile = prof.out`
)

// RunConfig is the [Run] section of a run configuration file.
type RunConfig struct {
	// Required
	Steps int

	// Initial configuration: data file or lattice.
	DataFile        string
	Lattice         string
	LatticeCells    int
	LatticeConstant float64

	// Optional
	Temperature float64
	Seed        int
	Timestep    float64

	Epsilon, Sigma, Cutoff float64
	Skin                   float64

	MaxNeighbors, MaxPerCell int

	RebuildPolicy             string
	RebuildInterval           int
	DisplacementCheckInterval int
	CutoffPolicy              string

	EnergyEvery int
	DumpFile    string
	DumpEvery   int

	LogFile, ProfileFile string
}

// RunWrapper is the gcfg wrapper around RunConfig.
type RunWrapper struct {
	Run RunConfig
}

// DefaultRunWrapper returns a wrapper preloaded with default values.
func DefaultRunWrapper() *RunWrapper {
	par := DefaultParams()
	return &RunWrapper{RunConfig{
		Temperature: 1.44,
		Seed:        12345,
		Timestep:    par.Timestep,

		Epsilon: 1, Sigma: 1, Cutoff: 2.5,
		Skin: par.Skin,

		MaxNeighbors: par.MaxNeighbors,
		MaxPerCell:   par.MaxPerCell,

		RebuildPolicy:             "Displacement",
		RebuildInterval:           par.RebuildInterval,
		DisplacementCheckInterval: par.DisplacementCheckInterval,
		CutoffPolicy:              "Reject",

		EnergyEvery: 100,
	}}
}

func (con *RunConfig) ValidSteps() bool { return con.Steps > 0 }

func (con *RunConfig) ValidInput() bool {
	if con.DataFile != "" {
		return con.Lattice == ""
	}
	lat := strings.ToUpper(con.Lattice)
	return (lat == "FCC" || lat == "SC") &&
		con.LatticeCells > 0 && con.LatticeConstant > 0
}

func (con *RunConfig) ValidTimestep() bool { return con.Timestep > 0 }

func (con *RunConfig) ValidPotential() bool {
	return con.Epsilon > 0 && con.Sigma > 0 && con.Cutoff > 0 &&
		con.Skin >= 0
}

func (con *RunConfig) ValidRebuildPolicy() bool {
	switch strings.ToLower(con.RebuildPolicy) {
	case "displacement", "interval":
		return true
	}
	return false
}

func (con *RunConfig) ValidCutoffPolicy() bool {
	switch strings.ToLower(con.CutoffPolicy) {
	case "reject", "shrink":
		return true
	}
	return false
}

func (con *RunConfig) ValidDump() bool {
	return con.DumpEvery == 0 || con.DumpFile != ""
}

// Params converts the validated config into simulation parameters.
func (con *RunConfig) Params() Params {
	par := Params{
		Timestep:                  con.Timestep,
		Skin:                      con.Skin,
		MaxNeighbors:              con.MaxNeighbors,
		MaxPerCell:                con.MaxPerCell,
		RebuildInterval:           con.RebuildInterval,
		DisplacementCheckInterval: con.DisplacementCheckInterval,
	}

	if strings.ToLower(con.RebuildPolicy) == "interval" {
		par.Policy = FixedInterval
	} else {
		par.Policy = DisplacementTriggered
	}
	if strings.ToLower(con.CutoffPolicy) == "shrink" {
		par.CutoffPolicy = ShrinkCutoff
	} else {
		par.CutoffPolicy = RejectCutoff
	}

	return par
}

// NewFromConfig builds a full simulation from a validated run config:
// particle state from the data file or lattice, a Lennard-Jones
// potential with the configured coefficients applied to every type
// pair, and Maxwell-Boltzmann velocities at the configured temperature.
func NewFromConfig(con *RunConfig, pool *parallel.Pool) (
	*Simulation, error,
) {
	st, err := buildState(con)
	if err != nil {
		return nil, err
	}

	lj, err := force.NewLennardJones(st.Types, con.Cutoff, pool)
	if err != nil {
		return nil, err
	}
	for ti := 0; ti < st.Types; ti++ {
		for tj := ti; tj < st.Types; tj++ {
			err := lj.SetCoeff(ti, tj, con.Epsilon, con.Sigma)
			if err != nil {
				return nil, err
			}
		}
	}

	if con.Temperature > 0 {
		st.InitVelocities(con.Temperature, uint32(con.Seed))
	}

	return New(con.Params(), st, lj, pool)
}

func buildState(con *RunConfig) (*state.State, error) {
	if con.DataFile != "" {
		snap, err := data.ReadFile(con.DataFile)
		if err != nil {
			return nil, err
		}

		st := state.New(snap.NumAtoms, snap.NumTypes)
		st.SetBox(snap.Box)
		if err := st.SetPositions(snap.Positions); err != nil {
			return nil, err
		}
		if err := st.SetTypes(snap.Types); err != nil {
			return nil, err
		}
		masses := make([]float64, snap.NumAtoms)
		for i, t := range snap.Types {
			masses[i] = snap.Masses[t]
		}
		if err := st.SetMasses(masses); err != nil {
			return nil, err
		}
		return st, nil
	}

	c := con.LatticeCells
	switch strings.ToUpper(con.Lattice) {
	case "FCC":
		st := state.New(4*c*c*c, 1)
		if err := st.InitFCC(c, c, c, con.LatticeConstant); err != nil {
			return nil, err
		}
		return st, nil
	case "SC":
		st := state.New(c*c*c, 1)
		if err := st.InitLattice(c, c, c, con.LatticeConstant); err != nil {
			return nil, err
		}
		return st, nil
	}

	return nil, fmt.Errorf("Unrecognized lattice '%s'.", con.Lattice)
}
