package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gomd/bench"
	"github.com/phil-mansfield/gomd/dump"
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/sim"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil { log.Fatal(err.Error()) }
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil { log.Fatal(err.Error()) }
	}
}

var numThreads int

func main() {
	// The main function manages input sanitization and calls the secondary
	// main functions for each mode. The code tries to fail gracefully if
	// the user provides incorrect input.

	var (
		runStr, benchStr string
		exampleConfig    string
	)
	vars := map[string]*string{
		"Run":           &runStr,
		"Bench":         &benchStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&numThreads, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.StringVar(
		&runStr, "Run", "",
		"Configuration file for [Run] mode.",
	)
	flag.StringVar(
		&benchStr, "Bench", "",
		"Configuration file for [Bench] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Run' and "+
			"'Bench'.",
	)

	flag.Parse()

	// Figure out the mode and fail with a descriptive error if the user
	// gave incorrect flags.
	modeName, err := getModeName(vars)
	if err != nil { log.Fatal(err.Error()) }

	switch modeName {
	case "Run":
		wrap := sim.DefaultRunWrapper()
		err := gcfg.ReadFileInto(wrap, runStr)
		if err != nil { log.Fatal(err.Error()) }
		con := &wrap.Run

		if !con.ValidSteps() {
			log.Fatal("Invalid/non-existent 'Steps' value.")
		} else if !con.ValidInput() {
			log.Fatal(
				"Must set either 'DataFile' or the three 'Lattice' values, " +
					"but not both.",
			)
		} else if !con.ValidTimestep() {
			log.Fatal("Invalid 'Timestep' value.")
		} else if !con.ValidPotential() {
			log.Fatal("Invalid 'Epsilon', 'Sigma', 'Cutoff', or 'Skin' value.")
		} else if !con.ValidRebuildPolicy() {
			log.Fatal(
				"Invalid 'RebuildPolicy' value. Accepted values are " +
					"'Displacement' and 'Interval'.",
			)
		} else if !con.ValidCutoffPolicy() {
			log.Fatal(
				"Invalid 'CutoffPolicy' value. Accepted values are " +
					"'Reject' and 'Shrink'.",
			)
		} else if !con.ValidDump() {
			log.Fatal("'DumpEvery' is set but 'DumpFile' is not.")
		}

		runMain(con)

	case "Bench":
		b, err := bench.New(benchStr)
		if err != nil { log.Fatal(err.Error()) }
		if b.Threads == 0 { b.Threads = numThreads }

		err = b.Start()
		if err != nil { log.Fatal(err.Error()) }

	case "ExampleConfig":
		switch exampleConfig {
		case "Run":
			fmt.Println(sim.ExampleRunFile)
		case "Bench":
			fmt.Println(bench.ExampleBenchFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Run' and 'Bench'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive
// error if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" { setNames = append(setNames, name) }
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but gomd only accepts one "+
				"flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// runSetupIO creates the FileGroup which handles logging and profiling
// for a [Run] mode invocation.
func runSetupIO(con *sim.RunConfig) *FileGroup {
	var err error
	fg := new(FileGroup)

	if con.LogFile != "" {
		fg.log, err = os.Create(con.LogFile)
		if err != nil { log.Fatal(err.Error()) }
		log.SetOutput(fg.log)
	}

	if con.ProfileFile != "" {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil { log.Fatal(err.Error()) }
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil { log.Fatal(err.Error()) }
	}

	return fg
}

// runMain advances a configured simulation through its steps, writing
// energy diagnostics and trajectory frames at the configured cadence.
func runMain(con *sim.RunConfig) {
	fg := runSetupIO(con)
	defer fg.Close()

	pool := parallel.NewPool(numThreads)
	s, err := sim.NewFromConfig(con, pool)
	if err != nil { log.Fatal(err.Error()) }

	var dumper *dump.Writer
	if con.DumpEvery > 0 {
		dumper, err = dump.Create(con.DumpFile)
		if err != nil { log.Fatal(err.Error()) }
		defer func() {
			err := dumper.Close()
			if err != nil { log.Fatal(err.Error()) }
		}()
	}

	log.Printf("Starting run: %d particles, %d steps, %d threads.",
		s.State().N, con.Steps, pool.Workers())

	logEnergies(s)
	if dumper != nil {
		err := dumper.WriteFrame(s.State(), 0)
		if err != nil { log.Fatal(err.Error()) }
	}

	for step := 1; step <= con.Steps; step++ {
		s.Step()

		if con.EnergyEvery > 0 && step%con.EnergyEvery == 0 {
			if err := s.CheckStable(); err != nil { log.Fatal(err.Error()) }
			logEnergies(s)
		}
		if dumper != nil && step%con.DumpEvery == 0 {
			err := dumper.WriteFrame(s.State(), step)
			if err != nil { log.Fatal(err.Error()) }
		}
	}

	if err := s.CheckStable(); err != nil { log.Fatal(err.Error()) }
	if cellDrops, nbrDrops := s.Overflows(); cellDrops > 0 || nbrDrops > 0 {
		log.Printf(
			"Run finished with capacity overflows (%d cell, %d neighbor). "+
				"Raise MaxPerCell/MaxNeighbors and rerun.",
			cellDrops, nbrDrops,
		)
	}
	log.Printf("Finished %d steps.", s.CurrentStep())
}

// logEnergies writes one energy diagnostic line for the current state.
func logEnergies(s *sim.Simulation) {
	ke, pe, temp := s.Energies()
	log.Printf(
		"step %8d  KE = %12.6g  PE = %12.6g  E = %12.6g  T = %8.5g",
		s.CurrentStep(), ke, pe, ke+pe, temp,
	)
}
