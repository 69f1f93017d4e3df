// Package bench runs scaling benchmarks of the simulation engine and
// reports steps per second for a range of system sizes.
package bench

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/sim"

	"github.com/pelletier/go-toml"
)

const ExampleBenchFile = `# Scaling benchmark suite. Each entry of cells builds an FCC crystal of
# cells^3 unit cells (4*cells^3 particles) and times steps of it.
[bench]
cells = [4, 6, 8, 10]
steps = 200
warmup_steps = 20
lattice_constant = 1.6
temperature = 1.44
timestep = 0.005
cutoff = 2.5
skin = 0.3
threads = 0     # 0 means all CPUs
file_out = ""   # empty means stdout`

// Bench is a benchmark suite parsed from a TOML configuration file.
// Instance it through the New method.
type Bench struct {
	Cells        []int   `toml:"cells"`
	Steps        int     `toml:"steps"`
	WarmupSteps  int     `toml:"warmup_steps"`
	LatticeConst float64 `toml:"lattice_constant"`
	Temperature  float64 `toml:"temperature"`
	Timestep     float64 `toml:"timestep"`
	Cutoff       float64 `toml:"cutoff"`
	Skin         float64 `toml:"skin"`
	Threads      int     `toml:"threads"`
	FileOut      string  `toml:"file_out"`
}

// benchWrapper maps the [bench] table onto the Bench fields.
type benchWrapper struct {
	Bench Bench `toml:"bench"`
}

// New returns an instance of the Bench structure. It reads and parses
// the configuration file given in argument. The file must be a TOML
// file.
func New(path string) (*Bench, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var wrap benchWrapper
	dec := toml.NewDecoder(f)
	if err := dec.Decode(&wrap); err != nil {
		return nil, err
	}

	b := wrap.Bench
	if err := b.check(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bench) check() error {
	if len(b.Cells) == 0 {
		return errors.New("cells is empty")
	}
	for _, c := range b.Cells {
		if c < 1 {
			return fmt.Errorf("cells entry %d is not positive", c)
		}
	}
	if b.Steps < 1 {
		return errors.New("steps is not positive")
	}
	if b.WarmupSteps < 0 {
		return errors.New("warmup_steps is negative")
	}
	if b.LatticeConst <= 0 || b.Timestep <= 0 || b.Cutoff <= 0 {
		return errors.New(
			"lattice_constant, timestep, and cutoff must be positive")
	}
	if b.Skin < 0 || b.Temperature < 0 {
		return errors.New("skin and temperature must be non-negative")
	}
	return nil
}

// Start runs the suite. It is a thread blocking method; each system is
// built, warmed up, and timed in turn, with results streamed to the
// configured output as they complete.
func (b *Bench) Start() error {
	out := io.Writer(os.Stdout)
	if b.FileOut != "" {
		f, err := os.Create(b.FileOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	pool := parallel.NewPool(b.Threads)
	fmt.Fprintf(out, "# threads = %d\n", pool.Workers())
	fmt.Fprintf(out,
		"# cells particles steps time steps/sec particle-steps/sec\n")

	for _, c := range b.Cells {
		dur, n, err := b.run(c, pool)
		if err != nil {
			return fmt.Errorf("%d cells: %w", c, err)
		}
		stepsPerSec := float64(b.Steps) / dur.Seconds()
		fmt.Fprintf(
			out, "%d %d %d %s %.2f %.3g\n",
			c, n, b.Steps, dur, stepsPerSec, stepsPerSec*float64(n),
		)
	}
	return nil
}

// run times one system size. The simulation is torn down before run
// returns so suite entries don't hold each other's memory.
func (b *Bench) run(cells int, pool *parallel.Pool) (
	time.Duration, int, error,
) {
	con := &sim.DefaultRunWrapper().Run
	con.Lattice = "FCC"
	con.LatticeCells = cells
	con.LatticeConstant = b.LatticeConst
	con.Temperature = b.Temperature
	con.Timestep = b.Timestep
	con.Cutoff = b.Cutoff
	con.Skin = b.Skin
	con.Steps = b.Steps

	s, err := sim.NewFromConfig(con, pool)
	if err != nil {
		return 0, 0, err
	}
	n := s.State().N

	s.Run(b.WarmupSteps)

	t0 := time.Now()
	s.Run(b.Steps)
	dur := time.Since(t0)

	if err := s.CheckStable(); err != nil {
		return 0, 0, err
	}
	return dur, n, nil
}
