package bench

import (
	"io/ioutil"
	"os"
	"path"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, text string) string {
	name := path.Join(dir, "bench.toml")
	if err := ioutil.WriteFile(name, []byte(text), 0644); err != nil {
		t.Fatal(err.Error())
	}
	return name
}

func TestNewParsesExample(t *testing.T) {
	dir, err := ioutil.TempDir("", "gomd_bench_test")
	if err != nil {
		t.Fatal(err.Error())
	}
	defer os.RemoveAll(dir)

	b, err := New(writeConfig(t, dir, ExampleBenchFile))
	if err != nil {
		t.Fatal(err.Error())
	}

	if len(b.Cells) != 4 || b.Cells[0] != 4 {
		t.Errorf("Example cells parsed as %v.", b.Cells)
	}
	if b.Steps != 200 || b.LatticeConst != 1.6 {
		t.Errorf("Example parsed as steps = %d, lattice_constant = %g.",
			b.Steps, b.LatticeConst)
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	table := []string{
		"[bench]\ncells = []\nsteps = 10\n" +
			"lattice_constant = 1.6\ntimestep = 0.005\ncutoff = 2.5\n",
		"[bench]\ncells = [2]\nsteps = 0\n" +
			"lattice_constant = 1.6\ntimestep = 0.005\ncutoff = 2.5\n",
		"[bench]\ncells = [0]\nsteps = 10\n" +
			"lattice_constant = 1.6\ntimestep = 0.005\ncutoff = 2.5\n",
		"[bench]\ncells = [2]\nsteps = 10\n" +
			"lattice_constant = 0\ntimestep = 0.005\ncutoff = 2.5\n",
		"[bench]\ncells = [2]\nsteps = 10\nwarmup_steps = -1\n" +
			"lattice_constant = 1.6\ntimestep = 0.005\ncutoff = 2.5\n",
	}

	dir, err := ioutil.TempDir("", "gomd_bench_test")
	if err != nil {
		t.Fatal(err.Error())
	}
	defer os.RemoveAll(dir)

	for i, text := range table {
		if _, err := New(writeConfig(t, dir, text)); err == nil {
			t.Errorf("%d) Invalid benchmark config accepted.", i+1)
		}
	}
}

func TestStart(t *testing.T) {
	dir, err := ioutil.TempDir("", "gomd_bench_test")
	if err != nil {
		t.Fatal(err.Error())
	}
	defer os.RemoveAll(dir)

	outName := path.Join(dir, "bench.out")
	text := "[bench]\ncells = [2, 3]\nsteps = 5\nwarmup_steps = 1\n" +
		"lattice_constant = 1.6\ntemperature = 0.5\ntimestep = 0.005\n" +
		"cutoff = 1.2\nskin = 0.3\nthreads = 2\n" +
		"file_out = \"" + outName + "\"\n"

	b, err := New(writeConfig(t, dir, text))
	if err != nil {
		t.Fatal(err.Error())
	}
	if err := b.Start(); err != nil {
		t.Fatal(err.Error())
	}

	data, err := ioutil.ReadFile(outName)
	if err != nil {
		t.Fatal(err.Error())
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	// Two header lines, then one result line per size.
	if len(lines) != 4 {
		t.Fatalf("Expected 4 output lines, got %d:\n%s",
			len(lines), string(data))
	}
	if !strings.HasPrefix(lines[2], "2 32 5 ") {
		t.Errorf("First result line is '%s'.", lines[2])
	}
	if !strings.HasPrefix(lines[3], "3 108 5 ") {
		t.Errorf("Second result line is '%s'.", lines[3])
	}
}
