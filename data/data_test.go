package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const atomicFile = `LJ test configuration

3 atoms
2 atom types

0.0 10.0 xlo xhi
-5.0 5.0 ylo yhi
0.0 20.0 zlo zhi

Masses

1 1.5
2 2.5

Atoms # atomic

3 2 1.0 2.0 3.0
1 1 0.5 0.0 0.25
2 1 4.0 -1.0 9.0
`

const molecularFile = `molecular style, no masses

2 atoms
1 atom types

0 4 xlo xhi
0 4 ylo yhi
0 4 zlo zhi

Atoms # molecular

1 1 1 0.5 0.5 0.5
2 1 1 1.5 1.5 1.5
`

func TestReadAtomic(t *testing.T) {
	snap, err := Read(strings.NewReader(atomicFile))
	if err != nil {
		t.Fatal(err.Error())
	}

	assert.Equal(t, 3, snap.NumAtoms)
	assert.Equal(t, 2, snap.NumTypes)

	d := snap.Box.Dims()
	assert.Equal(t, 10.0, d[0])
	assert.Equal(t, 10.0, d[1])
	assert.Equal(t, 20.0, d[2])
	assert.Equal(t, -5.0, snap.Box.Origin[1])

	// Records are out of order in the file; they come back sorted by ID
	// with types shifted to be 0-indexed.
	assert.Equal(t, []int{0, 0, 1}, snap.Types)
	assert.Equal(t, 0.5, snap.Positions[0], "atom 1 x")
	assert.Equal(t, 4.0, snap.Positions[3], "atom 2 x")
	assert.Equal(t, 3.0, snap.Positions[8], "atom 3 z")

	assert.Equal(t, []float64{1.5, 2.5}, snap.Masses)
}

func TestReadMolecular(t *testing.T) {
	snap, err := Read(strings.NewReader(molecularFile))
	if err != nil {
		t.Fatal(err.Error())
	}

	assert.Equal(t, 2, snap.NumAtoms)
	assert.Equal(t, []int{0, 0}, snap.Types)
	assert.Equal(t, 0.5, snap.Positions[0])
	assert.Equal(t, 1.5, snap.Positions[3])

	// No Masses section: every type defaults to 1.
	assert.Equal(t, []float64{1}, snap.Masses)
}

func TestReadTilted(t *testing.T) {
	file := `tilted box

1 atoms
1 atom types

0 10 xlo xhi
0 10 ylo yhi
0 10 zlo zhi
1.0 0.5 0.25 xy xz yz

Atoms

1 1 1 1 1
`
	snap, err := Read(strings.NewReader(file))
	if err != nil {
		t.Fatal(err.Error())
	}

	if !snap.Box.IsTriclinic() {
		t.Errorf("Tilted file produced an orthogonal box.")
	}
	xy, xz, yz := snap.Box.Tilts()
	assert.Equal(t, 1.0, xy)
	assert.Equal(t, 0.5, xz)
	assert.Equal(t, 0.25, yz)
}

func TestReadErrors(t *testing.T) {
	table := []struct {
		name, file string
	}{
		{"empty", ""},
		{"no atoms header", "c\n\n1 atom types\n0 1 xlo xhi\n" +
			"0 1 ylo yhi\n0 1 zlo zhi\n\nAtoms\n\n1 1 0 0 0\n"},
		{"missing bounds", "c\n\n1 atoms\n1 atom types\n0 1 xlo xhi\n" +
			"0 1 ylo yhi\n\nAtoms\n\n1 1 0 0 0\n"},
		{"inverted bounds", "c\n\n1 atoms\n1 atom types\n1 0 xlo xhi\n" +
			"0 1 ylo yhi\n0 1 zlo zhi\n\nAtoms\n\n1 1 0 0 0\n"},
		{"short atom record", "c\n\n1 atoms\n1 atom types\n0 1 xlo xhi\n" +
			"0 1 ylo yhi\n0 1 zlo zhi\n\nAtoms\n\n1 1 0 0\n"},
		{"missing atoms", "c\n\n2 atoms\n1 atom types\n0 1 xlo xhi\n" +
			"0 1 ylo yhi\n0 1 zlo zhi\n\nAtoms\n\n1 1 0 0 0\n"},
		{"bad type", "c\n\n1 atoms\n1 atom types\n0 1 xlo xhi\n" +
			"0 1 ylo yhi\n0 1 zlo zhi\n\nAtoms\n\n1 7 0 0 0\n"},
		{"duplicate id", "c\n\n2 atoms\n1 atom types\n0 1 xlo xhi\n" +
			"0 1 ylo yhi\n0 1 zlo zhi\n\nAtoms\n\n1 1 0 0 0\n1 1 1 1 1\n"},
	}

	for i, test := range table {
		_, err := Read(strings.NewReader(test.file))
		if err == nil {
			t.Errorf("%d) %s file accepted.", i+1, test.name)
		}
	}
}
