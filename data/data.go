/*package data reads LAMMPS-style data files describing an initial atomic
configuration: a header with the atom count, type count and box bounds,
an optional Masses section, and an Atoms section in either the atomic or
the molecular record style. The result is resequenced into the dense
0-indexed particle space the simulation core uses internally.
*/
package data

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/phil-mansfield/gomd/geom"
)

// Snapshot is a parsed particle configuration. Positions is a flat 3N
// array ordered by ascending atom ID, Types holds 0-indexed type indices
// in the same order, and Masses holds one mass per type, defaulting to 1
// when the file has no Masses section.
type Snapshot struct {
	NumAtoms int
	NumTypes int

	Box       geom.Box
	Positions []float64
	Types     []int
	Masses    []float64
}

type atomRecord struct {
	id, typ int
	x, y, z float64
}

// ReadFile reads a data file from disk.
func ReadFile(fname string) (*Snapshot, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snap, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fname, err.Error())
	}
	return snap, nil
}

// Read parses a data file.
func Read(r io.Reader) (*Snapshot, error) {
	sc := bufio.NewScanner(r)

	// The first line is a free-form comment.
	if !sc.Scan() {
		return nil, fmt.Errorf("File is empty.")
	}

	snap := &Snapshot{NumAtoms: -1, NumTypes: -1}
	var (
		lo, hi     geom.Vec
		xy, xz, yz float64
		haveBounds [3]bool
		atoms      []atomRecord
		masses     map[int]float64
	)

	for sc.Scan() {
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch {
		case len(fields) == 2 && fields[1] == "atoms":
			n, err := strconv.Atoi(fields[0])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("Invalid atom count line '%s'.", line)
			}
			snap.NumAtoms = n

		case len(fields) == 3 && fields[1] == "atom" && fields[2] == "types":
			n, err := strconv.Atoi(fields[0])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("Invalid atom types line '%s'.", line)
			}
			snap.NumTypes = n

		case len(fields) == 4 && fields[3] == "xhi":
			if err := parseBounds(fields, &lo[0], &hi[0]); err != nil {
				return nil, err
			}
			haveBounds[0] = true
		case len(fields) == 4 && fields[3] == "yhi":
			if err := parseBounds(fields, &lo[1], &hi[1]); err != nil {
				return nil, err
			}
			haveBounds[1] = true
		case len(fields) == 4 && fields[3] == "zhi":
			if err := parseBounds(fields, &lo[2], &hi[2]); err != nil {
				return nil, err
			}
			haveBounds[2] = true

		case len(fields) == 6 && fields[3] == "xy":
			var err error
			if xy, err = strconv.ParseFloat(fields[0], 64); err != nil {
				return nil, fmt.Errorf("Invalid tilt line '%s'.", line)
			}
			if xz, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, fmt.Errorf("Invalid tilt line '%s'.", line)
			}
			if yz, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("Invalid tilt line '%s'.", line)
			}

		case fields[0] == "Masses":
			var err error
			if masses, err = readMasses(sc, snap.NumTypes); err != nil {
				return nil, err
			}

		case fields[0] == "Atoms":
			var err error
			if atoms, err = readAtoms(sc, snap.NumAtoms); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("Unrecognized line '%s'.", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if snap.NumAtoms < 0 {
		return nil, fmt.Errorf("File has no 'atoms' header line.")
	}
	if snap.NumTypes < 0 {
		return nil, fmt.Errorf("File has no 'atom types' header line.")
	}
	for k, have := range haveBounds {
		if !have {
			return nil, fmt.Errorf(
				"File has no bounds for axis %d.", k,
			)
		}
	}
	if atoms == nil {
		return nil, fmt.Errorf("File has no Atoms section.")
	}
	if len(atoms) != snap.NumAtoms {
		return nil, fmt.Errorf(
			"Atoms section holds %d records, header says %d atoms.",
			len(atoms), snap.NumAtoms,
		)
	}

	box, err := geom.NewBoundsBox(lo, hi, xy, xz, yz)
	if err != nil {
		return nil, err
	}
	snap.Box = box

	// Atom IDs are resequenced by sorted ID into dense 0..N-1 indices.
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].id < atoms[j].id })

	snap.Positions = make([]float64, 3*snap.NumAtoms)
	snap.Types = make([]int, snap.NumAtoms)
	for i, a := range atoms {
		if i > 0 && atoms[i-1].id == a.id {
			return nil, fmt.Errorf("Duplicate atom ID %d.", a.id)
		}
		if a.typ < 1 || a.typ > snap.NumTypes {
			return nil, fmt.Errorf(
				"Atom %d has type %d, but the file declares %d types.",
				a.id, a.typ, snap.NumTypes,
			)
		}
		snap.Positions[3*i] = a.x
		snap.Positions[3*i+1] = a.y
		snap.Positions[3*i+2] = a.z
		snap.Types[i] = a.typ - 1
	}

	snap.Masses = make([]float64, snap.NumTypes)
	for i := range snap.Masses {
		snap.Masses[i] = 1
	}
	for typ, m := range masses {
		snap.Masses[typ-1] = m
	}

	return snap, nil
}

func parseBounds(fields []string, lo, hi *float64) error {
	var err error
	if *lo, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return fmt.Errorf("Invalid bound '%s'.", fields[0])
	}
	if *hi, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return fmt.Errorf("Invalid bound '%s'.", fields[1])
	}
	if *hi <= *lo {
		return fmt.Errorf(
			"Box bounds [%g, %g] are empty or inverted.", *lo, *hi,
		)
	}
	return nil
}

func readMasses(sc *bufio.Scanner, ntypes int) (map[int]float64, error) {
	if ntypes < 0 {
		return nil, fmt.Errorf(
			"Masses section appears before the 'atom types' header line.",
		)
	}

	masses := map[int]float64{}
	for len(masses) < ntypes && sc.Scan() {
		fields := strings.Fields(stripComment(sc.Text()))
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf(
				"Invalid Masses line '%s'.", sc.Text(),
			)
		}

		typ, err := strconv.Atoi(fields[0])
		if err != nil || typ < 1 || typ > ntypes {
			return nil, fmt.Errorf("Invalid mass type '%s'.", fields[0])
		}
		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || m <= 0 {
			return nil, fmt.Errorf(
				"Type %d has invalid mass '%s'.", typ, fields[1],
			)
		}
		masses[typ] = m
	}

	return masses, nil
}

func readAtoms(sc *bufio.Scanner, natoms int) ([]atomRecord, error) {
	if natoms < 0 {
		return nil, fmt.Errorf(
			"Atoms section appears before the 'atoms' header line.",
		)
	}

	atoms := make([]atomRecord, 0, natoms)
	for len(atoms) < natoms && sc.Scan() {
		fields := strings.Fields(stripComment(sc.Text()))
		if len(fields) == 0 {
			continue
		}

		// The atomic style is (id, type, x, y, z); the molecular style
		// inserts a molecule ID after the atom ID. They are told apart
		// by field count alone.
		var idIdx, typIdx, xIdx int
		switch len(fields) {
		case 5:
			idIdx, typIdx, xIdx = 0, 1, 2
		case 6:
			idIdx, typIdx, xIdx = 0, 2, 3
		default:
			return nil, fmt.Errorf(
				"Atom record '%s' has %d fields; atomic records have 5 "+
					"and molecular records 6.", sc.Text(), len(fields),
			)
		}

		var (
			a   atomRecord
			err error
		)
		if a.id, err = strconv.Atoi(fields[idIdx]); err != nil {
			return nil, fmt.Errorf("Invalid atom ID '%s'.", fields[idIdx])
		}
		if a.typ, err = strconv.Atoi(fields[typIdx]); err != nil {
			return nil, fmt.Errorf("Invalid atom type '%s'.", fields[typIdx])
		}
		coords := [3]*float64{&a.x, &a.y, &a.z}
		for k := 0; k < 3; k++ {
			*coords[k], err = strconv.ParseFloat(fields[xIdx+k], 64)
			if err != nil {
				return nil, fmt.Errorf(
					"Atom %d has invalid coordinate '%s'.",
					a.id, fields[xIdx+k],
				)
			}
		}

		atoms = append(atoms, a)
	}

	if len(atoms) != natoms {
		return nil, fmt.Errorf(
			"Atoms section ended after %d of %d records.", len(atoms), natoms,
		)
	}
	return atoms, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
