package geom

import (
	"fmt"
)

// Box is a periodic simulation cell. It is spanned by the three basis
// vectors A, B, and C anchored at Origin, with an independent periodicity
// flag for each axis. Boxes are stored in LAMMPS upper-triangular form:
// A lies along x, B lies in the xy plane, and the three diagonal components
// are the box lengths. Orthogonal boxes have zero tilt.
//
// Box has value semantics. Components that cache box-derived parameters
// receive a copy through their UpdateBox methods and must re-derive those
// parameters whenever the geometry changes.
//
// NOTE: minimum-image separations are only correct while every tilt factor
// stays below roughly half the perpendicular box length. This is the
// standard restriction on triclinic cells and is not enforced here.
type Box struct {
	A, B, C  Vec
	Origin   Vec
	Periodic [3]bool
}

// NewBox creates a Box from explicit basis vectors. The vectors must be in
// upper-triangular form with positive diagonal components, which also
// guarantees a positive volume.
func NewBox(a, b, c, origin Vec, periodic [3]bool) (Box, error) {
	if a[1] != 0 || a[2] != 0 || b[2] != 0 {
		return Box{}, fmt.Errorf(
			"Box basis must be upper triangular: a = %v, b = %v, c = %v.",
			a, b, c,
		)
	}
	if a[0] <= 0 || b[1] <= 0 || c[2] <= 0 {
		return Box{}, fmt.Errorf(
			"Box lengths must be positive, but are (%g, %g, %g).",
			a[0], b[1], c[2],
		)
	}

	return Box{a, b, c, origin, periodic}, nil
}

// NewOrthoBox creates an axis-aligned fully periodic Box with the given
// side lengths and an origin at zero.
func NewOrthoBox(lx, ly, lz float64) (Box, error) {
	return NewBox(
		Vec{lx, 0, 0}, Vec{0, ly, 0}, Vec{0, 0, lz},
		Vec{}, [3]bool{true, true, true},
	)
}

// NewBoundsBox creates a Box from LAMMPS-style lo/hi bounds and tilt
// factors. Pass (0, 0, 0) tilts for an orthogonal box.
func NewBoundsBox(lo, hi Vec, xy, xz, yz float64) (Box, error) {
	lx, ly, lz := hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2]
	return NewBox(
		Vec{lx, 0, 0}, Vec{xy, ly, 0}, Vec{xz, yz, lz},
		lo, [3]bool{true, true, true},
	)
}

// Dims returns the per-axis box lengths, i.e. the diagonal components of
// the basis.
func (box *Box) Dims() Vec {
	return Vec{box.A[0], box.B[1], box.C[2]}
}

// Bounds returns the lo and hi corners of the box, ignoring tilt.
func (box *Box) Bounds() (lo, hi Vec) {
	d := box.Dims()
	return box.Origin, box.Origin.Add(d)
}

// IsTriclinic returns true if any tilt factor is nonzero.
func (box *Box) IsTriclinic() bool {
	xy, xz, yz := box.Tilts()
	return xy != 0 || xz != 0 || yz != 0
}

// Tilts returns the three triclinic tilt factors.
func (box *Box) Tilts() (xy, xz, yz float64) {
	return box.B[0], box.C[0], box.C[1]
}

// Volume returns the scalar triple product of the basis vectors.
func (box *Box) Volume() float64 {
	return box.A.Dot(box.B.Cross(box.C))
}

// Center returns the midpoint of the box.
func (box *Box) Center() Vec {
	mid := box.A.Add(box.B).Add(box.C).Scale(0.5)
	return box.Origin.Add(mid)
}

// PackLen is the length of the flat representation written by Pack.
const PackLen = 24

// Pack serializes the box into the flat layout consumed by compute
// backends: origin, the three basis vectors, the raw dimensions, and the
// periodicity flags, each in its own 4-element-aligned group padded with
// trailing zeros.
func (box *Box) Pack() []float32 {
	buf := make([]float32, PackLen)
	groups := [5]Vec{box.A, box.B, box.C, box.Dims(), {}}

	for k := 0; k < 3; k++ {
		buf[k] = float32(box.Origin[k])
		if box.Periodic[k] {
			groups[4][k] = 1
		}
	}
	for gi, g := range groups {
		for k := 0; k < 3; k++ {
			buf[4*(gi+1)+k] = float32(g[k])
		}
	}

	return buf
}
