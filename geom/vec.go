/*package geom contains the geometric primitives used by the simulation
core: three dimensional vectors, periodic simulation boxes, and the
minimum-image convention used to measure separations across periodic
boundaries.
*/
package geom

import (
	"math"
)

// Vec is a three dimensional vector.
type Vec [3]float64

// Add returns the sum of v and u.
func (v Vec) Add(u Vec) Vec {
	return Vec{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Sub returns the difference of v and u.
func (v Vec) Sub(u Vec) Vec {
	return Vec{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

// Scale returns v multiplied by the scalar a.
func (v Vec) Scale(a float64) Vec {
	return Vec{v[0] * a, v[1] * a, v[2] * a}
}

// Dot returns the inner product of v and u.
func (v Vec) Dot(u Vec) float64 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Cross returns the cross product of v and u.
func (v Vec) Cross(u Vec) Vec {
	return Vec{
		v[1]*u[2] - v[2]*u[1],
		v[2]*u[0] - v[0]*u[2],
		v[0]*u[1] - v[1]*u[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// MinImage maps the separation component d onto the minimum-image interval
// [-width/2, +width/2] for a periodic axis of the given width. Separations
// are assumed to come from particles already wrapped into the box, so at
// most one image shift is ever needed.
func MinImage(d, width float64) float64 {
	if d > 0.5*width {
		return d - width
	} else if d < -0.5*width {
		return d + width
	}
	return d
}

// Wrap maps the coordinate x onto the primary periodic interval
// [origin, origin+width).
func Wrap(x, origin, width float64) float64 {
	return x - math.Floor((x-origin)/width)*width
}
