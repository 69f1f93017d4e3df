/*package cell bins particles into a uniform spatial grid whose cells are
at least as wide as the neighbor search radius, reducing neighbor search
from O(N^2) to near O(N): all neighbors of a particle within the search
radius are guaranteed to sit in the 3x3x3 block of cells around it.
*/
package cell

import (
	"sync/atomic"

	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/parallel"
)

// List is a cell list over a periodic box. Per-cell storage has fixed
// capacity so the whole structure can live in flat preallocated buffers;
// particles that land in a full cell are counted in an overflow counter
// instead of being silently lost.
type List struct {
	Search     float64
	MaxPerCell int

	// Dims is the cell grid size along each axis and CellSize the edge
	// lengths of a single cell, stretched so the grid exactly tiles the
	// box.
	Dims     [3]int
	CellSize [3]float64

	// Count holds the number of particles binned into each cell, Cells
	// the particle indices themselves (MaxPerCell slots per cell), and
	// CellOf maps each particle back to its containing cell.
	Count  []int32
	Cells  []int32
	CellOf []int32

	boxDims  geom.Vec
	origin   geom.Vec
	overflow int64

	pool *parallel.Pool
}

// New creates a cell list for the given search radius and per-cell
// capacity. UpdateBox must be called before the first Build.
func New(search float64, maxPerCell int, pool *parallel.Pool) *List {
	return &List{Search: search, MaxPerCell: maxPerCell, pool: pool}
}

// UpdateBox recomputes the grid dimensions for a new box geometry and
// reallocates the per-cell storage. Cell counts per axis are
// floor(boxLength/search) with a minimum of one, and the effective cell
// size is stretched so the cells exactly tile the box.
func (l *List) UpdateBox(box geom.Box, n int) {
	l.boxDims = box.Dims()
	l.origin = box.Origin

	for k := 0; k < 3; k++ {
		d := int(l.boxDims[k] / l.Search)
		if d < 1 {
			d = 1
		}
		l.Dims[k] = d
		l.CellSize[k] = l.boxDims[k] / float64(d)
	}

	cells := l.Dims[0] * l.Dims[1] * l.Dims[2]
	if len(l.Count) != cells {
		l.Count = make([]int32, cells)
		l.Cells = make([]int32, cells*l.MaxPerCell)
	}
	if len(l.CellOf) != n {
		l.CellOf = make([]int32, n)
	}
}

// Idx returns the flat cell index for the cell coordinates (x, y, z).
func (l *List) Idx(x, y, z int) int {
	return x + y*l.Dims[0] + z*l.Dims[0]*l.Dims[1]
}

// Coords returns the cell coordinates corresponding to a flat cell index.
func (l *List) Coords(idx int) (x, y, z int) {
	x = idx % l.Dims[0]
	y = (idx / l.Dims[0]) % l.Dims[1]
	z = idx / (l.Dims[0] * l.Dims[1])
	return x, y, z
}

// Build rebins all particles from their current positions. Binning is
// parallel over particles: each particle wraps its position into the box,
// computes its cell, and claims the next free slot in that cell with an
// atomic increment. Slot order within a cell is therefore unspecified.
func (l *List) Build(xs []float64) {
	n := len(xs) / 3

	l.pool.Run(len(l.Count), func(low, high int) {
		for c := low; c < high; c++ {
			l.Count[c] = 0
		}
	})

	l.pool.Run(n, func(low, high int) {
		for i := low; i < high; i++ {
			var c [3]int
			for k := 0; k < 3; k++ {
				x := geom.Wrap(xs[3*i+k], l.origin[k], l.boxDims[k])
				ck := int((x - l.origin[k]) / l.CellSize[k])
				// Floating rounding can push a wrapped coordinate onto
				// the upper box face.
				if ck >= l.Dims[k] {
					ck = l.Dims[k] - 1
				} else if ck < 0 {
					ck = 0
				}
				c[k] = ck
			}

			cidx := l.Idx(c[0], c[1], c[2])
			l.CellOf[i] = int32(cidx)

			slot := atomic.AddInt32(&l.Count[cidx], 1) - 1
			if int(slot) >= l.MaxPerCell {
				atomic.AddInt64(&l.overflow, 1)
				continue
			}
			l.Cells[cidx*l.MaxPerCell+int(slot)] = int32(i)
		}
	})

	// Counts past capacity only happen on overflow; clamp them so readers
	// never walk out of a cell's slot range.
	for c := range l.Count {
		if int(l.Count[c]) > l.MaxPerCell {
			l.Count[c] = int32(l.MaxPerCell)
		}
	}
}

// Overflow returns the number of particles dropped from full cells since
// the last ResetOverflow call.
func (l *List) Overflow() int64 {
	return atomic.LoadInt64(&l.overflow)
}

// ResetOverflow clears the overflow counter.
func (l *List) ResetOverflow() {
	atomic.StoreInt64(&l.overflow, 0)
}
