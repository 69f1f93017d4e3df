/*package neighbor builds Verlet neighbor lists from a cell list. The list
is "full": if j is within range of i then i is also stored under j. This
doubles the memory and the pair work relative to a half list, but lets the
force kernel accumulate into each particle's own row with no write
contention at all.
*/
package neighbor

import (
	"sync/atomic"

	"github.com/phil-mansfield/gomd/cell"
	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/parallel"
)

// List is a fixed-capacity full neighbor list. Row i of Idx holds the
// MaxNeighbors slots reserved for particle i and Counts[i] the number of
// slots in use. Neighbors past capacity are dropped into an overflow
// counter rather than silently lost.
//
// The list is built out to Cutoff+Skin so it stays valid while particles
// drift by up to half the skin; staleness is decided by a
// DisplacementTracker.
type List struct {
	Cutoff, Skin float64
	MaxNeighbors int

	Counts []int32
	Idx    []int32

	cells *cell.List

	boxDims  geom.Vec
	periodic [3]bool
	searchSq float64
	overflow int64

	pool *parallel.Pool
}

// New creates a neighbor list with an effective search radius of
// cutoff+skin, backed by a cell list with the given per-cell capacity.
// UpdateBox must be called before the first Build.
func New(cutoff, skin float64, maxNeighbors, maxPerCell int,
	pool *parallel.Pool) *List {

	search := cutoff + skin
	return &List{
		Cutoff: cutoff, Skin: skin,
		MaxNeighbors: maxNeighbors,
		cells:        cell.New(search, maxPerCell, pool),
		searchSq:     search * search,
		pool:         pool,
	}
}

// Cells returns the underlying cell list.
func (l *List) Cells() *cell.List { return l.cells }

// UpdateBox propagates the new box geometry to the cell list and
// re-derives the packed parameters the build kernel reads.
func (l *List) UpdateBox(box geom.Box, n int) {
	l.cells.UpdateBox(box, n)
	l.boxDims = box.Dims()
	l.periodic = box.Periodic

	if len(l.Counts) != n {
		l.Counts = make([]int32, n)
		l.Idx = make([]int32, n*l.MaxNeighbors)
	}
}

// Build rebins the particles and rebuilds every neighbor row from the
// given positions. The stencil walk is parallel over particles; each
// particle writes only its own row.
func (l *List) Build(xs []float64) {
	l.cells.Build(xs)
	n := len(xs) / 3

	l.pool.Run(n, func(low, high int) {
		// Deduplicated wrapped cell indices along one axis. With fewer
		// than three cells on a periodic axis the raw -1/0/+1 stencil
		// would revisit a wrapped cell and double-count its particles.
		var stencil [3][3]int
		var stencilLen [3]int

		for i := low; i < high; i++ {
			cx, cy, cz := l.cells.Coords(int(l.cells.CellOf[i]))
			c := [3]int{cx, cy, cz}

			for k := 0; k < 3; k++ {
				stencilLen[k] = 0
				for d := -1; d <= 1; d++ {
					ck := c[k] + d
					if ck < 0 || ck >= l.cells.Dims[k] {
						if !l.periodic[k] {
							continue
						}
						ck = pMod(ck, l.cells.Dims[k])
					}
					if contains(stencil[k][:stencilLen[k]], ck) {
						continue
					}
					stencil[k][stencilLen[k]] = ck
					stencilLen[k]++
				}
			}

			l.buildRow(i, xs, &stencil, &stencilLen)
		}
	})
}

// buildRow fills particle i's neighbor row by scanning every cell in its
// stencil.
func (l *List) buildRow(
	i int, xs []float64, stencil *[3][3]int, stencilLen *[3]int,
) {
	xi := xs[3*i]
	yi := xs[3*i+1]
	zi := xs[3*i+2]

	count := int32(0)
	row := l.Idx[i*l.MaxNeighbors : (i+1)*l.MaxNeighbors]

	for sz := 0; sz < stencilLen[2]; sz++ {
		for sy := 0; sy < stencilLen[1]; sy++ {
			for sx := 0; sx < stencilLen[0]; sx++ {
				cidx := l.cells.Idx(
					stencil[0][sx], stencil[1][sy], stencil[2][sz],
				)

				nc := int(l.cells.Count[cidx])
				base := cidx * l.cells.MaxPerCell
				for s := 0; s < nc; s++ {
					j := l.cells.Cells[base+s]
					if int(j) == i {
						continue
					}

					dx := xi - xs[3*j]
					dy := yi - xs[3*j+1]
					dz := zi - xs[3*j+2]
					if l.periodic[0] {
						dx = geom.MinImage(dx, l.boxDims[0])
					}
					if l.periodic[1] {
						dy = geom.MinImage(dy, l.boxDims[1])
					}
					if l.periodic[2] {
						dz = geom.MinImage(dz, l.boxDims[2])
					}

					if dx*dx+dy*dy+dz*dz >= l.searchSq {
						continue
					}

					if int(count) >= l.MaxNeighbors {
						atomic.AddInt64(&l.overflow, 1)
						continue
					}
					row[count] = j
					count++
				}
			}
		}
	}

	l.Counts[i] = count
}

// Neighbors returns particle i's neighbor row. The returned slice aliases
// the list's internal storage and is valid until the next Build.
func (l *List) Neighbors(i int) []int32 {
	return l.Idx[i*l.MaxNeighbors : i*l.MaxNeighbors+int(l.Counts[i])]
}

// Overflow returns the number of neighbors dropped from full rows since
// the last ResetOverflow call. A nonzero value means forces are being
// undercounted and MaxNeighbors needs to grow.
func (l *List) Overflow() int64 {
	return atomic.LoadInt64(&l.overflow)
}

// ResetOverflow clears the overflow counter.
func (l *List) ResetOverflow() {
	atomic.StoreInt64(&l.overflow, 0)
}

func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}

func contains(xs []int, x int) bool {
	for _, y := range xs {
		if y == x {
			return true
		}
	}
	return false
}
