package neighbor

import (
	"math"
	"sync/atomic"

	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/parallel"
)

// dispScale converts squared displacements to integers for the atomic max
// reduction. Anything below 1/dispScale is treated as zero drift, which is
// far below any displacement that could matter against a physical skin.
const dispScale = 1e6

// DisplacementTracker records how far each particle has drifted since the
// last neighbor list rebuild. It owns the checkpoint position buffer and a
// single atomic accumulator holding the largest squared displacement seen,
// and is shared between the integrator (which accumulates) and the
// orchestrator (which asks whether the list has gone stale).
type DisplacementTracker struct {
	ref []float64

	boxDims  geom.Vec
	periodic [3]bool

	maxSq int64
}

// NewDisplacementTracker creates a tracker for n particles.
func NewDisplacementTracker(n int) *DisplacementTracker {
	return &DisplacementTracker{ref: make([]float64, 3*n)}
}

// UpdateBox re-derives the cached geometry used for minimum-image
// displacement measurement.
func (tr *DisplacementTracker) UpdateBox(box geom.Box) {
	tr.boxDims = box.Dims()
	tr.periodic = box.Periodic
}

// Save snapshots the current positions as the new drift baseline and
// resets the accumulator. It must be called immediately after every
// neighbor list rebuild; skipping it silently degrades staleness
// detection.
func (tr *DisplacementTracker) Save(xs []float64) {
	copy(tr.ref, xs)
	atomic.StoreInt64(&tr.maxSq, 0)
}

// Accumulate folds particle i's drift since the last Save into the max
// reduction. Safe to call concurrently from integration kernels.
func (tr *DisplacementTracker) Accumulate(i int, x, y, z float64) {
	dx := x - tr.ref[3*i]
	dy := y - tr.ref[3*i+1]
	dz := z - tr.ref[3*i+2]
	if tr.periodic[0] {
		dx = geom.MinImage(dx, tr.boxDims[0])
	}
	if tr.periodic[1] {
		dy = geom.MinImage(dy, tr.boxDims[1])
	}
	if tr.periodic[2] {
		dz = geom.MinImage(dz, tr.boxDims[2])
	}

	// Round instead of truncating: truncation consistently under-reports
	// and would make NeedsRebuild trigger late at the margin.
	sq := dx*dx + dy*dy + dz*dz
	parallel.MaxInt64(&tr.maxSq, int64(math.Round(sq*dispScale)))
}

// MaxSq returns the largest squared displacement accumulated since the
// last Save.
func (tr *DisplacementTracker) MaxSq() float64 {
	return float64(atomic.LoadInt64(&tr.maxSq)) / dispScale
}

// NeedsRebuild reports whether the neighbor list may now be missing true
// neighbors. The standard conservative criterion charges the full maximum
// drift to two approaching particles at once, hence the factor of two.
func (tr *DisplacementTracker) NeedsRebuild(skin float64) bool {
	return 2*math.Sqrt(tr.MaxSq()) > skin
}
