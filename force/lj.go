package force

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gomd/geom"
	"github.com/phil-mansfield/gomd/neighbor"
	"github.com/phil-mansfield/gomd/parallel"
	"github.com/phil-mansfield/gomd/state"
)

// LennardJones is the cut 12-6 Lennard-Jones potential in the LAMMPS
// formulation. The kernel works entirely from the precomputed
// coefficients
//
//	lj1 = 48 eps sigma^12    lj2 = 24 eps sigma^6
//	lj3 =  4 eps sigma^12    lj4 =  4 eps sigma^6
//
// so no powers are evaluated per pair, and energies are shifted by the
// potential's value at the cutoff so they go to zero there.
//
// A type pair whose coefficients were never set keeps all-zero
// coefficients and contributes exactly zero force and energy. That is
// legal but rarely what anyone wants, so SetCoeff should be called for
// every pair in use.
type LennardJones struct {
	ntypes    int
	globalCut float64

	eps, sigma, cut    pairMatrix
	lj1, lj2, lj3, lj4 pairMatrix
	cutSq, offset      pairMatrix

	eatom []float64

	boxDims  geom.Vec
	periodic [3]bool

	pool *parallel.Pool
}

// NewLennardJones creates a Lennard-Jones potential for the given number
// of particle types. globalCut is the cutoff used by pairs that don't
// specify their own.
func NewLennardJones(ntypes int, globalCut float64,
	pool *parallel.Pool) (*LennardJones, error) {

	if ntypes < 1 {
		return nil, fmt.Errorf("Need at least one type, got %d.", ntypes)
	}
	if globalCut <= 0 {
		return nil, fmt.Errorf("Cutoff must be positive, got %g.", globalCut)
	}

	lj := &LennardJones{
		ntypes: ntypes, globalCut: globalCut,
		eps: newPairMatrix(ntypes), sigma: newPairMatrix(ntypes),
		cut: newPairMatrix(ntypes),
		lj1: newPairMatrix(ntypes), lj2: newPairMatrix(ntypes),
		lj3: newPairMatrix(ntypes), lj4: newPairMatrix(ntypes),
		cutSq: newPairMatrix(ntypes), offset: newPairMatrix(ntypes),
		pool: pool,
	}
	return lj, nil
}

// SetCoeff stores (epsilon, sigma) and optionally a per-pair cutoff for
// the type pair (ti, tj), then recomputes the derived coefficients for
// that pair.
func (lj *LennardJones) SetCoeff(ti, tj int, params ...float64) error {
	if err := checkTypePair(ti, tj, lj.ntypes); err != nil {
		return err
	}
	if len(params) != 2 && len(params) != 3 {
		return fmt.Errorf(
			"LennardJones.SetCoeff takes (epsilon, sigma) or (epsilon, "+
				"sigma, cutoff), got %d parameters.", len(params),
		)
	}

	eps, sigma := params[0], params[1]
	cut := lj.globalCut
	if len(params) == 3 {
		cut = params[2]
	}
	if cut <= 0 {
		return fmt.Errorf("Pair cutoff must be positive, got %g.", cut)
	}

	lj.eps.set(ti, tj, eps)
	lj.sigma.set(ti, tj, sigma)
	lj.cut.set(ti, tj, cut)

	s6 := math.Pow(sigma, 6)
	s12 := s6 * s6
	lj.lj1.set(ti, tj, 48*eps*s12)
	lj.lj2.set(ti, tj, 24*eps*s6)
	lj.lj3.set(ti, tj, 4*eps*s12)
	lj.lj4.set(ti, tj, 4*eps*s6)
	lj.cutSq.set(ti, tj, cut*cut)

	rc6 := math.Pow(sigma/cut, 6)
	lj.offset.set(ti, tj, 4*eps*(rc6*rc6-rc6))

	return nil
}

// UpdateBox re-derives the cached geometry used by the kernel.
func (lj *LennardJones) UpdateBox(box geom.Box) {
	lj.boxDims = box.Dims()
	lj.periodic = box.Periodic
}

// ShrinkCutoffs clamps the global cutoff and every configured per-pair
// cutoff to max, recomputing the derived coefficients of the pairs that
// change. This alters the physics and exists only to support explicit
// shrink-on-small-box policies.
func (lj *LennardJones) ShrinkCutoffs(max float64) {
	if lj.globalCut > max {
		lj.globalCut = max
	}
	for ti := 0; ti < lj.ntypes; ti++ {
		for tj := ti; tj < lj.ntypes; tj++ {
			cut := lj.cut.at(ti, tj)
			if cut == 0 || cut <= max {
				continue
			}
			lj.SetCoeff(ti, tj, lj.eps.at(ti, tj), lj.sigma.at(ti, tj), max)
		}
	}
}

// MaxCutoff returns the largest pair cutoff currently configured.
func (lj *LennardJones) MaxCutoff() float64 {
	max := lj.globalCut
	for _, c := range lj.cut.vals {
		if c > max {
			max = c
		}
	}
	return max
}

// Compute zeroes the forces and evaluates the pair kernel for every
// particle. The pass is parallel over particles with no shared writes:
// the full neighbor list means each particle accumulates both halves of
// every interaction it takes part in.
func (lj *LennardJones) Compute(
	s *state.State, l *neighbor.List, withEnergy bool,
) {
	n := s.N
	if withEnergy && len(lj.eatom) != n {
		lj.eatom = make([]float64, n)
	}

	xs, fs := s.X, s.F
	lx, ly, lz := lj.boxDims[0], lj.boxDims[1], lj.boxDims[2]
	px, py, pz := lj.periodic[0], lj.periodic[1], lj.periodic[2]

	lj.pool.Run(n, func(low, high int) {
		for i := low; i < high; i++ {
			xi, yi, zi := xs[3*i], xs[3*i+1], xs[3*i+2]
			ti := s.Type[i]

			var fx, fy, fz, evdwl float64
			for _, j := range l.Neighbors(i) {
				dx := xi - xs[3*j]
				dy := yi - xs[3*j+1]
				dz := zi - xs[3*j+2]
				if px {
					dx = geom.MinImage(dx, lx)
				}
				if py {
					dy = geom.MinImage(dy, ly)
				}
				if pz {
					dz = geom.MinImage(dz, lz)
				}

				tj := s.Type[j]
				r2 := dx*dx + dy*dy + dz*dz
				if r2 >= lj.cutSq.at(ti, tj) {
					continue
				}

				r2inv := 1 / r2
				r6inv := r2inv * r2inv * r2inv
				forcelj := r6inv * (lj.lj1.at(ti, tj)*r6inv - lj.lj2.at(ti, tj))
				fpair := forcelj * r2inv

				fx += dx * fpair
				fy += dy * fpair
				fz += dz * fpair

				if withEnergy {
					// Half of the pair energy: the full neighbor list
					// visits every pair twice.
					evdwl += 0.5 * (r6inv*(lj.lj3.at(ti, tj)*r6inv-
						lj.lj4.at(ti, tj)) - lj.offset.at(ti, tj))
				}
			}

			fs[3*i] = fx
			fs[3*i+1] = fy
			fs[3*i+2] = fz
			if withEnergy {
				lj.eatom[i] = evdwl
			}
		}
	})
}

// ComputeWithEnergy evaluates forces with energy accumulation enabled and
// reduces the per-particle energies to the total potential energy.
func (lj *LennardJones) ComputeWithEnergy(
	s *state.State, l *neighbor.List,
) float64 {
	lj.Compute(s, l, true)

	return lj.pool.RunSum(s.N, func(low, high int) float64 {
		sum := 0.0
		for i := low; i < high; i++ {
			sum += lj.eatom[i]
		}
		return sum
	})
}
