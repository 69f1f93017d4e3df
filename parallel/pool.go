/*package parallel is the compute backend of the simulation: a worker pool
that dispatches data-parallel kernels over contiguous index ranges. Every
per-particle and per-cell pass in the engine is expressed as a kernel of
the form f(low, high) and scheduled here, so swapping in a different
backend only touches this package.
*/
package parallel

import (
	"runtime"
)

// Pool schedules kernels across a fixed set of workers. Run returns only
// after every chunk has completed, which gives the caller the same
// ordering guarantee as a single in-order device queue: kernels dispatched
// back to back observe each other's writes.
type Pool struct {
	workers int
}

// NewPool creates a Pool with the given number of workers. A non-positive
// count selects one worker per logical core.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.workers }

// Run splits [0, n) into one contiguous chunk per worker and calls
// kernel(low, high) on each. The last chunk runs on the calling goroutine
// so that small dispatches don't pay for a full fan-out.
func (p *Pool) Run(n int, kernel func(low, high int)) {
	if n <= 0 {
		return
	}

	workers := p.workers
	if workers > n {
		workers = n
	}
	if workers == 1 {
		kernel(0, n)
		return
	}

	out := make(chan int, workers)
	for id := 0; id < workers-1; id++ {
		go func(id int) {
			low, high := chunk(id, workers, n)
			kernel(low, high)
			out <- id
		}(id)
	}
	low, high := chunk(workers-1, workers, n)
	kernel(low, high)

	for i := 0; i < workers-1; i++ {
		<-out
	}
}

// RunSum runs kernel over [0, n) like Run and sums the partial results of
// every chunk. Reductions are accumulated per chunk and combined serially
// afterwards so that no kernel ever contends on a shared accumulator.
func (p *Pool) RunSum(n int, kernel func(low, high int) float64) float64 {
	if n <= 0 {
		return 0
	}

	workers := p.workers
	if workers > n {
		workers = n
	}

	partial := make([]float64, workers)
	out := make(chan int, workers)
	for id := 0; id < workers-1; id++ {
		go func(id int) {
			low, high := chunk(id, workers, n)
			partial[id] = kernel(low, high)
			out <- id
		}(id)
	}
	low, high := chunk(workers-1, workers, n)
	partial[workers-1] = kernel(low, high)

	for i := 0; i < workers-1; i++ {
		<-out
	}

	sum := 0.0
	for _, x := range partial {
		sum += x
	}
	return sum
}

// chunk returns the index range owned by worker id. Remainder elements go
// to the leading chunks, so chunk sizes never differ by more than one.
func chunk(id, workers, n int) (low, high int) {
	size, rem := n/workers, n%workers

	low = id*size + rem
	if id < rem {
		low = id * (size + 1)
	}
	high = low + size
	if id < rem {
		high++
	}
	return low, high
}
