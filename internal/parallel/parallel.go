// Package parallel spreads independent loop iterations across CPU cores. The
// CPU backend uses it to split convolution and pooling work over batch and
// channel planes.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how work is split.
type Config struct {
	Workers      int // Number of worker goroutines.
	MinPerWorker int // Minimum iterations per goroutine; below this, run sequentially.
}

// DefaultConfig sizes the worker count to the CPU count.
func DefaultConfig() Config {
	return Config{
		Workers:      runtime.NumCPU(),
		MinPerWorker: 8,
	}
}

// For executes f(i) for i in [0, n). Iterations must be independent. Small
// loops run sequentially to avoid goroutine overhead.
func For(n int, cfg Config, f func(i int)) {
	if cfg.Workers <= 1 || n < 2*cfg.MinPerWorker {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.Workers - 1) / cfg.Workers
	if chunk < cfg.MinPerWorker {
		chunk = cfg.MinPerWorker
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForPlanes executes f(b, c) over a batch x channels grid, the iteration
// pattern of NCHW convolution and pooling kernels.
func ForPlanes(batch, channels int, cfg Config, f func(b, c int)) {
	For(batch*channels, cfg, func(i int) {
		f(i/channels, i%channels)
	})
}
