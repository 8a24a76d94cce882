package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor_CoversEveryIndex(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 1000} {
		seen := make([]int32, n)
		For(n, DefaultConfig(), func(i int) {
			atomic.AddInt32(&seen[i], 1)
		})
		for i, count := range seen {
			if count != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, count)
			}
		}
	}
}

func TestFor_SequentialFallback(t *testing.T) {
	cfg := Config{Workers: 4, MinPerWorker: 100}
	var count int // no atomics: small loops must stay on one goroutine
	For(10, cfg, func(i int) {
		count++
	})
	if count != 10 {
		t.Fatalf("expected 10 iterations, got %d", count)
	}
}

func TestForPlanes(t *testing.T) {
	const batch, channels = 3, 5
	seen := make([]int32, batch*channels)
	ForPlanes(batch, channels, DefaultConfig(), func(b, c int) {
		atomic.AddInt32(&seen[b*channels+c], 1)
	})
	for i, count := range seen {
		if count != 1 {
			t.Fatalf("plane %d visited %d times", i, count)
		}
	}
}
