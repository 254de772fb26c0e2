package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestForEachVisitsEveryIndex(t *testing.T) {
	for _, limit := range []int{1, 4, 100} {
		var mu sync.Mutex
		seen := make(map[int]int)
		ForEach(37, limit, func(i int) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		})
		if len(seen) != 37 {
			t.Errorf("limit %d: visited %d indices, want 37", limit, len(seen))
		}
		for i, n := range seen {
			if n != 1 {
				t.Errorf("limit %d: index %d visited %d times", limit, i, n)
			}
		}
	}
}

func TestForEachConcurrencyBound(t *testing.T) {
	const limit = 3
	var active, peak int64
	ForEach(50, limit, func(i int) {
		cur := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		atomic.AddInt64(&active, -1)
	})
	if peak > limit {
		t.Errorf("observed %d concurrent workers, limit %d", peak, limit)
	}
}

func TestForEachZeroLength(t *testing.T) {
	called := false
	ForEach(0, 4, func(i int) { called = true })
	if called {
		t.Error("body called for empty range")
	}
}

func TestForEachZeroLimit(t *testing.T) {
	var count int64
	ForEach(5, 0, func(i int) { atomic.AddInt64(&count, 1) })
	if count != 5 {
		t.Errorf("visited %d indices, want 5", count)
	}
}
