package clock

import (
	"sync"
	"testing"
)

func TestAtomicClock(t *testing.T) {
	c := NewAtomic(41)
	if got := c.Val(); got != 41 {
		t.Fatalf("expected Val 41 after seeding, got %d", got)
	}
	if got := c.Next(); got != 42 {
		t.Fatalf("expected Next 42, got %d", got)
	}
	if got := c.Val(); got != 42 {
		t.Fatalf("expected Val 42 after Next, got %d", got)
	}

	c.Set(100)
	if got := c.Next(); got != 101 {
		t.Fatalf("expected Next 101 after Set(100), got %d", got)
	}
}

func TestAtomicClockConcurrentNext(t *testing.T) {
	c := NewAtomic(0)

	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[uint64]bool, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				seq := c.Next()
				mu.Lock()
				if seen[seq] {
					t.Errorf("sequence %d handed out twice", seq)
				}
				seen[seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if got := c.Val(); got != goroutines*perGoroutine {
		t.Fatalf("expected the clock at %d, got %d", goroutines*perGoroutine, got)
	}
	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d distinct sequences, got %d", goroutines*perGoroutine, len(seen))
	}
}
