package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForCoversRangeOnce(t *testing.T) {
	p := NewPool(4)
	defer p.Close()
	p.SetThreshold(1)

	const n = 1003
	hits := make([]int32, n)
	p.For(n, func(slot, start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times", i, h)
		}
	}
}

func TestForSlotsAreStable(t *testing.T) {
	p := NewPool(3)
	defer p.Close()
	p.SetThreshold(1)

	owner := make([]int, 10)
	p.For(len(owner), func(slot, start, end int) {
		for i := start; i < end; i++ {
			owner[i] = slot
		}
	})

	want := []int{0, 0, 0, 0, 1, 1, 1, 1, 2, 2}
	for i := range want {
		if owner[i] != want[i] {
			t.Errorf("index %d: expected slot %d, got %d", i, want[i], owner[i])
		}
	}
}

func TestForSerialBelowThreshold(t *testing.T) {
	p := NewPool(8)
	defer p.Close()

	calls := 0
	p.For(10, func(slot, start, end int) {
		calls++
		if slot != 0 || start != 0 || end != 10 {
			t.Errorf("expected single serial chunk, got slot=%d [%d,%d)", slot, start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestNilPoolRunsSerially(t *testing.T) {
	var p *Pool
	sum := 0
	p.For(5, func(slot, start, end int) {
		for i := start; i < end; i++ {
			sum += i
		}
	})
	if sum != 10 {
		t.Errorf("expected 10, got %d", sum)
	}
	if p.Slots() != 1 {
		t.Errorf("expected 1 slot, got %d", p.Slots())
	}
	p.Close()
}

func TestPoolReusableAfterClose(t *testing.T) {
	p := NewPool(2)
	p.SetThreshold(1)

	var count atomic.Int64
	p.For(100, func(slot, start, end int) { count.Add(int64(end - start)) })
	p.Close()
	p.For(100, func(slot, start, end int) { count.Add(int64(end - start)) })
	p.Close()

	if count.Load() != 200 {
		t.Errorf("expected 200, got %d", count.Load())
	}
}
