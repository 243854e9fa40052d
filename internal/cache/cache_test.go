package cache

import "testing"

func TestGetOrComputeMemoizes(t *testing.T) {
	c := New[string, int]()
	calls := 0
	compute := func() int {
		calls++
		return 42
	}
	if got := c.GetOrCompute("overview", compute); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := c.GetOrCompute("overview", compute); got != 42 {
		t.Fatalf("expected cached 42, got %d", got)
	}
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestInvalidateClearsAllEntries(t *testing.T) {
	c := New[string, int]()
	c.GetOrCompute("overview", func() int { return 1 })
	c.GetOrCompute("regional", func() int { return 2 })
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	c.Invalidate()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
	if _, ok := c.Get("overview"); ok {
		t.Fatalf("expected overview to be evicted")
	}
	calls := 0
	c.GetOrCompute("overview", func() int {
		calls++
		return 3
	})
	if calls != 1 {
		t.Fatalf("expected recomputation after invalidation")
	}
	if c.Stats().Invalidations != 1 {
		t.Fatalf("expected one invalidation, got %d", c.Stats().Invalidations)
	}
}
