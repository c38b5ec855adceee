package cache

import "testing"

func TestLRUEvictsLeastRecent(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestGetOrAdd(t *testing.T) {
	c := New[string, int](4)
	calls := 0
	mk := func() int { calls++; return 7 }

	if v := c.GetOrAdd("k", mk); v != 7 {
		t.Fatalf("first GetOrAdd = %d", v)
	}
	if v := c.GetOrAdd("k", mk); v != 7 {
		t.Fatalf("second GetOrAdd = %d", v)
	}
	if calls != 1 {
		t.Errorf("mk called %d times", calls)
	}
}

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New[int, int](0)
}
