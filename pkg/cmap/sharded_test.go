package cmap

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},  // invalid → default
		{-1, DefaultShardCount}, // invalid → default
		{3, DefaultShardCount},  // not power of 2 → default
		{1, 1},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[string, int](tt.input)
			if len(m.shards) != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, len(m.shards), tt.expected)
			}
		})
	}
}

func TestSetGetPop(t *testing.T) {
	m := New[int64, string]()

	m.Set(1, "one")
	m.Set(2, "two")

	if val, ok := m.Get(1); !ok || val != "one" {
		t.Errorf("Get(1) = (%q, %v), want (one, true)", val, ok)
	}
	if !m.Has(2) {
		t.Error("Has(2) = false, want true")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	val, ok := m.Pop(1)
	if !ok || val != "one" {
		t.Errorf("Pop(1) = (%q, %v), want (one, true)", val, ok)
	}
	if _, ok := m.Pop(1); ok {
		t.Error("second Pop(1) should report missing")
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", m.Count())
	}
}

func TestUpdateIfPresent(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)

	got, ok, err := m.UpdateIfPresent("a", func(v int) (int, error) { return v + 1, nil })
	if err != nil || !ok || got != 2 {
		t.Fatalf("UpdateIfPresent(a) = (%d, %v, %v), want (2, true, nil)", got, ok, err)
	}

	_, ok, err = m.UpdateIfPresent("missing", func(v int) (int, error) { return 99, nil })
	if ok || err != nil {
		t.Errorf("UpdateIfPresent(missing) = (%v, %v), want (false, nil)", ok, err)
	}
	if m.Has("missing") {
		t.Error("UpdateIfPresent must not insert")
	}

	boom := errors.New("boom")
	_, ok, err = m.UpdateIfPresent("a", func(v int) (int, error) { return 0, boom })
	if !ok || !errors.Is(err, boom) {
		t.Errorf("UpdateIfPresent(a, failing) = (%v, %v), want (true, boom)", ok, err)
	}
	if v, _ := m.Get("a"); v != 2 {
		t.Errorf("failed update changed value to %d", v)
	}
}

func TestRangeKeysValues(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i*10)
	}

	keys := m.Keys()
	sort.Ints(keys)
	if len(keys) != 100 || keys[0] != 0 || keys[99] != 99 {
		t.Errorf("Keys() = %d keys, first %d last %d", len(keys), keys[0], keys[len(keys)-1])
	}
	if len(m.Values()) != 100 {
		t.Errorf("Values() len = %d, want 100", len(m.Values()))
	}

	count := 0
	m.Range(func(_, _ int) bool {
		count++
		return count < 10
	})
	if count != 10 {
		t.Errorf("Range stopped after %d, want 10", count)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 8; i++ {
		m.Set(i, 0)
	}

	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 8; i++ {
				m.UpdateIfPresent(i, func(v int) (int, error) { return v + 1, nil })
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		if v, _ := m.Get(i); v != 50 {
			t.Errorf("key %d = %d, want 50", i, v)
		}
	}
}

func TestGetOrCompute(t *testing.T) {
	m := New[string, int]()

	calls := 0
	v, loaded := m.GetOrCompute("a", func() int { calls++; return 1 })
	if loaded || v != 1 {
		t.Fatalf("GetOrCompute() = %d, %v, want 1, false", v, loaded)
	}
	v, loaded = m.GetOrCompute("a", func() int { calls++; return 2 })
	if !loaded || v != 1 {
		t.Fatalf("GetOrCompute() = %d, %v, want 1, true", v, loaded)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestGetOrCompute_Concurrent(t *testing.T) {
	m := New[string, *int]()

	var wg sync.WaitGroup
	results := make([]*int, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.GetOrCompute("shared", func() *int { n := i; return &n })
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r != results[0] {
			t.Fatal("all callers must observe the same stored value")
		}
	}
}

func TestRemoveIf(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 10; i++ {
		m.Set(i, i)
	}

	removed := m.RemoveIf(func(k, v int) bool { return v%2 == 0 })
	if removed != 5 {
		t.Errorf("RemoveIf() = %d, want 5", removed)
	}
	if m.Count() != 5 || m.Has(4) || !m.Has(3) {
		t.Errorf("unexpected contents after RemoveIf: count=%d", m.Count())
	}
}
