package threadsafe

import (
	"sync"
	"testing"
)

func TestMapBasicOperations(t *testing.T) {
	m := NewMap[string, int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	if _, ok := m.Get("missing"); ok {
		t.Fatal("Get(missing) reported present")
	}

	if n := m.Len(); n != 2 {
		t.Fatalf("Len() = %d, want 2", n)
	}

	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestMapRangeStopsEarly(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 10; i++ {
		m.Set(i, i)
	}

	visited := 0
	m.Range(func(int, int) bool {
		visited++
		return visited < 3
	})

	if visited != 3 {
		t.Fatalf("visited %d entries, want 3", visited)
	}
}

func TestMapConcurrentAccess(t *testing.T) {
	m := NewMap[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			m.Set(i, i)
			m.Get(i)
		}(i)
	}
	wg.Wait()

	if n := m.Len(); n != 50 {
		t.Fatalf("Len() = %d, want 50", n)
	}
}
