package wamp

import "testing"

func TestGlobalIDInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := GlobalID()
		if id == 0 {
			t.Fatal("GlobalID returned 0, which is reserved")
		}
		if uint64(id) >= idScopeMax {
			t.Fatalf("GlobalID %d exceeds the [0, 2^53) scope", id)
		}
	}
}

func TestGlobalIDDistinct(t *testing.T) {
	seen := make(map[ID]bool, 256)
	for i := 0; i < 256; i++ {
		id := GlobalID()
		if seen[id] {
			t.Fatalf("GlobalID repeated %d within %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestGeneratorSequence(t *testing.T) {
	g := NewGenerator()
	for want := ID(1); want <= 5; want++ {
		if got := g.Next(); got != want {
			t.Fatalf("Generator.Next() = %d, want %d", got, want)
		}
	}
}

func TestGeneratorConcurrent(t *testing.T) {
	g := NewGenerator()
	const n = 200
	done := make(chan ID, n)
	for i := 0; i < n; i++ {
		go func() { done <- g.Next() }()
	}
	seen := make(map[ID]bool, n)
	for i := 0; i < n; i++ {
		id := <-done
		if seen[id] {
			t.Fatalf("Generator produced duplicate ID %d under concurrent use", id)
		}
		seen[id] = true
	}
}
