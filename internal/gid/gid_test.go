// File: internal/gid/gid_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package gid

import (
	"sync"
	"testing"
)

func TestCurrentStableWithinGoroutine(t *testing.T) {
	a := Current()
	b := Current()
	if a == None {
		t.Fatal("id must not be None")
	}
	if a != b {
		t.Fatalf("id changed within one goroutine: %d vs %d", a, b)
	}
}

func TestCurrentDistinctAcrossGoroutines(t *testing.T) {
	const n = 32
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- Current()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, n)
	for id := range ids {
		if id == None {
			t.Fatal("id must not be None")
		}
		if seen[id] {
			t.Fatalf("duplicate goroutine id %d", id)
		}
		seen[id] = true
	}
}
