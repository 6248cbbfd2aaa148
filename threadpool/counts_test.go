// File: threadpool/counts_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"sync"
	"testing"
)

func TestThreadCountsPacking(t *testing.T) {
	var tc ThreadCounts
	tc.SetNumProcessingWork(3)
	tc.SetNumExistingThreads(7)
	tc.SetNumThreadsGoal(11)

	if got := tc.NumProcessingWork(); got != 3 {
		t.Fatalf("NumProcessingWork = %d, want 3", got)
	}
	if got := tc.NumExistingThreads(); got != 7 {
		t.Fatalf("NumExistingThreads = %d, want 7", got)
	}
	if got := tc.NumThreadsGoal(); got != 11 {
		t.Fatalf("NumThreadsGoal = %d, want 11", got)
	}

	// Overwriting one field must not disturb the neighbors.
	tc.SetNumExistingThreads(200)
	if tc.NumProcessingWork() != 3 || tc.NumThreadsGoal() != 11 {
		t.Fatalf("field write leaked into neighbors: %+v", tc)
	}
}

func TestThreadCountsClamps(t *testing.T) {
	var tc ThreadCounts
	tc.SetNumProcessingWork(-5)
	if got := tc.NumProcessingWork(); got != 0 {
		t.Fatalf("processing clamped to %d, want 0", got)
	}
	tc.SetNumExistingThreads(-1)
	if got := tc.NumExistingThreads(); got != 0 {
		t.Fatalf("existing clamped to %d, want 0", got)
	}
	tc.SetNumThreadsGoal(0)
	if got := tc.NumThreadsGoal(); got != 1 {
		t.Fatalf("goal clamped to %d, want 1", got)
	}
	tc.SetNumThreadsGoal(-100)
	if got := tc.NumThreadsGoal(); got != 1 {
		t.Fatalf("goal clamped to %d, want 1", got)
	}
}

func TestThreadCountsEqual(t *testing.T) {
	var a, b ThreadCounts
	a.SetNumThreadsGoal(5)
	b.SetNumThreadsGoal(5)
	if !a.Equal(b) {
		t.Fatal("identical counts must compare equal")
	}
	b.SetNumProcessingWork(1)
	if a.Equal(b) {
		t.Fatal("differing counts must not compare equal")
	}
}

func TestAtomicCountsCompareAndSwap(t *testing.T) {
	var ac atomicCounts
	oldCounts := ac.Load()
	newCounts := oldCounts
	newCounts.SetNumProcessingWork(1)
	if !ac.CompareAndSwap(oldCounts, newCounts) {
		t.Fatal("CAS against the current word must succeed")
	}
	if ac.CompareAndSwap(oldCounts, newCounts) {
		t.Fatal("CAS against a stale word must fail")
	}
}

// Goal replacement races against worker-style CAS steppers; every field
// must survive the interleaving intact.
func TestInterlockedSetNumThreadsGoalPreservesFields(t *testing.T) {
	var ac atomicCounts
	ac.InterlockedSetNumThreadsGoal(1)

	const iterations = 5000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			ac.InterlockedSetNumThreadsGoal(int16(i%100 + 1))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			for {
				oldCounts := ac.Load()
				newCounts := oldCounts
				newCounts.SetNumProcessingWork(oldCounts.NumProcessingWork() + 1)
				if ac.CompareAndSwap(oldCounts, newCounts) {
					break
				}
			}
			for {
				oldCounts := ac.Load()
				newCounts := oldCounts
				newCounts.SetNumProcessingWork(oldCounts.NumProcessingWork() - 1)
				if ac.CompareAndSwap(oldCounts, newCounts) {
					break
				}
			}
		}
	}()

	wg.Wait()

	final := ac.Load()
	if got := final.NumProcessingWork(); got != 0 {
		t.Fatalf("processing count drifted to %d, want 0", got)
	}
	if goal := final.NumThreadsGoal(); goal < 1 || goal > 100 {
		t.Fatalf("goal %d outside the range any writer stored", goal)
	}
}
