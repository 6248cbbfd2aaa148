// File: threadpool/blocking_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package threadpool

import (
	"sync/atomic"
	"testing"
	"time"
)

// setGrowthSteps pins the processor-count-scaled growth constants so the
// staged-delay arithmetic is machine-independent, restoring them when the
// test ends.
func setGrowthSteps(t *testing.T, withoutDelay, perStep int16) {
	t.Helper()
	savedWithoutDelay := threadsToAddWithoutDelay
	savedPerStep := threadsPerDelayStep
	threadsToAddWithoutDelay = withoutDelay
	threadsPerDelayStep = perStep
	t.Cleanup(func() {
		threadsToAddWithoutDelay = savedWithoutDelay
		threadsPerDelayStep = savedPerStep
	})
}

func newAdjustmentPool(t *testing.T, minThreads, maxThreads int) *Pool {
	t.Helper()
	p := NewPool(Config{
		MinThreads: minThreads,
		MaxThreads: maxThreads,
		// A fixed large limit keeps the memory ceiling out of the way.
		MemoryLimitBytes: 1 << 40,
	})
	t.Cleanup(p.Stop)
	return p
}

func TestBlockingTargetGoal(t *testing.T) {
	p := newAdjustmentPool(t, 2, 6)

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	if got := p.targetThreadsGoalForBlockingAdjustment(); got != 2 {
		t.Fatalf("target with no blocked threads = %d, want minThreads", got)
	}
	p.numBlockedThreads = 3
	if got := p.targetThreadsGoalForBlockingAdjustment(); got != 5 {
		t.Fatalf("target = %d, want min+blocked = 5", got)
	}
	p.numBlockedThreads = 100
	if got := p.targetThreadsGoalForBlockingAdjustment(); got != 6 {
		t.Fatalf("target = %d, want capped at maxThreads", got)
	}
}

func TestBlockingAdjustmentGrowsWithoutDelayUpToThreshold(t *testing.T) {
	setGrowthSteps(t, 2, 2)
	p := newAdjustmentPool(t, 2, 10)

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	p.numBlockedThreads = 3 // target = 5, threshold = min+2 = 4

	delayMs, _ := p.performBlockingAdjustment(false)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 4 {
		t.Fatalf("goal = %d, want free growth to the no-delay threshold 4", goal)
	}
	if p.numThreadsAddedDueToBlocking != 2 {
		t.Fatalf("added-due-to-blocking = %d, want 2", p.numThreadsAddedDueToBlocking)
	}
	if delayMs == 0 {
		t.Fatal("growth past the threshold remains; a delay must be requested")
	}
	if p.pendingBlockingAdjustment == pendingNone {
		t.Fatal("adjustment must stay pending while below target")
	}
}

func TestBlockingAdjustmentDelayedGrowthPastThreshold(t *testing.T) {
	setGrowthSteps(t, 2, 2)
	p := newAdjustmentPool(t, 2, 10)

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	p.numBlockedThreads = 3 // target = 5
	p.performBlockingAdjustment(false)

	// Past the threshold, growth without an elapsed delay is refused.
	delayMs, _ := p.performBlockingAdjustment(false)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 4 {
		t.Fatalf("goal = %d, want unchanged 4 before the delay elapses", goal)
	}
	if delayMs == 0 {
		t.Fatal("refused growth must re-request a delay")
	}

	// With the delay elapsed, the goal grows by exactly one.
	p.performBlockingAdjustment(true)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 5 {
		t.Fatalf("goal = %d, want 5 after one delayed step", goal)
	}
	if p.numThreadsAddedDueToBlocking != 3 {
		t.Fatalf("added-due-to-blocking = %d, want 3", p.numThreadsAddedDueToBlocking)
	}

	// At target, nothing further is pending.
	delayMs, _ = p.performBlockingAdjustment(true)
	if delayMs != 0 || p.pendingBlockingAdjustment != pendingNone {
		t.Fatalf("at target: delay=%d pending=%d, want idle", delayMs, p.pendingBlockingAdjustment)
	}
}

func TestBlockingAdjustmentShrinkBoundedByBlockingAdditions(t *testing.T) {
	setGrowthSteps(t, 8, 8)
	p := newAdjustmentPool(t, 2, 10)

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	p.numBlockedThreads = 4 // target = 6, inside the no-delay threshold
	p.performBlockingAdjustment(false)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 6 {
		t.Fatalf("goal = %d, want 6", goal)
	}

	// A goal increase from elsewhere must survive the shrink.
	p.separated.counts.InterlockedSetNumThreadsGoal(8)

	p.numBlockedThreads = 0
	p.performBlockingAdjustment(false)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 4 {
		t.Fatalf("goal = %d, want 8 minus the 4 blocking added", goal)
	}
	if p.numThreadsAddedDueToBlocking != 0 {
		t.Fatalf("added-due-to-blocking = %d, want 0", p.numThreadsAddedDueToBlocking)
	}

	// With the blocking debt repaid, no further shrink happens.
	p.performBlockingAdjustment(false)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 4 {
		t.Fatalf("goal = %d, shrink must stop at the blocking debt", goal)
	}
}

func TestBlockingAdjustmentRespectsMemoryCeiling(t *testing.T) {
	setGrowthSteps(t, 8, 8)
	p := newAdjustmentPool(t, 2, 10)

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	p.memoryLimitBytes = 100 * memoryPerThreadEstimateBytes
	p.memoryUsageBytes = 99 * memoryPerThreadEstimateBytes
	p.numBlockedThreads = 4

	delayMs, addWorker := p.performBlockingAdjustment(false)
	if goal := p.separated.counts.Load().NumThreadsGoal(); goal != 2 {
		t.Fatalf("goal = %d, want unchanged under memory pressure", goal)
	}
	if delayMs != 0 || addWorker {
		t.Fatalf("constrained adjustment returned delay=%d addWorker=%v, want stall", delayMs, addWorker)
	}
}

func TestBlockingAdjustmentDelayScalesAndCaps(t *testing.T) {
	setGrowthSteps(t, 2, 2)
	p := newAdjustmentPool(t, 2, 1000)

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	// Threshold is min+2 = 4. One step past it: one delay step.
	if d := p.blockingAdjustmentDelayMs(5); d != DelayStepMs {
		t.Fatalf("delay(5) = %d, want %d", d, DelayStepMs)
	}
	// Two full steps past the threshold.
	if d := p.blockingAdjustmentDelayMs(8); d != 3*DelayStepMs {
		t.Fatalf("delay(8) = %d, want %d", d, 3*DelayStepMs)
	}
	// Far past the threshold the delay saturates.
	if d := p.blockingAdjustmentDelayMs(900); d != MaxDelayMs {
		t.Fatalf("delay(900) = %d, want cap %d", d, MaxDelayMs)
	}
}

func TestNotifyThreadBlockedFromOutsidePool(t *testing.T) {
	p := newAdjustmentPool(t, 1, 4)
	if p.NotifyThreadBlocked() {
		t.Fatal("a non-worker goroutine must not register as blocked")
	}

	ran := false
	p.Blocking(func() { ran = true })
	if !ran {
		t.Fatal("Blocking must run fn even outside the pool")
	}
	p.adjustmentLock.Acquire()
	blocked := p.numBlockedThreads
	p.adjustmentLock.Release()
	if blocked != 0 {
		t.Fatalf("numBlockedThreads = %d after non-worker Blocking, want 0", blocked)
	}
}

// A work item blocking on a signal only a later work item can deliver:
// without compensation a one-thread pool deadlocks here.
func TestBlockingCompensationUnblocksStarvedWork(t *testing.T) {
	p := newAdjustmentPool(t, 1, 4)

	release := make(chan struct{})
	done := make(chan struct{})
	var secondRan atomic.Bool

	if err := p.Submit(func() {
		p.Blocking(func() {
			<-release
		})
		close(done)
	}); err != nil {
		t.Fatalf("submit blocker: %v", err)
	}

	// Give the first work item time to occupy the only goal thread.
	time.Sleep(50 * time.Millisecond)

	if err := p.Submit(func() {
		secondRan.Store(true)
		close(release)
	}); err != nil {
		t.Fatalf("submit releaser: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("compensation never freed the starved work item")
	}
	if !secondRan.Load() {
		t.Fatal("releasing work item did not run")
	}
}

// SetMinThreads while threads are blocked defers to compensation instead
// of writing the goal directly.
func TestSetMinThreadsDuringBlockingDefersToCompensation(t *testing.T) {
	p := newAdjustmentPool(t, 1, 8)

	// Pin the gate as running so no real gate loop consumes the pending
	// flag before the test observes it.
	p.gate.monitor.Acquire()
	p.gate.running = true
	p.gate.monitor.Release()

	p.adjustmentLock.Acquire()
	p.numBlockedThreads = 2
	p.adjustmentLock.Release()

	if !p.SetMinThreads(3, 1) {
		t.Fatal("valid SetMinThreads rejected")
	}

	p.adjustmentLock.Acquire()
	pending := p.pendingBlockingAdjustment
	minThreads := p.minThreads
	p.adjustmentLock.Release()

	if minThreads != 3 {
		t.Fatalf("minThreads = %d, want 3", minThreads)
	}
	if pending == pendingNone {
		t.Fatal("a blocking adjustment must be queued instead of a direct goal write")
	}
}
