// File: threadpool/blocking.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking compensation: when pool workers sit in blocking calls, the
// goal is temporarily raised toward min(minThreads + numBlockedThreads,
// maxThreads) so throughput does not stall, then lowered again as
// blocking subsides. Growth is rate-limited by staged delays and a soft
// memory ceiling; shrink is immediate but bounded to what blocking
// itself added, so goal increases from other heuristics are never undone
// here.

package threadpool

// NotifyThreadBlocked reports that the calling worker is entering a
// blocking operation. Returns false, with no effect, when the caller is
// not a pool worker.
func (p *Pool) NotifyThreadBlocked() bool {
	if !p.isCurrentThreadWorker() {
		return false
	}

	wakeGate := false
	p.adjustmentLock.Acquire()
	p.numBlockedThreads++
	if p.pendingBlockingAdjustment != pendingWithDelayIfNecessary &&
		p.separated.counts.Load().NumThreadsGoal() < p.targetThreadsGoalForBlockingAdjustment() {
		if p.pendingBlockingAdjustment == pendingNone {
			// Only the first request needs to wake the gate; later ones
			// ride on the adjustment already queued.
			wakeGate = true
		}
		p.pendingBlockingAdjustment = pendingWithDelayIfNecessary
	}
	p.adjustmentLock.Release()

	if wakeGate {
		p.wakeGateThread()
	}
	return true
}

// NotifyThreadUnblocked reports that a blocking operation previously
// announced via NotifyThreadBlocked has completed. Shrinking is escalated
// to immediate urgency: unblocking should lower the goal faster than
// blocking raised it.
func (p *Pool) NotifyThreadUnblocked() {
	wakeGate := false
	p.adjustmentLock.Acquire()
	if p.numBlockedThreads > 0 {
		p.numBlockedThreads--
	}
	if p.pendingBlockingAdjustment != pendingImmediately &&
		p.numThreadsAddedDueToBlocking > 0 &&
		p.separated.counts.Load().NumThreadsGoal() > p.targetThreadsGoalForBlockingAdjustment() {
		if p.pendingBlockingAdjustment == pendingNone {
			wakeGate = true
		}
		p.pendingBlockingAdjustment = pendingImmediately
	}
	p.adjustmentLock.Release()

	if wakeGate {
		p.wakeGateThread()
	}
}

// Blocking runs fn bracketed by NotifyThreadBlocked/NotifyThreadUnblocked
// when called from a pool worker; otherwise it just runs fn.
func (p *Pool) Blocking(fn func()) {
	if p.NotifyThreadBlocked() {
		defer p.NotifyThreadUnblocked()
	}
	fn()
}

// targetThreadsGoalForBlockingAdjustment computes the goal blocking
// compensation steers toward. Caller holds the adjustment lock.
func (p *Pool) targetThreadsGoalForBlockingAdjustment() int16 {
	if p.numBlockedThreads <= 0 {
		return p.minThreads
	}
	return min(p.minThreads+p.numBlockedThreads, p.maxThreads)
}

// performBlockingAdjustment is the periodic correction step, run by the
// gate thread with the adjustment lock held. It returns the delay in
// milliseconds before it wants to run again (0: no further delay needed)
// and whether a worker should be woken for the raised goal.
func (p *Pool) performBlockingAdjustment(previousDelayElapsed bool) (nextDelayMs uint32, addWorker bool) {
	p.adjustmentLock.VerifyIsLocked()
	p.pendingBlockingAdjustment = pendingNone

	target := p.targetThreadsGoalForBlockingAdjustment()
	counts := p.separated.counts.Load()
	goal := counts.NumThreadsGoal()

	if goal == target {
		return 0, false
	}

	if goal > target {
		// Shrink path: undo only what blocking itself added, never goal
		// increases attributable to other heuristics.
		if p.numThreadsAddedDueToBlocking <= 0 {
			return 0, false
		}
		toSubtract := min(goal-target, p.numThreadsAddedDueToBlocking)
		p.numThreadsAddedDueToBlocking -= toSubtract
		p.separated.counts.InterlockedSetNumThreadsGoal(goal - toSubtract)
		return 0, false
	}

	// Grow path. Up to this bound, growth only re-activates capacity the
	// configuration already promised and needs no delay; past it, each
	// genuinely new thread is staged behind a delay.
	configuredMaxThreadsWithoutDelay := min(p.minThreads+threadsToAddWithoutDelay, p.maxThreads)

	var newGoal int16
	switch {
	case goal < configuredMaxThreadsWithoutDelay:
		newGoal = min(target, configuredMaxThreadsWithoutDelay)
	case previousDelayElapsed:
		newGoal = goal + 1
	default:
		// A delay must elapse before the goal may grow further. Keep the
		// adjustment pending so the gate re-runs it after the delay.
		p.pendingBlockingAdjustment = pendingWithDelayIfNecessary
		return p.blockingAdjustmentDelayMs(goal + 1), false
	}

	if newGoal > counts.NumExistingThreads() && p.memoryConstrained(newGoal-counts.NumExistingThreads()) {
		// Soft ceiling: decline to grow rather than risk an OOM. The
		// cost is under-provisioning under heavy blocking.
		return 0, false
	}

	p.numThreadsAddedDueToBlocking += newGoal - goal
	p.separated.counts.InterlockedSetNumThreadsGoal(newGoal)
	addWorker = counts.NumProcessingWork() >= goal && p.separated.numRequestedWorkers.Load() > 0

	if newGoal >= target {
		return 0, addWorker
	}
	p.pendingBlockingAdjustment = pendingWithDelayIfNecessary
	return p.blockingAdjustmentDelayMs(newGoal + 1), addWorker
}

// blockingAdjustmentDelayMs scales the staged delay with how far past the
// no-delay threshold the goal has grown.
func (p *Pool) blockingAdjustmentDelayMs(goal int16) uint32 {
	configuredMaxThreadsWithoutDelay := min(p.minThreads+threadsToAddWithoutDelay, p.maxThreads)
	delayStepCount := uint32(1)
	if over := int32(goal) - int32(configuredMaxThreadsWithoutDelay); over > 0 {
		delayStepCount += uint32(over) / uint32(threadsPerDelayStep)
	}
	return min(delayStepCount*DelayStepMs, MaxDelayMs)
}

// memoryConstrained reports whether creating newThreads more workers
// would push estimated usage past 80% of the memory limit.
func (p *Pool) memoryConstrained(newThreads int16) bool {
	if p.memoryLimitBytes == 0 {
		return false
	}
	projected := p.memoryUsageBytes + uint64(newThreads)*memoryPerThreadEstimateBytes
	return projected*memoryCeilingDenominator > p.memoryLimitBytes*memoryCeilingNumerator
}
