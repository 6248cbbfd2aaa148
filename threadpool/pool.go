// File: threadpool/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool is the self-tuning worker-thread pool: goal-directed population
// control, blocking compensation and a gate thread for periodic
// adjustment. Two-tier locking discipline: the packed counts word is read
// and stepped lock-free on worker hot paths, while every compound goal
// decision (min/max changes, blocking adjustment) serializes on the
// thread adjustment lock.

package threadpool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/queue"
	"github.com/momentics/hioload-threads/lowlevel"
)

// pendingAdjustment is the urgency of a queued blocking adjustment.
type pendingAdjustment int32

const (
	pendingNone pendingAdjustment = iota
	pendingImmediately
	pendingWithDelayIfNecessary
)

// cacheLineSeparated groups the worker-hot fields, padded so that the
// counts word, the request counter and the cold pool state do not share
// cache lines under concurrent worker access.
type cacheLineSeparated struct {
	_                   [64]byte
	counts              atomicCounts
	_                   [64]byte
	numRequestedWorkers atomic.Int32
	_                   [64]byte
}

// Pool is an adaptive worker-thread pool. Construct with NewPool; use
// Default for the process-wide instance.
type Pool struct {
	separated cacheLineSeparated

	// Serializes every multi-step goal decision.
	adjustmentLock *lowlevel.Monitor

	// Guarded by adjustmentLock.
	minThreads                  int16
	maxThreads                  int16
	ioMinThreads                int32
	ioMaxThreads                int32
	numBlockedThreads           int16
	numThreadsAddedDueToBlocking int16
	pendingBlockingAdjustment   pendingAdjustment
	memoryLimitBytes            uint64
	memoryUsageBytes            uint64

	workQueue *queue.MPMC[func()]
	overflow  chan func()
	wakeSem   chan struct{}

	// Live worker goroutines, keyed by goroutine id.
	workers sync.Map

	completedWorkItems atomic.Int64
	stopped            atomic.Bool
	stopCh             chan struct{}

	launcher api.ThreadLauncher

	// Optional hook run by the gate thread after each activity pass;
	// the control layer hangs metrics publishing on it.
	housekeeping atomic.Value // func()

	gate gateState
}

// NewPool constructs a pool and starts its gate thread lazily on the
// first work request.
func NewPool(cfg Config) *Pool {
	c := cfg.withDefaults()
	p := &Pool{
		adjustmentLock:   lowlevel.NewMonitor(),
		minThreads:       int16(c.MinThreads),
		maxThreads:       int16(c.MaxThreads),
		ioMinThreads:     1,
		ioMaxThreads:     1000,
		memoryLimitBytes: c.MemoryLimitBytes,
		workQueue:        queue.NewMPMC[func()](c.WorkQueueCapacity),
		overflow:         make(chan func(), c.WorkQueueCapacity),
		wakeSem:          make(chan struct{}, MaxPossibleThreadCount),
		stopCh:           make(chan struct{}),
		launcher:         c.Launcher,
	}
	p.gate.monitor = lowlevel.NewMonitor()
	// No concurrency yet; the adjustment-lock rule starts applying once
	// the pool is published.
	p.separated.counts.InterlockedSetNumThreadsGoal(p.minThreads)
	return p
}

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// Default returns the process-wide pool, created on first use. The
// singleton is a choice made here at the application boundary; nothing
// else in the package depends on it.
func Default() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(Config{})
	})
	return defaultPool
}

// SetMinThreads updates the minimum worker and IO thread bounds. Returns
// false and leaves both unchanged when the request is invalid. While
// threads are blocked, the goal is governed by blocking compensation:
// the new minimum feeds the compensation target instead of being applied
// directly, so a min bump cannot clobber an in-flight adjustment.
func (p *Pool) SetMinThreads(workerThreads, ioThreads int) bool {
	if workerThreads < 0 || ioThreads < 0 {
		return false
	}

	wakeGate := false
	addWorker := false

	p.adjustmentLock.Acquire()
	if workerThreads > int(p.maxThreads) || int32(ioThreads) > p.ioMaxThreads {
		p.adjustmentLock.Release()
		return false
	}
	p.ioMinThreads = int32(ioThreads)

	newMin := int16(clampThreadCount(workerThreads))
	p.minThreads = newMin

	if p.numBlockedThreads > 0 {
		// Defer to the blocking heuristics rather than setting the goal.
		if p.pendingBlockingAdjustment != pendingImmediately {
			p.pendingBlockingAdjustment = pendingImmediately
			wakeGate = true
		}
	} else if p.separated.counts.Load().NumThreadsGoal() < newMin {
		p.separated.counts.InterlockedSetNumThreadsGoal(newMin)
		if p.separated.numRequestedWorkers.Load() > 0 {
			addWorker = true
		}
	}
	p.adjustmentLock.Release()

	if wakeGate {
		p.wakeGateThread()
	}
	if addWorker {
		p.maybeAddWorkingWorker()
	}
	return true
}

// SetMaxThreads updates the maximum worker and IO thread bounds. The
// goal is lowered when it exceeds the new maximum.
func (p *Pool) SetMaxThreads(workerThreads, ioThreads int) bool {
	if workerThreads <= 0 || ioThreads <= 0 {
		return false
	}

	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()

	if workerThreads < int(p.minThreads) || int32(ioThreads) < p.ioMinThreads {
		return false
	}
	p.ioMaxThreads = int32(ioThreads)

	newMax := int16(clampThreadCount(workerThreads))
	p.maxThreads = newMax
	if p.separated.counts.Load().NumThreadsGoal() > newMax {
		p.separated.counts.InterlockedSetNumThreadsGoal(newMax)
	}
	return true
}

// GetMinThreads returns the minimum worker and IO thread bounds.
func (p *Pool) GetMinThreads() (workerThreads, ioThreads int) {
	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()
	return int(p.minThreads), int(p.ioMinThreads)
}

// GetMaxThreads returns the maximum worker and IO thread bounds.
func (p *Pool) GetMaxThreads() (workerThreads, ioThreads int) {
	p.adjustmentLock.Acquire()
	defer p.adjustmentLock.Release()
	return int(p.maxThreads), int(p.ioMaxThreads)
}

// GetAvailableThreads reports how many more work items could be picked up
// before the configured maximum is saturated.
func (p *Pool) GetAvailableThreads() int {
	p.adjustmentLock.Acquire()
	maxThreads := p.maxThreads
	p.adjustmentLock.Release()

	available := int(maxThreads) - int(p.separated.counts.Load().NumProcessingWork())
	return max(available, 0)
}

// ThreadCount returns the number of live worker threads.
func (p *Pool) ThreadCount() int {
	return int(p.separated.counts.Load().NumExistingThreads())
}

// NumWorkers returns the number of live worker threads.
func (p *Pool) NumWorkers() int {
	return p.ThreadCount()
}

// SetHousekeepingHook installs fn to run on the gate thread after each
// activity pass. A nil fn clears the hook.
func (p *Pool) SetHousekeepingHook(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	p.housekeeping.Store(fn)
}

func (p *Pool) runHousekeepingHook() {
	if fn, ok := p.housekeeping.Load().(func()); ok {
		fn()
	}
}

// CompletedWorkItemCount returns the number of executed work items.
func (p *Pool) CompletedWorkItemCount() int64 {
	return p.completedWorkItems.Load()
}

// Submit schedules fn for execution on a pool worker.
func (p *Pool) Submit(fn func()) error {
	if fn == nil {
		return api.ErrInvalidArgument
	}
	if p.stopped.Load() {
		return api.ErrClosed
	}
	if !p.workQueue.Enqueue(fn) {
		select {
		case p.overflow <- fn:
		default:
			return api.ErrQueueFull
		}
	}
	p.RequestWorker()
	return nil
}

// RequestWorker records an outstanding work request and ensures a worker
// will pick it up. The atomic increment publishes the request before the
// wake check runs, closing the race against a worker about to go idle.
func (p *Pool) RequestWorker() {
	p.separated.numRequestedWorkers.Add(1)
	p.maybeAddWorkingWorker()
	p.ensureGateThreadRunning()
}

// NotifyWorkItemProgress notes that a long-running work item is alive.
func (p *Pool) NotifyWorkItemProgress() {
	p.completedWorkItems.Add(1)
}

// NotifyWorkItemComplete counts a finished work item and reports whether
// the calling worker should keep processing. It returns false once the
// goal has been lowered below the number of processing workers.
func (p *Pool) NotifyWorkItemComplete() bool {
	p.completedWorkItems.Add(1)
	counts := p.separated.counts.Load()
	return counts.NumProcessingWork() <= counts.NumThreadsGoal()
}

// Stop shuts the pool down: no further submissions are accepted, idle
// workers drain out and the gate thread exits. Work already queued is
// abandoned.
func (p *Pool) Stop() {
	if p.stopped.Swap(true) {
		return
	}
	close(p.stopCh)
	p.wakeGateThread()
}

var _ api.Executor = (*Pool)(nil)

func (p *Pool) dequeue() (func(), bool) {
	if fn, ok := p.workQueue.Dequeue(); ok {
		return fn, true
	}
	select {
	case fn := <-p.overflow:
		return fn, true
	default:
		return nil, false
	}
}
