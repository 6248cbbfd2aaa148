// File: threadpool/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker thread management. The accounting protocol: whoever raises
// NumProcessingWork (maybeAddWorkingWorker) pays for it by either waking
// an idle worker or creating a new one; a worker going idle lowers it
// again. A worker therefore never adjusts the processing count on wake —
// its waker already did.

package threadpool

import (
	"time"

	"github.com/momentics/hioload-threads/internal/gid"
	"github.com/momentics/hioload-threads/internal/waitsub"
)

// maybeAddWorkingWorker is a best-effort step toward the goal: wake or
// spawn one worker if requests are outstanding and the goal allows it.
func (p *Pool) maybeAddWorkingWorker() {
	if p.stopped.Load() {
		return
	}
	var toCreate, toRelease int16
	for {
		counts := p.separated.counts.Load()
		processing := counts.NumProcessingWork()
		goal := counts.NumThreadsGoal()
		if processing >= goal {
			return
		}

		newProcessing := processing + 1
		existing := counts.NumExistingThreads()
		newExisting := max(existing, newProcessing)

		newCounts := counts
		newCounts.SetNumProcessingWork(newProcessing)
		newCounts.SetNumExistingThreads(newExisting)
		if p.separated.counts.CompareAndSwap(counts, newCounts) {
			toCreate = newExisting - existing
			toRelease = newProcessing - processing - toCreate
			break
		}
	}

	for i := int16(0); i < toRelease; i++ {
		p.wakeSem <- struct{}{}
	}
	for i := int16(0); i < toCreate; i++ {
		if err := p.launcher.Launch("threadpool-worker", p.workerLoop); err != nil {
			p.undoFailedWorkerStart()
		}
	}
}

// undoFailedWorkerStart returns the processing slot and existing-thread
// count raised for a worker whose launch failed.
func (p *Pool) undoFailedWorkerStart() {
	for {
		counts := p.separated.counts.Load()
		newCounts := counts
		newCounts.SetNumProcessingWork(counts.NumProcessingWork() - 1)
		newCounts.SetNumExistingThreads(counts.NumExistingThreads() - 1)
		if p.separated.counts.CompareAndSwap(counts, newCounts) {
			return
		}
	}
}

// workerLoop is the body of one worker thread.
func (p *Pool) workerLoop() {
	g := gid.Current()
	p.workers.Store(g, struct{}{})
	defer func() {
		p.workers.Delete(g)
		// A worker that held mutexes across its demise abandons them.
		waitsub.Default.OnThreadExit(g)
	}()

	timer := time.NewTimer(ThreadPoolThreadTimeoutMs * time.Millisecond)
	defer timer.Stop()

	for {
		p.takeActiveRequest()
		p.processWorkItems()
		p.removeWorkingWorker()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(ThreadPoolThreadTimeoutMs * time.Millisecond)

		select {
		case <-p.wakeSem:
			// Processing count was already raised by the waker.
		case <-p.stopCh:
			p.retireOnStop()
			return
		case <-timer.C:
			if p.tryRetireWorker() {
				return
			}
			// A wake raced the timeout; wait for it and keep going.
			select {
			case <-p.wakeSem:
			case <-p.stopCh:
				p.retireOnStop()
				return
			}
		}
	}
}

// processWorkItems drains the queue until it is empty or the goal has
// been lowered under this worker's feet.
func (p *Pool) processWorkItems() {
	for {
		fn, ok := p.dequeue()
		if !ok {
			return
		}
		p.execute(fn)
		if !p.NotifyWorkItemComplete() {
			// Goal shrank below the processing count; yield the slot.
			return
		}
	}
}

func (p *Pool) execute(fn func()) {
	defer func() {
		// A panicking work item must not take the worker down.
		_ = recover()
	}()
	fn()
}

// takeActiveRequest consumes one outstanding work request, if any.
func (p *Pool) takeActiveRequest() {
	for {
		n := p.separated.numRequestedWorkers.Load()
		if n <= 0 {
			return
		}
		if p.separated.numRequestedWorkers.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// removeWorkingWorker transitions this worker from processing to idle.
func (p *Pool) removeWorkingWorker() {
	for {
		counts := p.separated.counts.Load()
		newCounts := counts
		newCounts.SetNumProcessingWork(counts.NumProcessingWork() - 1)
		if p.separated.counts.CompareAndSwap(counts, newCounts) {
			break
		}
	}

	// A request may have arrived after the dequeue loop saw an empty
	// queue but before the decrement; make sure it is not stranded.
	if p.separated.numRequestedWorkers.Load() > 0 {
		p.maybeAddWorkingWorker()
	}
}

// tryRetireWorker removes this worker from the existing count. Fails when
// every existing thread is accounted as processing, meaning a wake is in
// flight for this worker.
func (p *Pool) tryRetireWorker() bool {
	for {
		counts := p.separated.counts.Load()
		if counts.NumExistingThreads() <= counts.NumProcessingWork() {
			return false
		}
		newCounts := counts
		newCounts.SetNumExistingThreads(counts.NumExistingThreads() - 1)
		if p.separated.counts.CompareAndSwap(counts, newCounts) {
			return true
		}
	}
}

// retireOnStop unwinds this worker's accounting at shutdown. When a
// processing slot was already raised for it, the matching wake token is
// consumed and the slot returned before the existing count drops.
func (p *Pool) retireOnStop() {
	for !p.tryRetireWorker() {
		<-p.wakeSem
		p.removeWorkingWorker()
	}
}

// isCurrentThreadWorker reports whether the caller is a pool worker.
func (p *Pool) isCurrentThreadWorker() bool {
	_, ok := p.workers.Load(gid.Current())
	return ok
}
