// File: lowlevel/monitor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Monitor pairs one mutex with one condition variable, the shape the
// thread pool's gate thread and adjustment lock are built on. Waiters park
// on one-shot tokens held in a FIFO; a signal wakes the oldest live waiter.

package lowlevel

import (
	"sync"
	"time"

	"github.com/eapache/queue/v2"

	"github.com/momentics/hioload-threads/internal/gid"
)

// Monitor is a non-reentrant mutex with an attached condition variable.
// The zero value is not usable; construct with NewMonitor.
type Monitor struct {
	mu      sync.Mutex
	waiters *queue.Queue[*Parker]
	owner   uint64 // goroutine id of the holder, gid.None when free
}

// NewMonitor creates an unlocked monitor with an empty wait queue.
func NewMonitor() *Monitor {
	return &Monitor{waiters: queue.New[*Parker]()}
}

// Acquire locks the monitor. Reentrant acquisition deadlocks; the owner
// check in Release and Wait catches the usual misuse patterns.
func (m *Monitor) Acquire() {
	m.mu.Lock()
	m.owner = gid.Current()
}

// Release unlocks the monitor. Panics if the caller is not the holder.
func (m *Monitor) Release() {
	m.verifyOwned("Release")
	m.owner = gid.None
	m.mu.Unlock()
}

// VerifyIsLocked panics unless the calling goroutine holds the monitor.
func (m *Monitor) VerifyIsLocked() {
	m.verifyOwned("VerifyIsLocked")
}

// Wait releases the monitor, blocks until signaled or until timeoutMs
// elapses, then reacquires the monitor before returning. timeoutMs may be
// any value >= -1; -1 waits forever. Returns false if the timeout elapsed
// without a signal.
func (m *Monitor) Wait(timeoutMs int) bool {
	m.verifyOwned("Wait")

	p := NewParker()
	m.waiters.Add(p)
	m.owner = gid.None
	m.mu.Unlock()

	timeout := time.Duration(-1)
	if timeoutMs >= 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	signaled := p.Park(timeout)

	m.mu.Lock()
	m.owner = gid.Current()
	if !signaled {
		// This waiter's dead token (at least) is still queued; sweep so
		// repeated timed waits cannot grow the queue without bound.
		m.pruneStaleLocked()
	}
	return signaled
}

// pruneStaleLocked drops every timed-out token from the wait queue. The
// ring queue has no mid-queue removal, so survivors are rotated through
// in place; one full rotation preserves their order.
func (m *Monitor) pruneStaleLocked() {
	for n := m.waiters.Length(); n > 0; n-- {
		p := m.waiters.Remove()
		if !p.TimedOut() {
			m.waiters.Add(p)
		}
	}
}

// SignalRelease wakes the oldest live waiter and releases the monitor.
// The waiter is dequeued before the unlock, so a wake delivered here can
// never be consumed by a thread that enqueued after the release.
func (m *Monitor) SignalRelease() {
	m.verifyOwned("SignalRelease")
	for m.waiters.Length() > 0 {
		p := m.waiters.Remove()
		if p.Unpark() {
			break
		}
		// Stale token left behind by a timed-out waiter; skip it.
	}
	m.owner = gid.None
	m.mu.Unlock()
}

func (m *Monitor) verifyOwned(op string) {
	if m.owner != gid.Current() {
		panic("lowlevel: Monitor." + op + " called without holding the monitor")
	}
}
