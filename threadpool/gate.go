// File: threadpool/gate.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The gate thread is the pool's housekeeping goroutine. It runs blocking
// adjustments (immediately when woken, after a staged delay otherwise),
// refreshes the memory-usage estimate behind the soft ceiling, and acts
// as a backstop against stranded work requests. It is started lazily on
// the first work request and parks on its own monitor between activities.

package threadpool

import (
	"runtime"
	"time"

	"github.com/momentics/hioload-threads/lowlevel"
)

// gateState is the gate thread's coordination block. All fields are
// guarded by monitor.
type gateState struct {
	monitor   *lowlevel.Monitor
	running   bool
	requested bool
}

// ensureGateThreadRunning starts the gate thread if it is not running.
func (p *Pool) ensureGateThreadRunning() {
	g := &p.gate
	g.monitor.Acquire()
	start := !g.running && !p.stopped.Load()
	if start {
		g.running = true
	}
	g.monitor.Release()
	if start {
		p.launchGate()
	}
}

func (p *Pool) launchGate() {
	if err := p.launcher.Launch("threadpool-gate", p.gateLoop); err != nil {
		g := &p.gate
		g.monitor.Acquire()
		g.running = false
		g.monitor.Release()
	}
}

// wakeGateThread requests an immediate gate activity pass, starting the
// gate thread first if necessary.
func (p *Pool) wakeGateThread() {
	g := &p.gate
	g.monitor.Acquire()
	start := !g.running && !p.stopped.Load()
	if start {
		g.running = true
	}
	g.requested = true
	g.monitor.SignalRelease()
	if start {
		p.launchGate()
	}
}

func (p *Pool) gateLoop() {
	g := &p.gate

	// State of the staged blocking-adjustment delay: how long the last
	// adjustment asked to wait, and when that wait was armed.
	var delayMs uint32
	var delayStart time.Time

	for {
		g.monitor.Acquire()
		if !g.requested {
			waitMs := GateActivitiesPeriodMs
			if delayMs > 0 {
				waitMs = int(delayMs)
			}
			g.monitor.Wait(waitMs)
		}
		g.requested = false
		if p.stopped.Load() {
			g.running = false
			g.monitor.Release()
			return
		}
		g.monitor.Release()

		p.refreshMemoryUsage()

		p.adjustmentLock.Acquire()
		if p.pendingBlockingAdjustment == pendingNone {
			delayMs = 0
			p.adjustmentLock.Release()
			p.backstopWorkRequests()
			p.runHousekeepingHook()
			continue
		}
		previousDelayElapsed := delayMs > 0 &&
			time.Since(delayStart) >= time.Duration(delayMs)*time.Millisecond
		nextDelayMs, addWorker := p.performBlockingAdjustment(previousDelayElapsed)
		p.adjustmentLock.Release()

		delayMs = nextDelayMs
		if delayMs > 0 {
			delayStart = time.Now()
		}
		if addWorker {
			p.maybeAddWorkingWorker()
		}
		p.backstopWorkRequests()
		p.runHousekeepingHook()
	}
}

// backstopWorkRequests re-issues a worker wake when requests are
// outstanding, covering wakes lost to workers that retired in the window
// between the request and the wake.
func (p *Pool) backstopWorkRequests() {
	if p.separated.numRequestedWorkers.Load() > 0 {
		p.maybeAddWorkingWorker()
	}
}

// refreshMemoryUsage updates the usage estimate the soft memory ceiling
// is checked against. Runtime-held memory minus what was returned to the
// OS approximates the process footprint.
func (p *Pool) refreshMemoryUsage() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	usage := ms.Sys - ms.HeapReleased
	p.adjustmentLock.Acquire()
	p.memoryUsageBytes = usage
	p.adjustmentLock.Release()
}
