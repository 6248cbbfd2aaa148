//go:build !linux
// +build !linux

// File: lowlevel/park_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable parker fallback on a buffered channel and a timer. Same state
// machine as the futex variant; the channel only carries the wake once the
// CAS has decided the winner.

package lowlevel

import (
	"sync/atomic"
	"time"
)

// Parker is a one-shot wakeup token for exactly one waiting thread.
type Parker struct {
	state uint32
	wake  chan struct{}
}

func (p *Parker) init() {
	p.wake = make(chan struct{}, 1)
}

// Prepare re-arms the token for another Park/Unpark round. Only valid once
// the previous round has fully completed on both sides.
func (p *Parker) Prepare() {
	atomic.StoreUint32(&p.state, parkerArmed)
	select {
	case <-p.wake:
	default:
	}
}

// Park blocks the caller until Unpark is delivered or the timeout elapses.
// A negative timeout waits forever. Returns true if signaled, false if the
// timeout claimed the token.
func (p *Parker) Park(timeout time.Duration) bool {
	if atomic.LoadUint32(&p.state) == parkerSignaled {
		return true
	}
	if timeout < 0 {
		<-p.wake
		return true
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.wake:
		return true
	case <-t.C:
		if atomic.CompareAndSwapUint32(&p.state, parkerArmed, parkerTimedOut) {
			return false
		}
		// Unpark won the race; its wake is already in flight.
		<-p.wake
		return true
	}
}

// Unpark delivers the wake. Returns false if a timeout already claimed the
// token, in which case no thread is woken and the caller must skip it.
func (p *Parker) Unpark() bool {
	for {
		switch atomic.LoadUint32(&p.state) {
		case parkerTimedOut:
			return false
		case parkerSignaled:
			return true
		}
		if atomic.CompareAndSwapUint32(&p.state, parkerArmed, parkerSignaled) {
			p.wake <- struct{}{}
			return true
		}
	}
}
