//go:build linux
// +build linux

// File: lowlevel/park_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Futex-backed parker. The state word doubles as the futex word, so the
// wake-versus-timeout race is settled by one CAS on the same cell the
// kernel sleeps on.

package lowlevel

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Parker is a one-shot wakeup token for exactly one waiting thread.
type Parker struct {
	state uint32
}

func (p *Parker) init() {}

// Prepare re-arms the token for another Park/Unpark round. Only valid once
// the previous round has fully completed on both sides.
func (p *Parker) Prepare() {
	atomic.StoreUint32(&p.state, parkerArmed)
}

// Park blocks the calling thread until Unpark is delivered or the timeout
// elapses. A negative timeout waits forever. Returns true if signaled,
// false if the timeout claimed the token.
func (p *Parker) Park(timeout time.Duration) bool {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		switch atomic.LoadUint32(&p.state) {
		case parkerSignaled:
			return true
		case parkerTimedOut:
			return false
		}

		var ts *unix.Timespec
		if timeout >= 0 {
			rem := time.Until(deadline)
			if rem <= 0 {
				if atomic.CompareAndSwapUint32(&p.state, parkerArmed, parkerTimedOut) {
					return false
				}
				// Lost the race to Unpark; loop re-reads the state.
				continue
			}
			t := unix.NsecToTimespec(rem.Nanoseconds())
			ts = &t
		}

		// Spurious wakeups re-enter the loop; EAGAIN means the state
		// changed between the load above and the kernel's check.
		futexWait(&p.state, parkerArmed, ts)
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
			futexWake(&p.state, 1)
			return true
		}
	}
}

// Futex op constants from linux/futex.h; x/sys/unix exports the syscall
// number but not the operations.
const (
	futexOpWait      = 0
	futexOpWake      = 1
	futexPrivateFlag = 0x80
)

func futexWait(addr *uint32, val uint32, ts *unix.Timespec) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWait|futexPrivateFlag),
		uintptr(val),
		uintptr(unsafe.Pointer(ts)),
		0, 0,
	)
}

func futexWake(addr *uint32, count uint32) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexOpWake|futexPrivateFlag),
		uintptr(count),
		0, 0, 0,
	)
}
