// File: monitor/monitor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Enter/Exit/TryEnter/Wait/Pulse/PulseAll over the side-table slots.
// Mesa discipline: Exit and Pulse hand out wakeups, not ownership; woken
// threads re-compete for the lock, so barging is possible and Wait callers
// must re-check their condition.

package monitor

import (
	"container/list"
	"time"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/gid"
	"github.com/momentics/hioload-threads/lowlevel"
)

// Infinite is the timeout value that waits forever.
const Infinite = -1

// node is one blocked thread in a slot's entry or condition queue.
type node struct {
	parker *lowlevel.Parker
	elem   *list.Element
	pulsed bool
}

// Enter blocks until the calling thread owns obj's lock. Nested Enter
// calls by the owner are counted and must be balanced by Exit.
func Enter(obj any) error {
	s, err := slotFor(obj)
	if err != nil {
		return err
	}
	s.enter(Infinite)
	return nil
}

// TryEnter attempts to take obj's lock within timeoutMs (0 polls, -1
// blocks forever). *lockTaken must be false on entry and is set to true
// exactly when the lock was taken.
func TryEnter(obj any, timeoutMs int, lockTaken *bool) error {
	if lockTaken == nil || *lockTaken {
		return api.ErrInvalidArgument
	}
	if timeoutMs < -1 {
		return api.ErrInvalidArgument
	}
	s, err := slotFor(obj)
	if err != nil {
		return err
	}
	*lockTaken = s.enter(timeoutMs)
	return nil
}

// Exit releases one level of obj's lock. Fails with api.ErrLockNotHeld if
// the calling thread is not the owner.
func Exit(obj any) error {
	s, err := slotFor(obj)
	if err != nil {
		return err
	}
	g := gid.Current()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != g {
		return api.ErrLockNotHeld
	}
	s.recursion--
	if s.recursion == 0 {
		s.owner = gid.None
		s.wakeEntryLocked()
	}
	return nil
}

// IsEntered reports whether the calling thread owns obj's lock.
func IsEntered(obj any) bool {
	s, err := slotFor(obj)
	if err != nil {
		return false
	}
	g := gid.Current()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == g
}

// Wait releases obj's lock, blocks until pulsed or until timeoutMs
// elapses, then reacquires the lock (restoring the recursion level)
// before returning. Returns false only on a timeout without a pulse.
func Wait(obj any, timeoutMs int) (bool, error) {
	if timeoutMs < -1 {
		return false, api.ErrInvalidArgument
	}
	s, err := slotFor(obj)
	if err != nil {
		return false, err
	}
	g := gid.Current()

	s.mu.Lock()
	if s.owner != g {
		s.mu.Unlock()
		return false, api.ErrLockNotHeld
	}
	saved := s.recursion
	s.owner = gid.None
	s.recursion = 0
	s.wakeEntryLocked()

	n := &node{parker: lowlevel.NewParker()}
	n.elem = s.cond.PushBack(n)
	s.mu.Unlock()

	timeout := time.Duration(-1)
	if timeoutMs >= 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}
	signaled := n.parker.Park(timeout)

	s.mu.Lock()
	if n.elem != nil {
		s.cond.Remove(n.elem)
		n.elem = nil
	}
	pulsed := n.pulsed || signaled
	s.mu.Unlock()

	// The lock is always held again on return, pulse or timeout.
	s.enter(Infinite)
	s.mu.Lock()
	s.recursion = saved
	s.mu.Unlock()
	return pulsed, nil
}

// Pulse wakes one thread blocked in Wait on obj. The caller must own the
// lock; the woken thread re-competes for it after the caller exits.
func Pulse(obj any) error {
	return pulse(obj, false)
}

// PulseAll wakes every thread blocked in Wait on obj.
func PulseAll(obj any) error {
	return pulse(obj, true)
}

func pulse(obj any, all bool) error {
	s, err := slotFor(obj)
	if err != nil {
		return err
	}
	g := gid.Current()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != g {
		return api.ErrLockNotHeld
	}
	for s.cond.Len() > 0 {
		e := s.cond.Front()
		n := e.Value.(*node)
		s.cond.Remove(e)
		n.elem = nil
		n.pulsed = true
		delivered := n.parker.Unpark()
		// A pulse landing on a timed-out waiter passes to the next one.
		if !all && delivered {
			break
		}
	}
	return nil
}

// enter is the acquisition loop shared by Enter, TryEnter and Wait's
// reacquisition. Returns false only when the timeout elapsed first.
func (s *slot) enter(timeoutMs int) bool {
	g := gid.Current()
	var deadline time.Time
	if timeoutMs >= 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	s.mu.Lock()
	for {
		if s.owner == gid.None {
			s.owner = g
			s.recursion = 1
			s.mu.Unlock()
			return true
		}
		if s.owner == g {
			s.recursion++
			s.mu.Unlock()
			return true
		}

		timeout := time.Duration(-1)
		if timeoutMs >= 0 {
			timeout = time.Until(deadline)
			if timeout <= 0 {
				s.mu.Unlock()
				return false
			}
		}

		n := &node{parker: lowlevel.NewParker()}
		n.elem = s.entry.PushBack(n)
		s.mu.Unlock()

		n.parker.Park(timeout)

		s.mu.Lock()
		if n.elem != nil {
			s.entry.Remove(n.elem)
			n.elem = nil
		}
		// Loop re-checks ownership; a wake without the lock free again
		// (barging) just parks a fresh node.
	}
}

// wakeEntryLocked hands a wakeup to the oldest live Enter waiter.
func (s *slot) wakeEntryLocked() {
	for s.entry.Len() > 0 {
		e := s.entry.Front()
		n := e.Value.(*node)
		s.entry.Remove(e)
		n.elem = nil
		if n.parker.Unpark() {
			return
		}
		// Timed-out waiter; pass the wake to the next one.
	}
}
