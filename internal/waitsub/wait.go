// File: internal/waitsub/wait.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wait paths: single-object, WaitAny, WaitAll and SignalAndWait.
//
// Protocol: a waiter registers one node per object under the subsystem
// lock, parks outside it, and re-checks its record under the lock when it
// wakes. Satisfaction is written to the record before the wake is sent, so
// the record — not the parker result — is the source of truth when a
// timeout races a signal.

package waitsub

import (
	"container/list"
	"time"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/gid"
	"github.com/momentics/hioload-threads/lowlevel"
)

// waiter is one blocked thread's registration across one or more objects.
type waiter struct {
	parker *lowlevel.Parker
	gid    uint64
	isAll  bool
	nodes  []*waitNode

	// Result fields, written under the subsystem lock.
	done      bool
	status    api.WaitStatus
	index     int
	abandoned bool
}

func newWaiter() *waiter {
	return &waiter{parker: lowlevel.NewParker(), nodes: make([]*waitNode, 0, 4)}
}

// waitNode links a waiter into one object's FIFO.
type waitNode struct {
	w     *waiter
	obj   *Object
	index int
	elem  *list.Element
}

// Wait blocks until the object is signaled for the caller or timeoutMs
// elapses. timeoutMs must be >= -1; -1 waits forever.
func (s *Subsystem) Wait(o *Object, timeoutMs int) (api.WaitStatus, error) {
	if o == nil || timeoutMs < -1 {
		return 0, api.ErrInvalidArgument
	}
	o.AddRef()
	defer o.Release()

	g := gid.Current()
	s.mu.Lock()
	if o.isSignalable(g) {
		abandoned := o.acquire(g)
		s.mu.Unlock()
		return waitStatus(abandoned), nil
	}
	if timeoutMs == 0 {
		s.mu.Unlock()
		return api.WaitTimeout, nil
	}

	w := s.prepareWaiter(g, false)
	s.registerNode(w, o, 0)
	s.mu.Unlock()

	w.parker.Park(parkTimeout(timeoutMs))
	return s.finishWait(w)
}

// WaitAny blocks until any object is signaled, returning the index of the
// satisfying object. At most api.MaxWaitables objects.
func (s *Subsystem) WaitAny(objs []*Object, timeoutMs int) (index int, status api.WaitStatus, err error) {
	if err := validateMultiWait(objs, timeoutMs); err != nil {
		return 0, 0, err
	}
	pinAll(objs)
	defer releaseAll(objs)

	g := gid.Current()
	s.mu.Lock()
	for i, o := range objs {
		if o.isSignalable(g) {
			abandoned := o.acquire(g)
			s.mu.Unlock()
			return i, waitStatus(abandoned), nil
		}
	}
	if timeoutMs == 0 {
		s.mu.Unlock()
		return 0, api.WaitTimeout, nil
	}

	w := s.prepareWaiter(g, false)
	for i, o := range objs {
		s.registerNode(w, o, i)
	}
	s.mu.Unlock()

	w.parker.Park(parkTimeout(timeoutMs))
	st, idx, err := s.finishMultiWait(w)
	return idx, st, err
}

// WaitAll blocks until every object is simultaneously acquirable, then
// acquires all of them as one atomic step. On timeout nothing is acquired.
// An abandoned status cannot be attributed to a specific index.
func (s *Subsystem) WaitAll(objs []*Object, timeoutMs int) (api.WaitStatus, error) {
	if err := validateMultiWait(objs, timeoutMs); err != nil {
		return 0, err
	}
	pinAll(objs)
	defer releaseAll(objs)

	g := gid.Current()
	s.mu.Lock()
	if allSignalable(objs, g) {
		abandoned := acquireAll(objs, g)
		s.mu.Unlock()
		return waitStatus(abandoned), nil
	}
	if timeoutMs == 0 {
		s.mu.Unlock()
		return api.WaitTimeout, nil
	}

	w := s.prepareWaiter(g, true)
	for i, o := range objs {
		s.registerNode(w, o, i)
	}
	s.mu.Unlock()

	w.parker.Park(parkTimeout(timeoutMs))
	st, _, err := s.finishMultiWait(w)
	return st, err
}

// SignalAndWait signals toSignal and begins waiting on toWaitOn as a
// single atomic step: no thread can observe the signal delivered without
// this caller already enqueued (or satisfied) on toWaitOn.
func (s *Subsystem) SignalAndWait(toSignal, toWaitOn *Object, timeoutMs int) (api.WaitStatus, error) {
	if toSignal == nil || toWaitOn == nil || timeoutMs < -1 {
		return 0, api.ErrInvalidArgument
	}
	toSignal.AddRef()
	defer toSignal.Release()
	toWaitOn.AddRef()
	defer toWaitOn.Release()

	g := gid.Current()
	s.mu.Lock()

	var err error
	switch toSignal.kind {
	case KindMutex:
		err = s.releaseMutexLocked(toSignal, g)
	case KindSemaphore:
		_, err = s.releaseSemaphoreLocked(toSignal, 1)
	default:
		toSignal.signaled = true
		s.satisfyWaiters(toSignal)
	}
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}

	if toWaitOn.isSignalable(g) {
		abandoned := toWaitOn.acquire(g)
		s.mu.Unlock()
		return waitStatus(abandoned), nil
	}
	if timeoutMs == 0 {
		s.mu.Unlock()
		return api.WaitTimeout, nil
	}

	w := s.prepareWaiter(g, false)
	s.registerNode(w, toWaitOn, 0)
	s.mu.Unlock()

	w.parker.Park(parkTimeout(timeoutMs))
	return s.finishWait(w)
}

// satisfyWaiters walks an object's FIFO after a state change and satisfies
// every waiter the new state can serve. Caller holds the subsystem lock.
func (s *Subsystem) satisfyWaiters(o *Object) {
	for e := o.waiters.Front(); e != nil; {
		next := e.Next()
		n := e.Value.(*waitNode)
		w := n.w
		switch {
		case w.isAll:
			if allSignalableNodes(w) {
				abandoned := acquireAllNodes(w)
				s.satisfy(w, 0, abandoned)
			}
		case o.isSignalable(w.gid):
			abandoned := o.acquire(w.gid)
			s.satisfy(w, n.index, abandoned)
		}
		e = next
	}
}

// satisfy records the result, unregisters every node of the waiter and
// delivers the wake. Caller holds the subsystem lock.
func (s *Subsystem) satisfy(w *waiter, index int, abandoned bool) {
	w.done = true
	w.status = waitStatus(abandoned)
	w.index = index
	w.abandoned = abandoned
	s.unregisterNodes(w)
	w.parker.Unpark()
}

func (s *Subsystem) prepareWaiter(g uint64, isAll bool) *waiter {
	w := s.waiterPool.Get()
	w.gid = g
	w.isAll = isAll
	w.done = false
	w.status = api.WaitSignaled
	w.index = 0
	w.abandoned = false
	return w
}

func (s *Subsystem) registerNode(w *waiter, o *Object, index int) {
	n := s.nodePool.Get()
	n.w = w
	n.obj = o
	n.index = index
	n.elem = o.waiters.PushBack(n)
	w.nodes = append(w.nodes, n)
}

func (s *Subsystem) unregisterNodes(w *waiter) {
	for _, n := range w.nodes {
		if n.elem != nil {
			n.obj.waiters.Remove(n.elem)
			n.elem = nil
		}
		n.w = nil
		n.obj = nil
		s.nodePool.Put(n)
	}
	w.nodes = w.nodes[:0]
}

// finishWait resolves a single-object wait after the park returns.
func (s *Subsystem) finishWait(w *waiter) (api.WaitStatus, error) {
	st, _, err := s.finishMultiWait(w)
	return st, err
}

func (s *Subsystem) finishMultiWait(w *waiter) (api.WaitStatus, int, error) {
	s.mu.Lock()
	if !w.done {
		// The timeout won; no signal was recorded for this waiter.
		w.done = true
		w.status = api.WaitTimeout
		s.unregisterNodes(w)
	}
	st, idx := w.status, w.index
	w.parker.Prepare()
	s.waiterPool.Put(w)
	s.mu.Unlock()
	return st, idx, nil
}

func validateMultiWait(objs []*Object, timeoutMs int) error {
	if timeoutMs < -1 || len(objs) == 0 {
		return api.ErrInvalidArgument
	}
	if len(objs) > api.MaxWaitables {
		return api.ErrTooManyWaitables
	}
	for i, o := range objs {
		if o == nil {
			return api.ErrInvalidArgument
		}
		for j := i + 1; j < len(objs); j++ {
			if objs[j] == o {
				return api.ErrInvalidArgument
			}
		}
	}
	return nil
}

func allSignalable(objs []*Object, g uint64) bool {
	for _, o := range objs {
		if !o.isSignalable(g) {
			return false
		}
	}
	return true
}

func acquireAll(objs []*Object, g uint64) (abandoned bool) {
	for _, o := range objs {
		if o.acquire(g) {
			abandoned = true
		}
	}
	return abandoned
}

func allSignalableNodes(w *waiter) bool {
	for _, n := range w.nodes {
		if !n.obj.isSignalable(w.gid) {
			return false
		}
	}
	return true
}

func acquireAllNodes(w *waiter) (abandoned bool) {
	for _, n := range w.nodes {
		if n.obj.acquire(w.gid) {
			abandoned = true
		}
	}
	return abandoned
}

func pinAll(objs []*Object) {
	for _, o := range objs {
		o.AddRef()
	}
}

func releaseAll(objs []*Object) {
	for _, o := range objs {
		o.Release()
	}
}

func waitStatus(abandoned bool) api.WaitStatus {
	if abandoned {
		return api.WaitAbandoned
	}
	return api.WaitSignaled
}

func parkTimeout(timeoutMs int) time.Duration {
	if timeoutMs < 0 {
		return -1
	}
	return time.Duration(timeoutMs) * time.Millisecond
}
