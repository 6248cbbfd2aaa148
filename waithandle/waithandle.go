// File: waithandle/waithandle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WaitHandle base type and the multi-object wait entry points.

package waithandle

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/waitsub"
)

// Infinite is the timeout value that waits forever.
const Infinite = -1

// WaitTimeoutIndex is returned by WaitAny when the timeout elapsed before
// any handle was signaled.
const WaitTimeoutIndex = -1

// WaitHandle holds one counted reference to a waitable object owned by the
// wait subsystem. The zero value is invalid; handles are produced by the
// constructors in this package.
type WaitHandle struct {
	sub    *waitsub.Subsystem
	obj    *waitsub.Object
	closed atomic.Bool
}

func newHandle(sub *waitsub.Subsystem, obj *waitsub.Object) WaitHandle {
	return WaitHandle{sub: sub, obj: obj}
}

// Close releases the handle's reference on the underlying waitable.
// Closing twice is an error; waits already in flight hold their own
// references and are unaffected.
func (h *WaitHandle) Close() error {
	if h.closed.Swap(true) {
		return api.ErrClosed
	}
	h.obj.Release()
	return nil
}

// WaitOne blocks until the handle is signaled or timeoutMs elapses.
// timeoutMs must be >= -1; -1 waits forever. Returns false on timeout.
// An abandoned mutex completes the wait — ownership is taken — but the
// condition is surfaced as api.ErrAbandonedMutex alongside true.
func (h *WaitHandle) WaitOne(timeoutMs int) (bool, error) {
	if h.closed.Load() {
		return false, api.ErrClosed
	}
	st, err := h.sub.Wait(h.obj, timeoutMs)
	return waitResult(st, err)
}

// WaitOneFor is WaitOne with a time.Duration timeout. The duration must
// convert to whole milliseconds in [-1, math.MaxInt32].
func (h *WaitHandle) WaitOneFor(d time.Duration) (bool, error) {
	ms, err := toTimeoutMs(d)
	if err != nil {
		return false, err
	}
	return h.WaitOne(ms)
}

// WaitAny blocks until any handle is signaled, returning its index, or
// until timeoutMs elapses, returning WaitTimeoutIndex. At most
// api.MaxWaitables handles. On an abandoned mutex the index of the
// satisfying handle is returned with api.ErrAbandonedMutex.
func WaitAny(handles []*WaitHandle, timeoutMs int) (int, error) {
	objs, err := snapshot(handles)
	if err != nil {
		return WaitTimeoutIndex, err
	}
	idx, st, err := waitsub.Default.WaitAny(objs, timeoutMs)
	if err != nil {
		return WaitTimeoutIndex, err
	}
	switch st {
	case api.WaitTimeout:
		return WaitTimeoutIndex, nil
	case api.WaitAbandoned:
		return idx, api.ErrAbandonedMutex
	default:
		return idx, nil
	}
}

// WaitAll blocks until every handle is simultaneously signaled and
// acquires them as one atomic step. Returns false on timeout; nothing is
// acquired in that case. An abandoned mutex in the set surfaces as
// api.ErrAbandonedMutex with true — the abandoned index cannot be
// identified.
func WaitAll(handles []*WaitHandle, timeoutMs int) (bool, error) {
	objs, err := snapshot(handles)
	if err != nil {
		return false, err
	}
	st, err := waitsub.Default.WaitAll(objs, timeoutMs)
	return waitResult(st, err)
}

// SignalAndWait signals toSignal and waits on toWaitOn as one atomic
// subsystem operation: there is no window where the signal is observable
// but the wait has not begun.
func SignalAndWait(toSignal, toWaitOn *WaitHandle, timeoutMs int) (bool, error) {
	if toSignal == nil || toWaitOn == nil {
		return false, api.ErrInvalidArgument
	}
	if toSignal.closed.Load() || toWaitOn.closed.Load() {
		return false, api.ErrClosed
	}
	st, err := waitsub.Default.SignalAndWait(toSignal.obj, toWaitOn.obj, timeoutMs)
	return waitResult(st, err)
}

// snapshot pins the handles' objects into a defensive slice. The subsystem
// takes its own references for the duration of the wait; this copy only
// guards against the slice being mutated by the caller mid-call.
func snapshot(handles []*WaitHandle) ([]*waitsub.Object, error) {
	if len(handles) == 0 {
		return nil, api.ErrInvalidArgument
	}
	if len(handles) > api.MaxWaitables {
		return nil, api.ErrTooManyWaitables
	}
	objs := make([]*waitsub.Object, len(handles))
	for i, h := range handles {
		if h == nil {
			return nil, api.ErrInvalidArgument
		}
		if h.closed.Load() {
			return nil, api.ErrClosed
		}
		objs[i] = h.obj
	}
	return objs, nil
}

func waitResult(st api.WaitStatus, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	switch st {
	case api.WaitTimeout:
		return false, nil
	case api.WaitAbandoned:
		return true, api.ErrAbandonedMutex
	default:
		return true, nil
	}
}

func toTimeoutMs(d time.Duration) (int, error) {
	ms := d.Milliseconds()
	if ms < -1 || ms > math.MaxInt32 {
		return 0, api.ErrInvalidArgument
	}
	return int(ms), nil
}
