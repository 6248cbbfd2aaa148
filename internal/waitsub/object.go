// File: internal/waitsub/object.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Waitable object state. All methods on Object other than AddRef/Release
// assume the subsystem lock is held.

package waitsub

import (
	"container/list"
	"sync/atomic"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/gid"
)

// Kind discriminates the waitable primitive behind an Object.
type Kind int

const (
	KindMutex Kind = iota
	KindSemaphore
	KindAutoEvent
	KindManualEvent
)

// Object is one waitable. Facades hold counted references to it; the last
// Release frees the object and drops it from the named registry.
type Object struct {
	kind Kind
	sub  *Subsystem
	name string

	refs atomic.Int32

	// Event state. Mutex signaled-ness is derived from ownerID.
	signaled bool

	// Semaphore state.
	count    int
	maxCount int

	// Mutex state.
	ownerID   uint64
	recursion int
	abandoned bool

	// FIFO of *waitNode registered by blocked waiters.
	waiters list.List
}

var _ api.Waitable = (*Object)(nil)

// Kind reports the primitive kind. Safe without the subsystem lock; the
// kind never changes after construction.
func (o *Object) Kind() Kind { return o.kind }

// Name returns the registry name, empty for anonymous objects.
func (o *Object) Name() string { return o.name }

// AddRef takes a shared reference for the duration of a wait or open.
func (o *Object) AddRef() {
	o.refs.Add(1)
}

// Release drops a reference. The last release unregisters a named object.
func (o *Object) Release() {
	if o.refs.Add(-1) > 0 {
		return
	}
	if o.name != "" {
		o.sub.unregisterName(o.name, o)
	}
}

// isSignalable reports whether a wait by goroutine g would be satisfied
// immediately. Mutexes are acquirable by their current owner (recursion).
func (o *Object) isSignalable(g uint64) bool {
	switch o.kind {
	case KindMutex:
		return o.ownerID == gid.None || o.ownerID == g
	case KindSemaphore:
		return o.count > 0
	default:
		return o.signaled
	}
}

// acquire consumes the signal for goroutine g. Caller must have checked
// isSignalable. Returns true if the acquire surfaced an abandoned mutex.
func (o *Object) acquire(g uint64) bool {
	switch o.kind {
	case KindMutex:
		abandoned := o.abandoned
		o.abandoned = false
		if o.ownerID == g {
			o.recursion++
		} else {
			o.ownerID = g
			o.recursion = 1
			o.sub.trackOwned(g, o)
		}
		return abandoned
	case KindSemaphore:
		o.count--
	case KindAutoEvent:
		o.signaled = false
	case KindManualEvent:
		// Signal persists until Reset.
	}
	return false
}
