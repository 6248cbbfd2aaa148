// File: internal/waitsub/subsystem.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Subsystem-wide state: the serializing lock, the named-mutex registry and
// per-goroutine mutex ownership used for abandonment detection.

package waitsub

import (
	"sync"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/gid"
	"github.com/momentics/hioload-threads/pool"
)

// Subsystem owns every waitable object created through it.
type Subsystem struct {
	mu    sync.Mutex
	named map[string]*Object
	owned map[uint64]map[*Object]struct{}

	waiterPool *pool.SyncPool[*waiter]
	nodePool   *pool.SyncPool[*waitNode]
}

// New creates an empty subsystem.
func New() *Subsystem {
	return &Subsystem{
		named:      make(map[string]*Object),
		owned:      make(map[uint64]map[*Object]struct{}),
		waiterPool: pool.NewSyncPool(newWaiter),
		nodePool:   pool.NewSyncPool(func() *waitNode { return &waitNode{} }),
	}
}

// Default is the process-wide subsystem the waithandle facades bind to.
var Default = New()

// NewMutex creates (or opens, when name is taken by a mutex) a mutex.
// createdNew is false when an existing named mutex was opened instead; in
// that case initiallyOwned is ignored.
func (s *Subsystem) NewMutex(initiallyOwned bool, name string) (o *Object, createdNew bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name != "" {
		if existing, ok := s.named[name]; ok {
			if existing.kind != KindMutex {
				return nil, false, api.ErrNameCollision
			}
			existing.AddRef()
			return existing, false, nil
		}
	}

	o = &Object{kind: KindMutex, sub: s, name: name}
	o.refs.Store(1)
	if initiallyOwned {
		o.acquire(gid.Current())
	}
	if name != "" {
		s.named[name] = o
	}
	return o, true, nil
}

// OpenMutex opens an existing named mutex or fails with ErrNameCollision.
func (s *Subsystem) OpenMutex(name string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.named[name]
	if !ok || o.kind != KindMutex {
		return nil, api.ErrNameCollision
	}
	o.AddRef()
	return o, nil
}

// NewSemaphore creates a counting semaphore. Named semaphores are not
// supported by this substrate.
func (s *Subsystem) NewSemaphore(initialCount, maximumCount int, name string) (*Object, error) {
	if name != "" {
		return nil, api.ErrNotSupported
	}
	if maximumCount < 1 || initialCount < 0 || initialCount > maximumCount {
		return nil, api.ErrInvalidArgument
	}
	o := &Object{kind: KindSemaphore, sub: s, count: initialCount, maxCount: maximumCount}
	o.refs.Store(1)
	return o, nil
}

// NewEvent creates an auto- or manual-reset event.
func (s *Subsystem) NewEvent(manualReset, initialState bool) *Object {
	kind := KindAutoEvent
	if manualReset {
		kind = KindManualEvent
	}
	o := &Object{kind: kind, sub: s, signaled: initialState}
	o.refs.Store(1)
	return o
}

// ReleaseMutex releases one level of mutex ownership held by the caller.
func (s *Subsystem) ReleaseMutex(o *Object) error {
	if o == nil || o.kind != KindMutex {
		return api.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseMutexLocked(o, gid.Current())
}

func (s *Subsystem) releaseMutexLocked(o *Object, g uint64) error {
	if o.ownerID != g {
		return api.ErrNotOwner
	}
	o.recursion--
	if o.recursion > 0 {
		return nil
	}
	o.ownerID = gid.None
	s.untrackOwned(g, o)
	s.satisfyWaiters(o)
	return nil
}

// ReleaseSemaphore adds count permits and returns the previous count.
func (s *Subsystem) ReleaseSemaphore(o *Object, count int) (previous int, err error) {
	if o == nil || o.kind != KindSemaphore {
		return 0, api.ErrInvalidArgument
	}
	if count < 1 {
		return 0, api.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseSemaphoreLocked(o, count)
}

func (s *Subsystem) releaseSemaphoreLocked(o *Object, count int) (int, error) {
	if o.count > o.maxCount-count {
		return 0, api.ErrSemaphoreFull
	}
	previous := o.count
	o.count += count
	s.satisfyWaiters(o)
	return previous, nil
}

// SetEvent signals an event.
func (s *Subsystem) SetEvent(o *Object) error {
	if o == nil || (o.kind != KindAutoEvent && o.kind != KindManualEvent) {
		return api.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o.signaled = true
	s.satisfyWaiters(o)
	return nil
}

// ResetEvent unsignals an event.
func (s *Subsystem) ResetEvent(o *Object) error {
	if o == nil || (o.kind != KindAutoEvent && o.kind != KindManualEvent) {
		return api.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o.signaled = false
	return nil
}

// OnThreadExit abandons every mutex still owned by goroutine g. Waiters
// blocked on an abandoned mutex acquire it and observe the abandoned
// status; with no waiter the status is delivered to the next acquirer.
func (s *Subsystem) OnThreadExit(g uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for o := range s.owned[g] {
		o.ownerID = gid.None
		o.recursion = 0
		o.abandoned = true
		s.satisfyWaiters(o)
	}
	delete(s.owned, g)
}

func (s *Subsystem) trackOwned(g uint64, o *Object) {
	m := s.owned[g]
	if m == nil {
		m = make(map[*Object]struct{}, 1)
		s.owned[g] = m
	}
	m[o] = struct{}{}
}

func (s *Subsystem) untrackOwned(g uint64, o *Object) {
	if m := s.owned[g]; m != nil {
		delete(m, o)
		if len(m) == 0 {
			delete(s.owned, g)
		}
	}
}

func (s *Subsystem) unregisterName(name string, o *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.named[name] == o {
		delete(s.named, name)
	}
}
