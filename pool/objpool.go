// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic recycling pool for the wait paths' transient records. Waiter
// records and queue nodes come back fully reset by their owner before
// Put; the pool only moves objects, it never scrubs them.

package pool

import "sync"

// ObjectPool is the recycling contract the wait subsystem consumes.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

// SyncPool adapts sync.Pool to a typed object pool.
type SyncPool[T any] struct {
	p sync.Pool
}

var _ ObjectPool[int] = (*SyncPool[int])(nil)

// NewSyncPool creates a pool that falls back to creator when empty.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	sp := &SyncPool[T]{}
	sp.p.New = func() any { return creator() }
	return sp
}

// Get returns a recycled instance, or a fresh one from the creator.
func (sp *SyncPool[T]) Get() T {
	return sp.p.Get().(T)
}

// Put hands an instance back for reuse. The caller must have reset it;
// state left behind resurfaces on a later Get.
func (sp *SyncPool[T]) Put(obj T) {
	sp.p.Put(obj)
}
