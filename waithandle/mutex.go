// File: waithandle/mutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package waithandle

import (
	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/waitsub"
)

// Mutex is a waitable mutual-exclusion lock with thread ownership,
// recursion and abandonment detection.
type Mutex struct {
	WaitHandle
}

// NewMutex creates an anonymous mutex, optionally owned by the caller.
func NewMutex(initiallyOwned bool) *Mutex {
	obj, _, _ := waitsub.Default.NewMutex(initiallyOwned, "")
	return &Mutex{newHandle(waitsub.Default, obj)}
}

// NewNamedMutex creates or opens a process-wide named mutex. createdNew
// reports whether this call created the mutex; when an existing mutex was
// opened, initiallyOwned is ignored. A name bound to a different primitive
// kind fails with api.ErrNameCollision.
func NewNamedMutex(initiallyOwned bool, name string) (m *Mutex, createdNew bool, err error) {
	obj, createdNew, err := waitsub.Default.NewMutex(initiallyOwned, name)
	if err != nil {
		return nil, false, err
	}
	return &Mutex{newHandle(waitsub.Default, obj)}, createdNew, nil
}

// OpenMutex opens an existing named mutex; a missing or mismatched name
// fails with api.ErrNameCollision.
func OpenMutex(name string) (*Mutex, error) {
	obj, err := waitsub.Default.OpenMutex(name)
	if err != nil {
		return nil, err
	}
	return &Mutex{newHandle(waitsub.Default, obj)}, nil
}

// ReleaseMutex releases one level of ownership. Fails with api.ErrNotOwner
// when the calling thread does not own the mutex; ownership is tracked by
// the subsystem, not by this wrapper.
func (m *Mutex) ReleaseMutex() error {
	if m.closed.Load() {
		return api.ErrClosed
	}
	return m.sub.ReleaseMutex(m.obj)
}
