// File: waithandle/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package waithandle

import (
	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/waitsub"
)

// Semaphore is a waitable counting semaphore with a fixed maximum count.
type Semaphore struct {
	WaitHandle
}

// NewSemaphore creates a semaphore with the given initial and maximum
// counts. Requires 0 <= initialCount <= maximumCount and maximumCount >= 1.
func NewSemaphore(initialCount, maximumCount int) (*Semaphore, error) {
	obj, err := waitsub.Default.NewSemaphore(initialCount, maximumCount, "")
	if err != nil {
		return nil, err
	}
	return &Semaphore{newHandle(waitsub.Default, obj)}, nil
}

// Release adds one permit and returns the previous count.
func (s *Semaphore) Release() (int, error) {
	return s.ReleaseCount(1)
}

// ReleaseCount adds count permits and returns the previous count.
// count must be >= 1; exceeding the maximum fails with
// api.ErrSemaphoreFull and leaves the count unchanged.
func (s *Semaphore) ReleaseCount(count int) (int, error) {
	if s.closed.Load() {
		return 0, api.ErrClosed
	}
	return s.sub.ReleaseSemaphore(s.obj, count)
}
