// File: waithandle/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package waithandle

import (
	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/internal/waitsub"
)

// EventResetMode selects the reset discipline of an EventWaitHandle.
type EventResetMode int

const (
	// AutoReset events are consumed by each successful wait.
	AutoReset EventResetMode = iota

	// ManualReset events stay signaled until explicitly Reset.
	ManualReset
)

// EventWaitHandle is a waitable event with auto- or manual-reset behavior.
type EventWaitHandle struct {
	WaitHandle
}

// NewEvent creates an event in the given initial state. A mode outside the
// two defined values fails with api.ErrInvalidArgument.
func NewEvent(initialState bool, mode EventResetMode) (*EventWaitHandle, error) {
	if mode != AutoReset && mode != ManualReset {
		return nil, api.ErrInvalidArgument
	}
	obj := waitsub.Default.NewEvent(mode == ManualReset, initialState)
	return &EventWaitHandle{newHandle(waitsub.Default, obj)}, nil
}

// Set signals the event.
func (e *EventWaitHandle) Set() error {
	if e.closed.Load() {
		return api.ErrClosed
	}
	return e.sub.SetEvent(e.obj)
}

// Reset unsignals the event.
func (e *EventWaitHandle) Reset() error {
	if e.closed.Load() {
		return api.ErrClosed
	}
	return e.sub.ResetEvent(e.obj)
}
