// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error types and error handling utilities for hioload-threads.

package api

import "fmt"

// Common errors used across the library.
var (
	// ErrInvalidArgument covers out-of-range timeouts, negative counts and
	// invalid flag values. Detected synchronously, never retried.
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// ErrLockNotHeld is raised when Exit, Wait or Pulse is called on a
	// monitor the caller does not own.
	ErrLockNotHeld = fmt.Errorf("object synchronization method was called from an unsynchronized block")

	// ErrNotOwner is raised when a mutex is released by a thread that does
	// not own it.
	ErrNotOwner = fmt.Errorf("mutex is not owned by the calling thread")

	// ErrSemaphoreFull is raised when a semaphore release would exceed the
	// configured maximum count.
	ErrSemaphoreFull = fmt.Errorf("semaphore count would exceed maximum")

	// ErrTooManyWaitables is raised when a multi-wait receives more than
	// MaxWaitables handles.
	ErrTooManyWaitables = fmt.Errorf("wait operation supports at most 64 handles")

	// ErrAbandonedMutex indicates the wait succeeded but a previous owner of
	// the mutex terminated without releasing it.
	ErrAbandonedMutex = fmt.Errorf("wait completed due to an abandoned mutex")

	// ErrNameCollision is raised when a named waitable cannot be created or
	// opened because the name refers to a different primitive kind.
	ErrNameCollision = fmt.Errorf("named waitable cannot be opened")

	// ErrNotSupported covers configurations this substrate declines, such as
	// named semaphores.
	ErrNotSupported = fmt.Errorf("operation not supported")

	// ErrClosed is raised on operations against a disposed handle or a
	// stopped pool.
	ErrClosed = fmt.Errorf("handle or pool is closed")

	// ErrQueueFull is raised when the pool's work queue and its overflow
	// buffer cannot accept another work item.
	ErrQueueFull = fmt.Errorf("work queue is full")
)

// MaxWaitables is the hard cap on handles accepted by WaitAny/WaitAll.
const MaxWaitables = 64

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeLockNotHeld
	ErrCodeNotOwner
	ErrCodeSemaphoreFull
	ErrCodeTooManyWaitables
	ErrCodeAbandonedMutex
	ErrCodeNameCollision
	ErrCodeNotSupported
	ErrCodeClosed
	ErrCodeQueueFull
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
