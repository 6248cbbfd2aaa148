// File: api/interfaces.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// ThreadLauncher abstracts native thread creation for pool workers and the
// gate thread. The default implementation starts plain goroutines; an
// OS-thread-pinned variant exists for thread-affine workloads, and
// embedders running on exotic hosts can substitute their own.
type ThreadLauncher interface {
	// Launch starts fn on a fresh thread. Launch itself never blocks on fn.
	Launch(name string, fn func()) error
}

// Waitable is the contract a WaitHandle facade holds on a kernel-like
// synchronization object owned by the wait subsystem. References are
// counted by the subsystem, not by the facade.
type Waitable interface {
	// AddRef takes a shared reference for the duration of a wait or open.
	AddRef()

	// Release drops a reference; the last release frees the object.
	Release()
}

// WaitStatus is the outcome of a single- or multi-object wait.
type WaitStatus int

const (
	// WaitSignaled means the wait was satisfied normally.
	WaitSignaled WaitStatus = iota

	// WaitTimeout means the timeout elapsed before the wait was satisfied.
	WaitTimeout

	// WaitAbandoned means the wait was satisfied by a mutex whose previous
	// owner terminated without releasing it.
	WaitAbandoned
)

// Executor abstracts parallel task dispatch backed by the thread pool.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns current number of live worker threads.
	NumWorkers() int
}

// Control manages dynamic config and runtime metrics.
type Control interface {
	GetConfig() map[string]any
	SetConfig(cfg map[string]any) error
	Stats() map[string]any
	OnReload(fn func())
	RegisterDebugProbe(name string, fn func() any)
}

// Debug exposes runtime introspection and health API.
type Debug interface {
	// DumpState emits a snapshot of system state for diagnostics.
	DumpState() map[string]any

	// RegisterProbe dynamically registers new debug probes.
	RegisterProbe(name string, fn func() any)
}
