// File: lowlevel/launcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread launchers backing api.ThreadLauncher. The pool's workers and gate
// thread run through one of these, so embedders can substitute their own
// thread source.

package lowlevel

import (
	"runtime"

	"github.com/momentics/hioload-threads/api"
)

// GoLauncher starts each function on a plain goroutine, leaving scheduling
// to the runtime. This is the pool's default.
type GoLauncher struct{}

// Launch starts fn on a new goroutine. The name is advisory.
func (GoLauncher) Launch(_ string, fn func()) error {
	go fn()
	return nil
}

// PinnedLauncher starts each function on a goroutine locked to its OS
// thread, for workloads that rely on thread-affine state (TLS, priorities,
// affinity masks).
type PinnedLauncher struct{}

// Launch starts fn on a goroutine pinned to a dedicated OS thread for the
// function's lifetime.
func (PinnedLauncher) Launch(_ string, fn func()) error {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		fn()
	}()
	return nil
}

var (
	_ api.ThreadLauncher = GoLauncher{}
	_ api.ThreadLauncher = PinnedLauncher{}
)
