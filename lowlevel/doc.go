// Package lowlevel
// Author: momentics <momentics@gmail.com>
//
// Parking and low-level monitor primitives for the hioload-threads core.
// Implements a one-shot per-waiter wakeup token (futex-backed on Linux,
// channel-backed elsewhere) and a mutex/condition-variable pair used by the
// thread pool's gate thread and by the wait subsystem's queues.
//
// All primitives are cross-platform (Linux/Windows/other) and
// build-tag-partitioned as needed.
package lowlevel
