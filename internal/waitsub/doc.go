// Package waitsub
// Author: momentics <momentics@gmail.com>
//
// Wait subsystem for hioload-threads: kernel-like waitable objects
// (mutexes with ownership and abandonment, counting semaphores, auto- and
// manual-reset events), single- and multi-object waits, and the named-mutex
// registry.
//
// All object state transitions are serialized by one subsystem-wide lock.
// That lock is what makes SignalAndWait atomic and WaitAll all-or-nothing:
// a multi-object acquire either commits every object or none, with no
// observable intermediate state. Waiting threads park outside the lock on
// one-shot tokens; satisfaction is recorded on the waiter record under the
// lock before the wake is delivered, so a timeout racing a signal always
// resolves to exactly one outcome.
package waitsub
