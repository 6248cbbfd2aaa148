// Package waithandle
// Author: momentics <momentics@gmail.com>
//
// WaitHandle facades over the wait subsystem: Mutex, Semaphore and
// EventWaitHandle, plus the multi-object WaitAny/WaitAll/SignalAndWait
// entry points. A handle is a counted reference to a waitable object;
// several handles may reference the same object after an open by name.
// Close drops the handle's reference, the subsystem frees the object when
// the last reference is gone.
package waithandle
