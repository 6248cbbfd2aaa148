// Package api
// Author: momentics <momentics@gmail.com>
//
// Contract layer for the hioload-threads runtime substrate.
// Part of hioload-threads managed-threading core.
//
// Declares the capability interfaces an embedding runtime provides or
// consumes, together with the shared error taxonomy:
//   - Thread launching and identity for pool workers
//   - Waitable-object contracts backing WaitHandle facades
//   - Debug probe registration and state dumps
//
// Implementations live in lowlevel, internal/waitsub, waithandle, monitor
// and threadpool; this package carries no state of its own.
package api
