// Package monitor
// Author: momentics <momentics@gmail.com>
//
// Per-object intrinsic locks in the Mesa monitor style: any reference
// value can be used as a lock and condition variable without a separate
// allocation. Slots live in a process-wide side table keyed by the
// object's identity; reference kinds only (pointers, channels), since Go
// has no uniform object header to embed the slot in. A slot is created on
// first use and retained for the lifetime of the table.
package monitor
