// Package pool
// Author: momentics <momentics@gmail.com>
//
// Object reuse layer for hioload-threads.
// Supplies generic pooling for transient allocations on wait paths: waiter
// records and queue nodes are recycled here instead of hitting the
// allocator once per blocking operation.
// See objpool.go for implementation details.
package pool
