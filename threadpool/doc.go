// File: threadpool/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package threadpool implements a self-tuning worker pool with blocking
// compensation.
//
// The pool steers its worker population toward a goal count held in a
// packed atomic word alongside the live and processing counts. Workers
// step the word lock-free on their hot paths; compound decisions (bound
// changes, blocking compensation) serialize on a thread adjustment lock.
// When workers announce that they are entering blocking operations, a
// gate thread temporarily raises the goal so queued work keeps flowing,
// then lowers it again as the blocking subsides.
package threadpool
