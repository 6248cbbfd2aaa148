// File: lowlevel/parker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One-shot wakeup token shared by the monitor and wait-queue machinery.
// The platform files supply the blocking primitive; this file fixes the
// state machine both implementations follow.

package lowlevel

import "sync/atomic"

// Parker states. Transitions are resolved by CAS so that exactly one of
// Unpark and a timeout wins; the loser observes the winner's state.
const (
	parkerArmed    uint32 = 0
	parkerSignaled uint32 = 1
	parkerTimedOut uint32 = 2
)

// TimedOut reports whether a timeout has claimed the token. A timed-out
// token is dead weight in any wait queue still holding it.
func (p *Parker) TimedOut() bool {
	return atomic.LoadUint32(&p.state) == parkerTimedOut
}

// NewParker returns an armed Parker ready for a single Park/Unpark round.
func NewParker() *Parker {
	p := &Parker{}
	p.init()
	return p
}
