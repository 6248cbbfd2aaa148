// File: internal/gid/gid.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine identity used for lock ownership and abandonment tracking.
// Workers are goroutines, so the goroutine id is the substrate's thread id.

package gid

import (
	"runtime"
	"strconv"
)

// None is the id reserved for "no owner".
const None uint64 = 0

// Current returns the id of the calling goroutine.
//
// The id is parsed from the first line of the goroutine's stack header,
// which is stable across Go releases ("goroutine N [running]:"). The parse
// costs a small stack dump; callers on hot paths cache the result for the
// duration of an operation rather than re-querying.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Skip "goroutine " and read digits up to the following space.
	const prefix = len("goroutine ")
	i := prefix
	for i < n && buf[i] != ' ' {
		i++
	}
	id, err := strconv.ParseUint(string(buf[prefix:i]), 10, 64)
	if err != nil {
		return None
	}
	return id
}
