// File: waithandle/thread.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package waithandle

import (
	"github.com/momentics/hioload-threads/internal/gid"
	"github.com/momentics/hioload-threads/internal/waitsub"
)

// NotifyThreadExit reports that the calling thread is terminating. Every
// mutex the thread still owns is marked abandoned and handed to the next
// waiter, which observes api.ErrAbandonedMutex on its successful wait.
//
// Pool worker threads call this automatically on exit; threads created
// outside the pool that use mutexes should call it themselves.
func NotifyThreadExit() {
	waitsub.Default.OnThreadExit(gid.Current())
}
