// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide hot-reload hooks. Every ConfigStore fires these alongside
// its own listeners, so components holding no store reference (platform
// probes, bridges living in other packages) still observe config changes.
// TriggerHotReloadSync exists for deterministic test notification.

package control

import "sync"

var (
	reloadMu    sync.RWMutex
	reloadHooks []func()
)

// RegisterReloadHook adds a process-wide component reload listener.
func RegisterReloadHook(fn func()) {
	reloadMu.Lock()
	reloadHooks = append(reloadHooks, fn)
	reloadMu.Unlock()
}

// TriggerHotReload dispatches all reload hooks asynchronously.
func TriggerHotReload() {
	for _, fn := range snapshotReloadHooks() {
		go fn()
	}
}

// TriggerHotReloadSync invokes all reload hooks synchronously (for test
// determinism).
func TriggerHotReloadSync() {
	for _, fn := range snapshotReloadHooks() {
		fn()
	}
}

// snapshotReloadHooks copies the hook list so dispatch never runs user
// callbacks under the registry lock.
func snapshotReloadHooks() []func() {
	reloadMu.RLock()
	defer reloadMu.RUnlock()
	return append([]func(){}, reloadHooks...)
}
