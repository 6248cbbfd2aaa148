// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Debug probe registry backing the substrate's introspection surface.
// Probes are dot-namespaced by convention (pool.*, platform.*) and read
// live state: a dump is a point-in-time snapshot per probe, not a
// consistent cut across all of them.

package control

import "sync"

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates an empty probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook, replacing any earlier probe
// registered under the same name.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState runs every probe and returns the results keyed by name.
// Probes execute outside the registry lock: a slow probe (a pool counter
// behind the adjustment lock, a sysinfo syscall) never blocks
// registration or a concurrent dump.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	snapshot := make(map[string]func() any, len(dp.probes))
	for k, fn := range dp.probes {
		snapshot[k] = fn
	}
	dp.mu.RUnlock()

	out := make(map[string]any, len(snapshot))
	for k, fn := range snapshot {
		out[k] = fn()
	}
	return out
}
