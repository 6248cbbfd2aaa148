// control/runtime.go
// Author: momentics <momentics@gmail.com>
//
// Aggregate control surface: one object implementing the api.Control and
// api.Debug contracts over the config store, metrics registry and probes.

package control

import (
	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/threadpool"
)

// Runtime bundles the control-plane pieces for one pool.
type Runtime struct {
	Config  *ConfigStore
	Metrics *MetricsRegistry
	Probes  *DebugProbes
	Bridge  *PoolBridge
}

// NewRuntime builds a full control plane around p: config reloads apply
// pool bounds, probes expose pool and platform state, and the pool's gate
// thread publishes metrics each housekeeping lap.
func NewRuntime(p *threadpool.Pool) *Runtime {
	r := &Runtime{
		Config:  NewConfigStore(),
		Metrics: NewMetricsRegistry(),
		Probes:  NewDebugProbes(),
	}
	r.Bridge = AttachPool(p, r.Config, r.Metrics, r.Probes)
	RegisterPlatformProbes(r.Probes)
	p.SetHousekeepingHook(r.Bridge.PublishMetrics)
	return r
}

// GetConfig returns a snapshot of the current configuration.
func (r *Runtime) GetConfig() map[string]any {
	return r.Config.GetSnapshot()
}

// SetConfig merges cfg and triggers reload listeners.
func (r *Runtime) SetConfig(cfg map[string]any) error {
	r.Config.SetConfig(cfg)
	return nil
}

// Stats returns the latest metrics snapshot.
func (r *Runtime) Stats() map[string]any {
	return r.Metrics.GetSnapshot()
}

// OnReload registers a config reload listener.
func (r *Runtime) OnReload(fn func()) {
	r.Config.OnReload(fn)
}

// RegisterDebugProbe registers a named probe.
func (r *Runtime) RegisterDebugProbe(name string, fn func() any) {
	r.Probes.RegisterProbe(name, fn)
}

// RegisterProbe registers a named probe.
func (r *Runtime) RegisterProbe(name string, fn func() any) {
	r.Probes.RegisterProbe(name, fn)
}

// DumpState returns the output of every registered probe.
func (r *Runtime) DumpState() map[string]any {
	return r.Probes.DumpState()
}

var (
	_ api.Control = (*Runtime)(nil)
	_ api.Debug   = (*Runtime)(nil)
	_ api.Debug   = (*DebugProbes)(nil)
)
