// control/pool.go
// Author: momentics <momentics@gmail.com>
//
// Bridge between the control layer and the worker-thread pool: applies
// hot-reloaded bounds, registers introspection probes and publishes pool
// metrics into the registry.

package control

import (
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-threads/threadpool"
)

// PoolBridge couples one pool to a config store, metrics registry and
// probe set.
type PoolBridge struct {
	pool    *threadpool.Pool
	config  *ConfigStore
	metrics *MetricsRegistry
	log     zerolog.Logger
}

// AttachPool wires the pool into the control plane. Config reloads apply
// the pool.* bound keys; probes expose live population state.
func AttachPool(p *threadpool.Pool, cs *ConfigStore, mr *MetricsRegistry, dp *DebugProbes) *PoolBridge {
	b := &PoolBridge{
		pool:    p,
		config:  cs,
		metrics: mr,
		log:     NewLogger("threadpool"),
	}
	if cs != nil {
		cs.OnReload(b.applyBounds)
	}
	if dp != nil {
		b.registerProbes(dp)
	}
	return b
}

// applyBounds re-applies the pool.* bound keys from the store. Max is
// applied before min when both are present, so raising the pair past the
// current maximum succeeds in one reload.
func (b *PoolBridge) applyBounds() {
	minWorkers, minIO := b.pool.GetMinThreads()
	maxWorkers, maxIO := b.pool.GetMaxThreads()

	if v, ok := b.config.GetInt(KeyPoolMaxThreads); ok {
		maxWorkers = v
	}
	if v, ok := b.config.GetInt(KeyPoolMaxIOThreads); ok {
		maxIO = v
	}
	if v, ok := b.config.GetInt(KeyPoolMinThreads); ok {
		minWorkers = v
	}
	if v, ok := b.config.GetInt(KeyPoolMinIOThreads); ok {
		minIO = v
	}

	if !b.pool.SetMaxThreads(maxWorkers, maxIO) {
		b.log.Warn().Int("workers", maxWorkers).Int("io", maxIO).
			Msg("rejected max thread bounds from config reload")
	}
	if !b.pool.SetMinThreads(minWorkers, minIO) {
		b.log.Warn().Int("workers", minWorkers).Int("io", minIO).
			Msg("rejected min thread bounds from config reload")
	}
	b.log.Info().
		Int("min_workers", minWorkers).Int("max_workers", maxWorkers).
		Msg("applied pool bounds")
}

func (b *PoolBridge) registerProbes(dp *DebugProbes) {
	dp.RegisterProbe("pool.threads", func() any {
		return b.pool.ThreadCount()
	})
	dp.RegisterProbe("pool.available", func() any {
		return b.pool.GetAvailableThreads()
	})
	dp.RegisterProbe("pool.completed", func() any {
		return b.pool.CompletedWorkItemCount()
	})
	dp.RegisterProbe("pool.bounds", func() any {
		minWorkers, minIO := b.pool.GetMinThreads()
		maxWorkers, maxIO := b.pool.GetMaxThreads()
		return map[string]int{
			"min_workers": minWorkers,
			"max_workers": maxWorkers,
			"min_io":      minIO,
			"max_io":      maxIO,
		}
	})
}

// PublishMetrics pushes a current snapshot of pool counters into the
// metrics registry. Callers decide the cadence.
func (b *PoolBridge) PublishMetrics() {
	if b.metrics == nil {
		return
	}
	b.metrics.Set("pool.threads", b.pool.ThreadCount())
	b.metrics.Set("pool.available", b.pool.GetAvailableThreads())
	b.metrics.Set("pool.completed", b.pool.CompletedWorkItemCount())
}
