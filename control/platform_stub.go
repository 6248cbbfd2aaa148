//go:build !linux && !windows
// +build !linux,!windows

// control/platform_stub.go
// Author: momentics <momentics@gmail.com>
//
// Portable fallback probes for platforms without specific integrations.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets portable debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.maxprocs", func() any {
		return runtime.GOMAXPROCS(0)
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
