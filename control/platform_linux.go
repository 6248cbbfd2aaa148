//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific platform metrics or debug probe integrations.

package control

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
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
	dp.RegisterProbe("platform.sysinfo", func() any {
		var si unix.Sysinfo_t
		if err := unix.Sysinfo(&si); err != nil {
			return map[string]any{"error": err.Error()}
		}
		return map[string]any{
			"uptime_sec":   si.Uptime,
			"free_ram":     uint64(si.Freeram) * uint64(si.Unit),
			"total_ram":    uint64(si.Totalram) * uint64(si.Unit),
			"load_1min_fp": si.Loads[0],
		}
	})
}
