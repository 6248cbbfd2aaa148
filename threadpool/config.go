// File: threadpool/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tunable constants, processor-count scaling and memory-limit discovery.
// All values are fixed at pool construction; the config store in control/
// can re-apply min/max bounds at runtime, everything else is static.

package threadpool

import (
	"runtime"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/pbnjay/memory"

	"github.com/momentics/hioload-threads/api"
	"github.com/momentics/hioload-threads/lowlevel"
)

const (
	// MaxPossibleThreadCount bounds every population field; it must fit a
	// signed 16-bit counts field.
	MaxPossibleThreadCount = 32767

	// ThreadPoolThreadTimeoutMs is how long an idle worker waits for work
	// before retiring.
	ThreadPoolThreadTimeoutMs = 20_000

	// GateActivitiesPeriodMs is the gate thread's housekeeping period.
	GateActivitiesPeriodMs = 500

	// DelayStepMs and MaxDelayMs shape the staged delay applied to
	// blocking-compensation growth past the no-delay threshold. DelayStepMs
	// is clamped to MaxDelayMs, MaxDelayMs to the gate activity period.
	DelayStepMs = 25
	MaxDelayMs  = 250

	// memoryPerThreadEstimateBytes is the assumed stack cost of one new
	// worker when checking the soft memory ceiling.
	memoryPerThreadEstimateBytes = 64 << 10

	// memoryCeilingNumerator/Denominator: compensation refuses to create
	// new threads past 80% of the memory limit.
	memoryCeilingNumerator   = 8
	memoryCeilingDenominator = 10
)

// Processor-count-scaled growth constants, computed once at process start
// and clamped so the derived thresholds cannot overflow the counts fields.
var (
	threadsToAddWithoutDelay = int16(clampThreadCount(runtime.GOMAXPROCS(0)))
	threadsPerDelayStep      = int16(clampThreadCount(runtime.GOMAXPROCS(0)))
)

func clampThreadCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPossibleThreadCount {
		return MaxPossibleThreadCount
	}
	return n
}

// Config carries the construction-time knobs of a Pool.
type Config struct {
	// MinThreads and MaxThreads bound the worker population. Zero values
	// default to the processor count and MaxPossibleThreadCount.
	MinThreads int
	MaxThreads int

	// MemoryLimitBytes is the soft ceiling consulted before blocking
	// compensation creates genuinely new threads. Zero means autodetect
	// (cgroup limit when present, otherwise total system memory).
	MemoryLimitBytes uint64

	// WorkQueueCapacity sizes the lock-free work queue. Zero defaults to
	// a capacity proportional to MaxThreads.
	WorkQueueCapacity int

	// Launcher starts worker and gate threads. Nil defaults to plain
	// goroutines (lowlevel.GoLauncher).
	Launcher api.ThreadLauncher
}

func (cfg *Config) withDefaults() Config {
	out := *cfg
	if out.MinThreads <= 0 {
		out.MinThreads = clampThreadCount(runtime.GOMAXPROCS(0))
	}
	out.MinThreads = clampThreadCount(out.MinThreads)
	if out.MaxThreads <= 0 {
		out.MaxThreads = MaxPossibleThreadCount
	}
	out.MaxThreads = clampThreadCount(out.MaxThreads)
	if out.MaxThreads < out.MinThreads {
		out.MaxThreads = out.MinThreads
	}
	if out.MemoryLimitBytes == 0 {
		out.MemoryLimitBytes = detectMemoryLimit()
	}
	if out.WorkQueueCapacity <= 0 {
		out.WorkQueueCapacity = 4096
	}
	if out.Launcher == nil {
		out.Launcher = lowlevel.GoLauncher{}
	}
	return out
}

// detectMemoryLimit prefers the cgroup/container limit and falls back to
// physical memory. A zero result disables the ceiling check.
func detectMemoryLimit() uint64 {
	if limit, err := memlimit.FromCgroup(); err == nil && limit > 0 {
		return limit
	}
	return memory.TotalMemory()
}
