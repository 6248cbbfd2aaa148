// File: threadpool/counts.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Packed worker-population counters. Three 16-bit fields live in one
// 64-bit word so a worker can observe a consistent snapshot with a single
// atomic load, and compound transitions commit with a single CAS.

package threadpool

import "sync/atomic"

const (
	numProcessingWorkShift  = 0
	numExistingThreadsShift = 16
	numThreadsGoalShift     = 32

	fieldMask = 0xffff
)

// ThreadCounts is a value snapshot of the packed counts word.
// NumProcessingWork: threads currently executing work items.
// NumExistingThreads: live worker threads, processing or idle.
// NumThreadsGoal: target worker population, never below 1.
type ThreadCounts struct {
	data uint64
}

func (tc ThreadCounts) field(shift uint) int16 {
	return int16(tc.data >> shift & fieldMask)
}

func (tc *ThreadCounts) setField(shift uint, value int16) {
	tc.data = tc.data&^(fieldMask<<shift) | uint64(uint16(value))<<shift
}

// NumProcessingWork returns the number of threads executing work items.
func (tc ThreadCounts) NumProcessingWork() int16 {
	return tc.field(numProcessingWorkShift)
}

// SetNumProcessingWork stores the field, clamping below at 0.
func (tc *ThreadCounts) SetNumProcessingWork(value int16) {
	tc.setField(numProcessingWorkShift, max(value, 0))
}

// NumExistingThreads returns the number of live worker threads.
func (tc ThreadCounts) NumExistingThreads() int16 {
	return tc.field(numExistingThreadsShift)
}

// SetNumExistingThreads stores the field, clamping below at 0.
func (tc *ThreadCounts) SetNumExistingThreads(value int16) {
	tc.setField(numExistingThreadsShift, max(value, 0))
}

// NumThreadsGoal returns the target worker population.
func (tc ThreadCounts) NumThreadsGoal() int16 {
	return tc.field(numThreadsGoalShift)
}

// SetNumThreadsGoal stores the field, clamping below at 1.
func (tc *ThreadCounts) SetNumThreadsGoal(value int16) {
	tc.setField(numThreadsGoalShift, max(value, 1))
}

// Equal is raw 64-bit equality over the packed representation.
func (tc ThreadCounts) Equal(other ThreadCounts) bool {
	return tc.data == other.data
}

// atomicCounts is the live counts word. Reads are lock-free; compound
// decisions that derive a new word from a snapshot commit via CAS.
type atomicCounts struct {
	value atomic.Uint64
}

// Load returns a consistent snapshot of all three fields.
func (c *atomicCounts) Load() ThreadCounts {
	return ThreadCounts{data: c.value.Load()}
}

// CompareAndSwap installs newCounts if the word still equals oldCounts.
func (c *atomicCounts) CompareAndSwap(oldCounts, newCounts ThreadCounts) bool {
	return c.value.CompareAndSwap(oldCounts.data, newCounts.data)
}

// InterlockedSetNumThreadsGoal replaces the goal field, preserving the
// other fields across concurrent updates, and returns the counts after
// the update. Must be called with the thread adjustment lock held: the
// lock keeps goal writers serial, the CAS loop only races against
// processing/existing updates from workers.
func (c *atomicCounts) InterlockedSetNumThreadsGoal(value int16) ThreadCounts {
	for {
		oldCounts := c.Load()
		newCounts := oldCounts
		newCounts.SetNumThreadsGoal(value)
		if c.CompareAndSwap(oldCounts, newCounts) {
			return newCounts
		}
	}
}
