// File: monitor/monitor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-threads/api"
)

func TestEnterExitRoundTrip(t *testing.T) {
	obj := new(int)
	require.NoError(t, Enter(obj))
	assert.True(t, IsEntered(obj))
	require.NoError(t, Exit(obj))
	assert.False(t, IsEntered(obj))
}

func TestNestedEnter(t *testing.T) {
	obj := new(int)
	require.NoError(t, Enter(obj))
	require.NoError(t, Enter(obj))
	require.NoError(t, Exit(obj))
	assert.True(t, IsEntered(obj), "outer level must still be held")
	require.NoError(t, Exit(obj))
	assert.False(t, IsEntered(obj))
}

func TestExitWithoutOwnership(t *testing.T) {
	obj := new(int)
	assert.ErrorIs(t, Exit(obj), api.ErrLockNotHeld)

	require.NoError(t, Enter(obj))
	defer Exit(obj)

	fromOther := make(chan error, 1)
	go func() { fromOther <- Exit(obj) }()
	assert.ErrorIs(t, <-fromOther, api.ErrLockNotHeld)
}

func TestTryEnterContract(t *testing.T) {
	obj := new(int)

	taken := true
	assert.ErrorIs(t, TryEnter(obj, 0, &taken), api.ErrInvalidArgument)
	assert.ErrorIs(t, TryEnter(obj, 0, nil), api.ErrInvalidArgument)

	taken = false
	require.NoError(t, TryEnter(obj, 0, &taken))
	assert.True(t, taken)
	defer Exit(obj)

	blocked := make(chan bool, 1)
	go func() {
		other := false
		if err := TryEnter(obj, 10, &other); err != nil {
			t.Error(err)
		}
		blocked <- other
	}()
	assert.False(t, <-blocked, "contended TryEnter must time out")
}

func TestMutualExclusion(t *testing.T) {
	obj := new(int)
	const workers = 8
	const rounds = 200
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				if err := Enter(obj); err != nil {
					t.Error(err)
					return
				}
				counter++
				if err := Exit(obj); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, workers*rounds, counter)
}

func TestWaitRequiresOwnership(t *testing.T) {
	obj := new(int)
	_, err := Wait(obj, 10)
	assert.ErrorIs(t, err, api.ErrLockNotHeld)
	assert.ErrorIs(t, Pulse(obj), api.ErrLockNotHeld)
	assert.ErrorIs(t, PulseAll(obj), api.ErrLockNotHeld)
}

func TestWaitPulse(t *testing.T) {
	obj := new(int)
	ready := false

	got := make(chan bool, 1)
	go func() {
		if err := Enter(obj); err != nil {
			t.Error(err)
			return
		}
		defer Exit(obj)
		for !ready {
			ok, err := Wait(obj, Infinite)
			if err != nil {
				t.Error(err)
				return
			}
			if !ok {
				t.Error("infinite Wait must not time out")
				return
			}
		}
		got <- true
	}()

	// Let the waiter block, then publish under the lock and pulse.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, Enter(obj))
	ready = true
	require.NoError(t, Pulse(obj))
	require.NoError(t, Exit(obj))

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("pulsed waiter never resumed")
	}
}

func TestWaitTimeout(t *testing.T) {
	obj := new(int)
	require.NoError(t, Enter(obj))
	defer Exit(obj)

	start := time.Now()
	ok, err := Wait(obj, 30)
	require.NoError(t, err)
	assert.False(t, ok, "Wait must report the timeout")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.True(t, IsEntered(obj), "lock must be reacquired after timeout")
}

func TestWaitRestoresRecursion(t *testing.T) {
	obj := new(int)
	require.NoError(t, Enter(obj))
	require.NoError(t, Enter(obj))

	ok, err := Wait(obj, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	// Both levels must still be held.
	require.NoError(t, Exit(obj))
	assert.True(t, IsEntered(obj))
	require.NoError(t, Exit(obj))
	assert.False(t, IsEntered(obj))
}

func TestPulseAll(t *testing.T) {
	obj := new(int)
	const waiters = 5
	released := false

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := Enter(obj); err != nil {
				t.Error(err)
				return
			}
			defer Exit(obj)
			for !released {
				if _, err := Wait(obj, Infinite); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, Enter(obj))
	released = true
	require.NoError(t, PulseAll(obj))
	require.NoError(t, Exit(obj))
	wg.Wait()
}

func TestNonReferenceObjectRejected(t *testing.T) {
	assert.ErrorIs(t, Enter(42), api.ErrInvalidArgument)
	assert.ErrorIs(t, Enter(nil), api.ErrInvalidArgument)
	assert.ErrorIs(t, Enter("s"), api.ErrInvalidArgument)
}
