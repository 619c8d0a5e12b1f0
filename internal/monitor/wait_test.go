package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForStateAlreadyThere(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOnline)

	for _, timeout := range []time.Duration{time.Minute, 0, -time.Second} {
		start := time.Now()
		ok := m.WaitForState(context.Background(), StateOnline, timeout)
		assert.True(t, ok, "timeout %s", timeout)
		assert.Less(t, time.Since(start), 100*time.Millisecond, "fast path must not block")
	}
}

func TestWaitForStateZeroTimeout(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOffline)

	start := time.Now()
	ok := m.WaitForState(context.Background(), StateOnline, 0)
	assert.False(t, ok)
	ok = m.WaitForState(context.Background(), StateOnline, -time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitForStateWakesOnTransition(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOffline)

	go func() {
		time.Sleep(30 * time.Millisecond)
		m.SetState(StateOnline)
	}()

	start := time.Now()
	ok := m.WaitForState(context.Background(), StateOnline, 5*time.Second)
	require.True(t, ok)
	assert.Less(t, time.Since(start), time.Second, "must wake on the transition, not the deadline")
}

func TestWaitForStateTimesOut(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOffline)

	start := time.Now()
	ok := m.WaitForState(context.Background(), StateOnline, 80*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWaitersForDifferentStatesAreIndependent(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOffline)

	onlineDone := make(chan bool, 1)
	bootloaderDone := make(chan bool, 1)
	go func() {
		onlineDone <- m.WaitForState(context.Background(), StateOnline, 2*time.Second)
	}()
	go func() {
		bootloaderDone <- m.WaitForState(context.Background(), StateBootloader, 300*time.Millisecond)
	}()

	time.Sleep(30 * time.Millisecond)
	m.SetState(StateOnline)

	select {
	case ok := <-onlineDone:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("online waiter was not woken")
	}

	// The bootloader waiter must not have been woken by StateOnline; it
	// runs out its own timeout instead.
	select {
	case ok := <-bootloaderDone:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("bootloader waiter never returned")
	}
}

func TestWaitForStateCancelledContext(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOffline)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := m.WaitForState(ctx, StateOnline, 5*time.Second)
	assert.False(t, ok, "state never reached, so an interrupted wait reports false")
	assert.Less(t, time.Since(start), time.Second, "cancellation must wake the wait early")
}

func TestWaitForStateNoWaiterLeak(t *testing.T) {
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, nil, StateOffline)

	m.WaitForState(context.Background(), StateOnline, 10*time.Millisecond)
	m.SetState(StateOnline)
	m.WaitForState(context.Background(), StateOffline, 10*time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.waiters, "waiters must be removed on every exit path")
}

func TestWaitForNotAvailableBracketsTransientListener(t *testing.T) {
	fleet := &fakeFleet{}
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, fleet, StateOnline)

	go func() {
		time.Sleep(30 * time.Millisecond)
		m.SetState(StateNotAvailable)
	}()

	ok := m.WaitForNotAvailable(context.Background(), 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, 1, fleet.added)
	assert.Equal(t, 1, fleet.removed)
}

func TestWaitForBootloaderBracketsTransientListener(t *testing.T) {
	fleet := &fakeFleet{}
	m := newTestMonitor(&fakeDevice{serial: "dev1"}, fleet, StateOnline)

	ok := m.WaitForBootloader(context.Background(), 50*time.Millisecond)
	assert.False(t, ok)
	assert.Equal(t, 1, fleet.added)
	assert.Equal(t, 1, fleet.removed, "listener must be removed even on timeout")
}
