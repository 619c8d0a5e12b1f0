// Package monitor tracks the connectivity state of a single test device and
// exposes blocking, timeout-bound waits for a desired state, plus a layered
// readiness check (online, responsive package manager, mounted external
// storage) that test rigs run before executing anything.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Default timing constants, matching stock device behavior.
const (
	// DefaultPollInterval is the delay between unsuccessful probe attempts.
	DefaultPollInterval = 5 * time.Second
	// DefaultCommandTimeout bounds a single probe shell command.
	DefaultCommandTimeout = 30 * time.Second
	// DefaultOnlineTimeout is the stock budget for an online-only wait.
	DefaultOnlineTimeout = 1 * time.Minute
	// DefaultAvailableTimeout is the stock budget for a full availability wait.
	DefaultAvailableTimeout = 6 * time.Minute
)

// Device is the communication boundary the monitor probes through.
// Implemented by adb.Handle.
type Device interface {
	Serial() string
	// Shell runs a shell command on the device, bounded by timeout,
	// and returns its raw text output.
	Shell(ctx context.Context, cmd string, timeout time.Duration) (string, error)
	// MountPoint returns the cached mount point for a named mount, if known.
	MountPoint(name string) (string, bool)
}

// TransientRegistrar is the fleet-manager hook the monitor registers with
// while waiting for bootloader or not-available states, so it receives
// out-of-band transitions the regular scan would miss.
type TransientRegistrar interface {
	AddTransientListener(m *Monitor)
	RemoveTransientListener(m *Monitor)
}

// Timings are the knobs for probe pacing. Zero fields fall back to the
// package defaults.
type Timings struct {
	PollInterval   time.Duration
	CommandTimeout time.Duration
}

// waiter is one parked WaitForState call. The channel is buffered so a
// notifier never blocks on a waiter that already woke up.
type waiter struct {
	target DeviceState
	ch     chan struct{}
}

func (w *waiter) signal() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// Monitor holds the current state of one device and the set of parked
// waiters. State transitions come from a single writer (the fleet manager);
// reads and waits may come from any goroutine.
type Monitor struct {
	dev     Device
	fleet   TransientRegistrar
	timings Timings
	log     zerolog.Logger

	mu      sync.Mutex
	state   DeviceState
	waiters map[*waiter]struct{}
}

// New creates a monitor for dev starting in the given state. fleet may be
// nil, in which case the transient-listener brackets are skipped.
func New(dev Device, fleet TransientRegistrar, initial DeviceState, t Timings, log zerolog.Logger) *Monitor {
	if t.PollInterval <= 0 {
		t.PollInterval = DefaultPollInterval
	}
	if t.CommandTimeout <= 0 {
		t.CommandTimeout = DefaultCommandTimeout
	}
	return &Monitor{
		dev:     dev,
		fleet:   fleet,
		timings: t,
		log:     log.With().Str("device", dev.Serial()).Logger(),
		state:   initial,
		waiters: make(map[*waiter]struct{}),
	}
}

// Serial returns the serial of the monitored device.
func (m *Monitor) Serial() string {
	return m.dev.Serial()
}

// State returns the current device state.
func (m *Monitor) State() DeviceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetState replaces the current state and wakes every waiter whose target
// matches it exactly. The waiter set is snapshotted under the lock and
// signaled outside it, so a wake can never deadlock against concurrent
// waiter registration or removal.
func (m *Monitor) SetState(s DeviceState) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	var matched []*waiter
	for w := range m.waiters {
		if w.target == s {
			matched = append(matched, w)
		}
	}
	m.mu.Unlock()

	if prev != s {
		m.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("device state changed")
	}
	for _, w := range matched {
		w.signal()
	}
}

// WaitForState blocks until the device reaches target or timeout elapses.
// The return value reflects the state at the moment of return, not whether
// a signal fired: a superseding transition after the wake still counts as
// the ground truth. Cancelling ctx wakes the wait early and is treated the
// same way.
//
// The already-there check and the waiter registration happen under the same
// lock SetState takes, so a transition can never slip between them.
func (m *Monitor) WaitForState(ctx context.Context, target DeviceState, timeout time.Duration) bool {
	m.mu.Lock()
	if m.state == target {
		m.mu.Unlock()
		m.log.Debug().Stringer("state", target).Msg("device already in requested state")
		return true
	}
	if timeout <= 0 {
		m.mu.Unlock()
		return false
	}
	w := &waiter{target: target, ch: make(chan struct{}, 1)}
	m.waiters[w] = struct{}{}
	current := m.state
	m.mu.Unlock()

	m.log.Info().
		Stringer("want", target).
		Stringer("current", current).
		Dur("timeout", timeout).
		Msg("waiting for device state")

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-w.ch:
	case <-timer.C:
	case <-ctx.Done():
		m.log.Warn().Stringer("want", target).Msg("wait for device state interrupted")
	}

	m.mu.Lock()
	delete(m.waiters, w)
	reached := m.state == target
	m.mu.Unlock()
	return reached
}

// WaitForOnline waits until the device is visible and online.
func (m *Monitor) WaitForOnline(ctx context.Context, timeout time.Duration) bool {
	return m.WaitForState(ctx, StateOnline, timeout)
}

// WaitForNotAvailable waits until the device disappears entirely. The wait
// is bracketed by a transient-listener registration so disappearance events
// reach the monitor while it is parked.
func (m *Monitor) WaitForNotAvailable(ctx context.Context, timeout time.Duration) bool {
	if m.fleet != nil {
		m.fleet.AddTransientListener(m)
		defer m.fleet.RemoveTransientListener(m)
	}
	return m.WaitForState(ctx, StateNotAvailable, timeout)
}

// WaitForBootloader waits until the device shows up in bootloader mode,
// bracketed the same way as WaitForNotAvailable.
func (m *Monitor) WaitForBootloader(ctx context.Context, timeout time.Duration) bool {
	if m.fleet != nil {
		m.fleet.AddTransientListener(m)
		defer m.fleet.RemoveTransientListener(m)
	}
	return m.WaitForState(ctx, StateBootloader, timeout)
}

// WaitForAvailable blocks until the device is fully usable: online, package
// manager responsive, and external storage mounted, checked strictly in
// that order. All three stages draw on one shared budget of total; a stage
// entered with nothing left fails without attempting any work.
func (m *Monitor) WaitForAvailable(ctx context.Context, total time.Duration) bool {
	b := NewBudget(total)
	if !m.WaitForOnline(ctx, b.Remaining()) {
		m.log.Warn().Dur("budget", total).Msg("device did not come online")
		return false
	}
	if !m.waitServiceResponsive(ctx, b.Remaining()) {
		return false
	}
	if !m.waitStoreMounted(ctx, b.Remaining()) {
		return false
	}
	return true
}
