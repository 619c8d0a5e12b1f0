// Package fleet discovers ADB-attached devices and maintains one state
// monitor per device, pushing state transitions into the monitors as scans
// observe them.
package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/FluidXR/devmon/internal/adb"
	"github.com/FluidXR/devmon/internal/logger"
	"github.com/FluidXR/devmon/internal/monitor"
)

// Journal records observed state transitions. Optional.
type Journal interface {
	RecordTransition(deviceSerial, from, to string, at time.Time) error
}

// Config holds fleet manager settings.
type Config struct {
	// ScanInterval is how often the manager re-scans adb.
	ScanInterval time.Duration
	// Timings is forwarded to each monitor's probes.
	Timings monitor.Timings
	// MountSeeds pre-populates the mount-point cache,
	// keyed serial -> mount name -> path.
	MountSeeds map[string]map[string]string
}

const defaultScanInterval = 2 * time.Second

// Manager owns the device monitors. It is the single writer of device
// state: every transition a scan observes is pushed via Monitor.SetState.
type Manager struct {
	client  *adb.Client
	journal Journal
	timings monitor.Timings
	scanInt time.Duration
	log     zerolog.Logger

	mu        sync.Mutex
	monitors  map[string]*monitor.Monitor
	transient map[*monitor.Monitor]struct{}
}

// New creates a fleet manager. journal may be nil.
func New(client *adb.Client, journal Journal, cfg Config, log zerolog.Logger) *Manager {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = defaultScanInterval
	}
	for serial, mounts := range cfg.MountSeeds {
		for name, path := range mounts {
			client.SetMountPoint(serial, name, path)
		}
	}
	return &Manager{
		client:    client,
		journal:   journal,
		timings:   cfg.Timings,
		scanInt:   cfg.ScanInterval,
		log:       logger.WithComponent(log, "fleet"),
		monitors:  make(map[string]*monitor.Monitor),
		transient: make(map[*monitor.Monitor]struct{}),
	}
}

// Monitor returns the monitor for a serial, if the device has been seen.
func (f *Manager) Monitor(serial string) (*monitor.Monitor, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.monitors[serial]
	return m, ok
}

// Ensure returns the monitor for a serial, creating one in the
// not-available state if the device has never been seen. Lets a caller
// start waiting before the device first shows up.
func (f *Manager) Ensure(serial string) *monitor.Monitor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.monitors[serial]; ok {
		return m
	}
	m := monitor.New(f.client.Handle(serial), f, monitor.StateNotAvailable, f.timings, f.log)
	f.monitors[serial] = m
	return m
}

// Serials returns the serials of all known devices.
func (f *Manager) Serials() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	serials := make([]string, 0, len(f.monitors))
	for s := range f.monitors {
		serials = append(serials, s)
	}
	return serials
}

// AddTransientListener enables fastboot scanning while at least one monitor
// is waiting for a bootloader or not-available transition.
func (f *Manager) AddTransientListener(m *monitor.Monitor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transient[m] = struct{}{}
}

// RemoveTransientListener undoes AddTransientListener.
func (f *Manager) RemoveTransientListener(m *monitor.Monitor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.transient, m)
}

func (f *Manager) transientActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transient) > 0
}

// Scan runs one discovery pass: list adb devices (plus fastboot devices
// while transient listeners are registered), create monitors for new
// serials, and push state changes into existing ones.
func (f *Manager) Scan() error {
	devices, err := f.client.Devices()
	if err != nil {
		return err
	}

	seen := make(map[string]monitor.DeviceState, len(devices))
	for _, d := range devices {
		seen[d.Serial] = monitor.ParseState(d.State)
	}

	// Devices in bootloader mode are only visible to fastboot. Scanning
	// fastboot unconditionally would slow every pass, so it happens only
	// while someone is waiting for a transient state.
	if f.transientActive() {
		serials, err := f.client.BootloaderDevices()
		if err != nil {
			f.log.Debug().Err(err).Msg("fastboot scan failed")
		}
		for _, s := range serials {
			seen[s] = monitor.StateBootloader
		}
	}

	type change struct {
		mon      *monitor.Monitor
		from, to monitor.DeviceState
	}
	var changes []change

	f.mu.Lock()
	for serial, state := range seen {
		mon, ok := f.monitors[serial]
		if !ok {
			mon = monitor.New(f.client.Handle(serial), f, state, f.timings, f.log)
			f.monitors[serial] = mon
			f.log.Info().Str("device", serial).Stringer("state", state).Msg("device discovered")
			changes = append(changes, change{mon: mon, from: monitor.StateUnknown, to: state})
			continue
		}
		if prev := mon.State(); prev != state {
			changes = append(changes, change{mon: mon, from: prev, to: state})
		}
	}
	for serial, mon := range f.monitors {
		if _, ok := seen[serial]; ok {
			continue
		}
		if prev := mon.State(); prev != monitor.StateNotAvailable {
			changes = append(changes, change{mon: mon, from: prev, to: monitor.StateNotAvailable})
		}
	}
	f.mu.Unlock()

	// SetState fans out to waiters, so it runs outside the manager lock.
	now := time.Now()
	for _, c := range changes {
		c.mon.SetState(c.to)
		if f.journal != nil {
			if err := f.journal.RecordTransition(c.mon.Serial(), c.from.String(), c.to.String(), now); err != nil {
				f.log.Warn().Err(err).Str("device", c.mon.Serial()).Msg("journal write failed")
			}
		}
	}
	return nil
}

// Run scans repeatedly until ctx is cancelled.
func (f *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.scanInt)
	defer ticker.Stop()
	for {
		if err := f.Scan(); err != nil {
			f.log.Warn().Err(err).Msg("device scan failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
