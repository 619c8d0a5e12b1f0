package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/FluidXR/devmon/internal/logger"
)

// fakeDevice scripts shell output and records every command issued.
type fakeDevice struct {
	serial string
	mounts map[string]string
	shell  func(cmd string) (string, error)

	mu       sync.Mutex
	commands []string
}

func (d *fakeDevice) Serial() string {
	return d.serial
}

func (d *fakeDevice) Shell(_ context.Context, cmd string, _ time.Duration) (string, error) {
	d.mu.Lock()
	d.commands = append(d.commands, cmd)
	d.mu.Unlock()
	if d.shell == nil {
		return "", errors.New("no shell scripted")
	}
	return d.shell(cmd)
}

func (d *fakeDevice) MountPoint(name string) (string, bool) {
	path, ok := d.mounts[name]
	return path, ok
}

// calls counts issued commands sharing a prefix.
func (d *fakeDevice) calls(prefix string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// fakeFleet counts transient listener registrations.
type fakeFleet struct {
	mu      sync.Mutex
	added   int
	removed int
}

func (f *fakeFleet) AddTransientListener(*Monitor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added++
}

func (f *fakeFleet) RemoveTransientListener(*Monitor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed++
}

// fastTimings keeps probe pacing in the millisecond range so tests finish
// quickly while exercising the same budget arithmetic.
var fastTimings = Timings{
	PollInterval:   50 * time.Millisecond,
	CommandTimeout: time.Second,
}

func newTestMonitor(dev *fakeDevice, fleet TransientRegistrar, initial DeviceState) *Monitor {
	return New(dev, fleet, initial, fastTimings, logger.NewTestLogger())
}
