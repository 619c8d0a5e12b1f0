package adb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/FluidXR/devmon/internal/logger"
)

// ErrCommFailed wraps every command-transport failure so callers can tell
// "the device did not answer" apart from their own mistakes.
var ErrCommFailed = errors.New("device communication failed")

// Runner executes an external command and returns its combined output.
// The default runner shells out; tests substitute a scripted one.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Client wraps ADB and fastboot command-line calls and keeps a per-device
// cache of known mount points.
type Client struct {
	run Runner
	log zerolog.Logger

	mu     sync.Mutex
	mounts map[string]map[string]string // serial -> mount name -> path
}

// NewClient creates an ADB client that shells out to the real binaries.
func NewClient(log zerolog.Logger) *Client {
	return NewClientWithRunner(defaultRunner, log)
}

// NewClientWithRunner creates an ADB client with a custom command runner.
func NewClientWithRunner(run Runner, log zerolog.Logger) *Client {
	return &Client{
		run:    run,
		log:    logger.WithComponent(log, "adb"),
		mounts: make(map[string]map[string]string),
	}
}

// Devices returns all devices currently known to ADB.
func (c *Client) Devices() ([]Device, error) {
	out, err := c.run(context.Background(), "adb", "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w\n%s", err, out)
	}
	return parseDeviceList(string(out)), nil
}

// BootloaderDevices returns the serials visible to fastboot, i.e. devices
// currently in bootloader mode. They do not show up in `adb devices`.
func (c *Client) BootloaderDevices() ([]string, error) {
	out, err := c.run(context.Background(), "fastboot", "devices")
	if err != nil {
		return nil, fmt.Errorf("fastboot devices: %w\n%s", err, out)
	}
	return parseBootloaderList(string(out)), nil
}

// Connect connects to a wireless ADB device.
func (c *Client) Connect(ip string, port int) error {
	addr := fmt.Sprintf("%s:%d", ip, port)
	out, err := c.run(context.Background(), "adb", "connect", addr)
	if err != nil {
		return fmt.Errorf("adb connect %s: %w\n%s", addr, err, out)
	}
	output := string(out)
	if strings.Contains(output, "connected") {
		return nil
	}
	return fmt.Errorf("adb connect %s: %s", addr, strings.TrimSpace(output))
}

// Shell runs a shell command on the device and returns its raw output.
// timeout bounds this single command; zero means no bound. Failures are
// wrapped in ErrCommFailed.
func (c *Client) Shell(ctx context.Context, serial, cmd string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := c.run(ctx, "adb", "-s", serial, "shell", cmd)
	if err != nil {
		c.log.Debug().Err(err).Str("device", serial).Str("cmd", cmd).Msg("shell command failed")
		return "", fmt.Errorf("%w: adb shell %q: %v\n%s", ErrCommFailed, cmd, err, out)
	}
	return string(out), nil
}

// SetMountPoint records a known mount point for a device, typically seeded
// from per-device configuration at discovery time.
func (c *Client) SetMountPoint(serial, name, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounts[serial] == nil {
		c.mounts[serial] = make(map[string]string)
	}
	c.mounts[serial][name] = path
}

// MountPoint returns the cached mount point for a device, if known.
func (c *Client) MountPoint(serial, name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.mounts[serial][name]
	return path, ok
}

// Handle binds the client to one serial, giving the monitor a single-device
// view of the command channel.
func (c *Client) Handle(serial string) *Handle {
	return &Handle{client: c, serial: serial}
}

// parseDeviceList parses `adb devices -l` output.
func parseDeviceList(output string) []Device {
	var devices []Device
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "List of") || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		d := Device{
			Serial: fields[0],
			State:  fields[1],
		}
		// Determine connection type
		if strings.Contains(d.Serial, ":") {
			d.ConnType = WiFi
		} else {
			d.ConnType = USB
		}
		// Parse key:value pairs
		for _, f := range fields[2:] {
			parts := strings.SplitN(f, ":", 2)
			if len(parts) != 2 {
				continue
			}
			switch parts[0] {
			case "model":
				d.Model = parts[1]
			case "product":
				d.Product = parts[1]
			case "transport_id":
				d.TransportID = parts[1]
			}
		}
		devices = append(devices, d)
	}
	return devices
}

// parseBootloaderList parses `fastboot devices` output.
// Each line is "<serial>\tfastboot".
func parseBootloaderList(output string) []string {
	var serials []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "fastboot" {
			continue
		}
		serials = append(serials, fields[0])
	}
	return serials
}
