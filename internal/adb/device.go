package adb

import (
	"context"
	"time"
)

// ConnectionType indicates how a device is connected.
type ConnectionType string

const (
	USB     ConnectionType = "usb"
	WiFi    ConnectionType = "wifi"
	Unknown ConnectionType = "unknown"
)

// Device represents a device as reported by `adb devices -l`.
type Device struct {
	Serial      string
	State       string // "device", "offline", "unauthorized", etc.
	ConnType    ConnectionType
	Model       string
	Product     string
	TransportID string
}

// IsOnline returns true if the device is in "device" state (ready).
func (d Device) IsOnline() bool {
	return d.State == "device"
}

// Handle is a single-device view of a Client. It is the concrete
// implementation of the monitor's device boundary.
type Handle struct {
	client *Client
	serial string
}

// Serial returns the device serial this handle is bound to.
func (h *Handle) Serial() string {
	return h.serial
}

// Shell runs a shell command on this device, bounded by timeout.
func (h *Handle) Shell(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	return h.client.Shell(ctx, h.serial, cmd, timeout)
}

// MountPoint returns the cached mount point for this device, if known.
func (h *Handle) MountPoint(name string) (string, bool) {
	return h.client.MountPoint(h.serial, name)
}
