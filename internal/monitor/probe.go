package monitor

import (
	"context"
	"strings"
	"time"
)

const (
	// pmPathCmd asks the package manager for a path it always knows;
	// any answer containing pmPathMarker means the service is up.
	pmPathCmd    = "pm path android"
	pmPathMarker = "package:"

	// mountsCmd lists active mounts; storage is up once the resolved
	// external-storage path appears in the output.
	mountsCmd = "cat /proc/mounts"

	// ExternalStorageMount is the mount name probed during an
	// availability wait.
	ExternalStorageMount = "EXTERNAL_STORAGE"
)

// waitServiceResponsive polls the device package manager until it answers
// or the budget runs out. A communication failure is a failed attempt, not
// an error: it is logged and retried after the poll interval.
func (m *Monitor) waitServiceResponsive(ctx context.Context, budget time.Duration) bool {
	b := NewBudget(budget)
	m.log.Info().Dur("budget", budget).Msg("waiting for package manager")
	for !b.Expired() {
		out, err := m.dev.Shell(ctx, pmPathCmd, m.timings.CommandTimeout)
		if err != nil {
			m.log.Debug().Err(err).Str("cmd", pmPathCmd).Msg("probe command failed")
		} else if strings.Contains(out, pmPathMarker) {
			return true
		}
		if ctx.Err() != nil {
			m.log.Warn().Msg("package manager wait interrupted")
			break
		}
		m.sleep(ctx, m.timings.PollInterval)
	}
	m.log.Warn().Msg("device package manager is unresponsive")
	return false
}

// waitStoreMounted polls until the external storage volume shows up in the
// device mount table. If no mount point can be resolved at all there is
// nothing productive to check, so the probe fails without issuing a command.
func (m *Monitor) waitStoreMounted(ctx context.Context, budget time.Duration) bool {
	b := NewBudget(budget)
	m.log.Info().Dur("budget", budget).Msg("waiting for external storage")
	if b.Expired() {
		m.log.Warn().Msg("external storage is not mounted")
		return false
	}
	mountPoint := m.MountPoint(ctx, ExternalStorageMount)
	if mountPoint == "" {
		m.log.Warn().Str("mount", ExternalStorageMount).Msg("failed to resolve mount point")
		return false
	}
	for !b.Expired() {
		out, err := m.dev.Shell(ctx, mountsCmd, m.timings.CommandTimeout)
		if err != nil {
			m.log.Debug().Err(err).Str("cmd", mountsCmd).Msg("probe command failed")
		} else if strings.Contains(out, mountPoint) {
			return true
		}
		if ctx.Err() != nil {
			m.log.Warn().Msg("external storage wait interrupted")
			break
		}
		m.sleep(ctx, m.timings.PollInterval)
	}
	m.log.Warn().Str("mount", mountPoint).Msg("external storage is not mounted")
	return false
}

// MountPoint resolves a named mount point. The device's cached mount table
// is preferred; when it has no entry, the shell environment is queried
// directly. An empty result means the mount point is unknown.
func (m *Monitor) MountPoint(ctx context.Context, name string) string {
	if path, ok := m.dev.MountPoint(name); ok {
		return path
	}
	out, err := m.dev.Shell(ctx, "echo $"+name, m.timings.CommandTimeout)
	if err != nil {
		m.log.Debug().Err(err).Str("mount", name).Msg("mount point query failed")
		return ""
	}
	return strings.TrimSpace(out)
}

// sleep pauses for the poll interval, waking early if ctx is cancelled.
func (m *Monitor) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
