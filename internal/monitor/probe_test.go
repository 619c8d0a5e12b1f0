package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceProbeSucceedsFirstAttempt(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(string) (string, error) {
			return "package:/system/app/framework-res.apk", nil
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	ok := m.waitServiceResponsive(context.Background(), time.Second)
	assert.True(t, ok)
	assert.Equal(t, 1, dev.calls(pmPathCmd))
}

func TestServiceProbeRetriesCommFailures(t *testing.T) {
	var attempts atomic.Int32
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(string) (string, error) {
			if attempts.Add(1) < 3 {
				return "", errors.New("device communication failed")
			}
			return "package:/system/app/framework-res.apk", nil
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	ok := m.waitServiceResponsive(context.Background(), 5*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 3, dev.calls(pmPathCmd))
}

// With a budget of 2.4 poll intervals and a probe that never succeeds,
// attempts land at t=0, 1 and 2 intervals: exactly three.
func TestServiceProbeAttemptCountAgainstBudget(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(string) (string, error) {
			return "error: package service not running", nil
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	budget := fastTimings.PollInterval*2 + fastTimings.PollInterval*2/5
	ok := m.waitServiceResponsive(context.Background(), budget)
	assert.False(t, ok)
	assert.Equal(t, 3, dev.calls(pmPathCmd))
}

func TestServiceProbeExhaustedBudgetDoesNoWork(t *testing.T) {
	dev := &fakeDevice{serial: "dev1"}
	m := newTestMonitor(dev, nil, StateOnline)

	assert.False(t, m.waitServiceResponsive(context.Background(), 0))
	assert.False(t, m.waitServiceResponsive(context.Background(), -time.Second))
	assert.Empty(t, dev.commands, "an expired budget must not issue commands")
}

func TestStoreMountProbeFindsCachedPath(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		mounts: map[string]string{ExternalStorageMount: "/storage/emulated/0"},
		shell: func(cmd string) (string, error) {
			return "/dev/fuse /storage/emulated/0 fuse rw 0 0\n", nil
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	ok := m.waitStoreMounted(context.Background(), time.Second)
	assert.True(t, ok)
	assert.Equal(t, 1, dev.calls(mountsCmd))
	assert.Zero(t, dev.calls("echo"), "cached mount point must not be re-queried")
}

func TestStoreMountProbeFailsFastWithoutMountPoint(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(cmd string) (string, error) {
			return "\n", nil // echo $EXTERNAL_STORAGE comes back empty
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	start := time.Now()
	ok := m.waitStoreMounted(context.Background(), 5*time.Second)
	assert.False(t, ok)
	assert.Zero(t, dev.calls(mountsCmd), "no productive check is possible without a mount point")
	assert.Less(t, time.Since(start), time.Second, "must fail immediately, not poll")
}

func TestStoreMountProbeExhaustedBudgetDoesNoWork(t *testing.T) {
	// No cached mount point, so any resolution attempt would show up as
	// an echo command.
	dev := &fakeDevice{serial: "dev1"}
	m := newTestMonitor(dev, nil, StateOnline)

	assert.False(t, m.waitStoreMounted(context.Background(), 0))
	assert.False(t, m.waitStoreMounted(context.Background(), -time.Second))
	assert.Empty(t, dev.commands, "an expired budget must not issue commands, not even mount resolution")
}

func TestStoreMountProbeRetriesUntilMounted(t *testing.T) {
	var attempts atomic.Int32
	dev := &fakeDevice{
		serial: "dev1",
		mounts: map[string]string{ExternalStorageMount: "/sdcard"},
		shell: func(cmd string) (string, error) {
			if attempts.Add(1) < 2 {
				return "/dev/block/dm-0 /system ext4 ro 0 0\n", nil
			}
			return "/dev/fuse /sdcard fuse rw 0 0\n", nil
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	ok := m.waitStoreMounted(context.Background(), 5*time.Second)
	assert.True(t, ok)
	assert.Equal(t, 2, dev.calls(mountsCmd))
}

func TestMountPointPrefersCache(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		mounts: map[string]string{ExternalStorageMount: "/storage/emulated/0"},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	path := m.MountPoint(context.Background(), ExternalStorageMount)
	assert.Equal(t, "/storage/emulated/0", path)
	assert.Empty(t, dev.commands, "cache hit must not issue commands")
}

func TestMountPointFallbackQueriesAndTrims(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(cmd string) (string, error) {
			require.Equal(t, "echo $EXTERNAL_STORAGE", cmd)
			return "/sdcard\n", nil
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	path := m.MountPoint(context.Background(), ExternalStorageMount)
	assert.Equal(t, "/sdcard", path)
	assert.Equal(t, 1, len(dev.commands), "exactly one fallback command")
}

func TestMountPointQueryFailure(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(cmd string) (string, error) {
			return "", errors.New("device communication failed")
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	assert.Empty(t, m.MountPoint(context.Background(), ExternalStorageMount))
}

func TestWaitForAvailableOnlineStageStarvesProbes(t *testing.T) {
	dev := &fakeDevice{serial: "dev1"}
	m := newTestMonitor(dev, nil, StateOffline)

	start := time.Now()
	ok := m.WaitForAvailable(context.Background(), 80*time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Empty(t, dev.commands, "probe stages must not run once the budget is gone")
}

func TestWaitForAvailableHappyPath(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		mounts: map[string]string{ExternalStorageMount: "/storage/emulated/0"},
		shell: func(cmd string) (string, error) {
			switch cmd {
			case pmPathCmd:
				return "package:/system/app/framework-res.apk", nil
			case mountsCmd:
				return "/dev/fuse /storage/emulated/0 fuse rw 0 0\n", nil
			}
			return "", errors.New("unexpected command: " + cmd)
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	start := time.Now()
	ok := m.WaitForAvailable(context.Background(), time.Minute)
	require.True(t, ok)
	assert.Equal(t, 1, dev.calls(pmPathCmd))
	assert.Equal(t, 1, dev.calls(mountsCmd))
	assert.Less(t, time.Since(start), time.Second, "an already-online device consumes no online budget")
}

func TestWaitForAvailableFailsWhenServiceNeverResponds(t *testing.T) {
	dev := &fakeDevice{
		serial: "dev1",
		shell: func(cmd string) (string, error) {
			return "", errors.New("device communication failed")
		},
	}
	m := newTestMonitor(dev, nil, StateOnline)

	ok := m.WaitForAvailable(context.Background(), 3*fastTimings.PollInterval)
	assert.False(t, ok)
	assert.Zero(t, dev.calls(mountsCmd), "storage stage must not run after the service stage fails")
}
