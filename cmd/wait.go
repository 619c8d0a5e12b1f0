package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FluidXR/devmon/internal/adb"
	"github.com/FluidXR/devmon/internal/config"
	"github.com/FluidXR/devmon/internal/fleet"
	"github.com/FluidXR/devmon/internal/journal"
	"github.com/FluidXR/devmon/internal/monitor"
)

var (
	waitSerial  string
	waitTimeout time.Duration
)

var waitCmd = &cobra.Command{
	Use:   "wait [available|online|bootloader|not-available]",
	Short: "Block until a device reaches the given state",
	Long: `Blocks until the device reaches the requested state or the timeout
expires. The default target, "available", waits for the device to be fully
usable: online, package manager responding, and external storage mounted.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		target := "available"
		if len(args) == 1 {
			target = args[0]
		}

		adbClient := adb.NewClient(log)

		serial := waitSerial
		if serial == "" {
			serial, err = pickSerial(adbClient)
			if err != nil {
				return err
			}
		}

		db, err := journal.Open(config.ConfigDir())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()

		mgr := fleet.New(adbClient, db, fleet.Config{
			ScanInterval: cfg.ScanInterval.Std(),
			Timings: monitor.Timings{
				PollInterval:   cfg.PollInterval.Std(),
				CommandTimeout: cfg.CommandTimeout.Std(),
			},
			MountSeeds: mountSeeds(cfg),
		}, log)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go mgr.Run(ctx)

		mon := mgr.Ensure(serial)

		timeout := waitTimeout
		if timeout <= 0 {
			if target == "available" {
				timeout = cfg.AvailableTimeout.Std()
			} else {
				timeout = cfg.OnlineTimeout.Std()
			}
		}

		var ok bool
		switch target {
		case "available":
			ok = mon.WaitForAvailable(ctx, timeout)
		case "online":
			ok = mon.WaitForOnline(ctx, timeout)
		case "bootloader":
			ok = mon.WaitForBootloader(ctx, timeout)
		case "not-available":
			ok = mon.WaitForNotAvailable(ctx, timeout)
		default:
			return fmt.Errorf("unknown wait target %q", target)
		}
		if !ok {
			return fmt.Errorf("device %s did not become %s within %s", serial, target, timeout)
		}
		fmt.Printf("Device %s is %s.\n", serial, target)
		return nil
	},
}

// pickSerial returns the only connected device, erroring if there are zero
// or several.
func pickSerial(client *adb.Client) (string, error) {
	devices, err := client.Devices()
	if err != nil {
		return "", err
	}
	switch len(devices) {
	case 0:
		return "", fmt.Errorf("no devices connected — specify one with --serial")
	case 1:
		return devices[0].Serial, nil
	default:
		return "", fmt.Errorf("%d devices connected — specify one with --serial", len(devices))
	}
}

// mountSeeds collects per-device mount points from config.
func mountSeeds(cfg *config.Config) map[string]map[string]string {
	seeds := make(map[string]map[string]string)
	for serial, dc := range cfg.Devices {
		if len(dc.MountPoints) > 0 {
			seeds[serial] = dc.MountPoints
		}
	}
	return seeds
}

func init() {
	waitCmd.Flags().StringVarP(&waitSerial, "serial", "s", "", "device serial to wait on")
	waitCmd.Flags().DurationVarP(&waitTimeout, "timeout", "t", 0, "wait budget (default from config)")
	rootCmd.AddCommand(waitCmd)
}
