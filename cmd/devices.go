package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FluidXR/devmon/internal/adb"
	"github.com/FluidXR/devmon/internal/config"
	"github.com/FluidXR/devmon/internal/journal"
	"github.com/FluidXR/devmon/internal/monitor"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Short:   "List attached devices and their connectivity state",
	PreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		adbClient := adb.NewClient(log)
		devices, err := adbClient.Devices()
		if err != nil {
			return err
		}

		if len(devices) == 0 {
			fmt.Println("No devices connected.")
			return nil
		}

		db, err := journal.Open(config.ConfigDir())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()

		for _, d := range devices {
			nickname := ""
			if dc, ok := cfg.Devices[d.Serial]; ok && dc.Nickname != "" {
				nickname = fmt.Sprintf(" (%s)", dc.Nickname)
			}

			state := monitor.ParseState(d.State)

			fmt.Printf("%-20s %s  [%s] [%s]%s\n",
				d.Serial, d.Model, d.ConnType, state, nickname)

			stats, err := db.GetDeviceStats(d.Serial)
			if err == nil && stats.Transitions > 0 {
				fmt.Printf("  Transitions recorded: %d | Drops: %d\n",
					stats.Transitions, stats.Drops)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
