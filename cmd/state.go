package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FluidXR/devmon/internal/adb"
	"github.com/FluidXR/devmon/internal/monitor"
)

var stateCmd = &cobra.Command{
	Use:     "state <serial>",
	Short:   "Print the current state of a device",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireDeps(),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial := args[0]
		_, log, err := loadConfig()
		if err != nil {
			return err
		}

		adbClient := adb.NewClient(log)
		devices, err := adbClient.Devices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			if d.Serial == serial {
				fmt.Println(monitor.ParseState(d.State))
				return nil
			}
		}

		// Not visible to adb; it may be sitting in the bootloader.
		serials, err := adbClient.BootloaderDevices()
		if err == nil {
			for _, s := range serials {
				if s == serial {
					fmt.Println(monitor.StateBootloader)
					return nil
				}
			}
		}

		fmt.Println(monitor.StateNotAvailable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
