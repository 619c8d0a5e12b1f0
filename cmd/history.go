package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FluidXR/devmon/internal/config"
	"github.com/FluidXR/devmon/internal/journal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <serial>",
	Short: "Show recorded state transitions for a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial := args[0]

		db, err := journal.Open(config.ConfigDir())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()

		transitions, err := db.History(serial, historyLimit)
		if err != nil {
			return err
		}
		if len(transitions) == 0 {
			fmt.Printf("No transitions recorded for %s.\n", serial)
			return nil
		}
		for _, t := range transitions {
			fmt.Printf("%s  %s -> %s\n",
				t.At.Local().Format("2006-01-02 15:04:05"), t.From, t.To)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max transitions to show")
	rootCmd.AddCommand(historyCmd)
}
