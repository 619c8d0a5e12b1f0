package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/FluidXR/devmon/internal/config"
	"github.com/FluidXR/devmon/internal/logger"
)

// Version of DevMon.
const Version = "0.2.0"

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:     "devmon",
	Short:   "Track connectivity and readiness of ADB test devices",
	Version: Version,
	Long: `DevMon watches Android test devices attached over ADB, tracks their
connectivity state, and blocks until a device is ready for use: online,
package manager responding, and external storage mounted.`,
}

// loadConfig reads the config file and builds a logger from it, honoring
// the --debug flag.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	logCfg := cfg.Log
	if debugFlag {
		logCfg.Debug = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

// requireDeps returns a PersistentPreRunE that checks for external tools.
func requireDeps() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return checkDeps()
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}
