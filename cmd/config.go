package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FluidXR/devmon/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage devmon configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n\n", config.ConfigPath())
		fmt.Printf("Scan interval:     %s\n", cfg.ScanInterval.Std())
		fmt.Printf("Poll interval:     %s\n", cfg.PollInterval.Std())
		fmt.Printf("Command timeout:   %s\n", cfg.CommandTimeout.Std())
		fmt.Printf("Online timeout:    %s\n", cfg.OnlineTimeout.Std())
		fmt.Printf("Available timeout: %s\n", cfg.AvailableTimeout.Std())
		fmt.Printf("\nDevices:\n")
		if len(cfg.Devices) == 0 {
			fmt.Println("  (none configured)")
		}
		for serial, dc := range cfg.Devices {
			fmt.Printf("  - %s", serial)
			if dc.Nickname != "" {
				fmt.Printf(" (%s)", dc.Nickname)
			}
			if dc.WiFiIP != "" {
				fmt.Printf(" [wifi: %s]", dc.WiFiIP)
			}
			fmt.Println()
			for name, path := range dc.MountPoints {
				fmt.Printf("      %s = %s\n", name, path)
			}
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Config created at %s\n", config.ConfigPath())
		return nil
	},
}

var configNicknameCmd = &cobra.Command{
	Use:   "nickname <serial> <name>",
	Short: "Set a nickname for a device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial := args[0]
		name := args[1]

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dc := cfg.Devices[serial]
		dc.Nickname = name
		cfg.Devices[serial] = dc
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Set nickname for %s: %s\n", serial, name)
		return nil
	},
}

var configSetWiFiCmd = &cobra.Command{
	Use:   "set-wifi <serial> <ip>",
	Short: "Set WiFi IP for a device (for wireless ADB)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial := args[0]
		ip := args[1]

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dc := cfg.Devices[serial]
		dc.WiFiIP = ip
		cfg.Devices[serial] = dc
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Set WiFi IP for %s: %s\n", serial, ip)
		return nil
	},
}

var configSetMountCmd = &cobra.Command{
	Use:   "set-mount <serial> <name> <path>",
	Short: "Record a known mount point for a device",
	Long: `Pre-seeds the mount-point cache for a device so availability waits
do not need to query the shell environment.

Example: devmon config set-mount emulator-5554 EXTERNAL_STORAGE /sdcard`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial, name, path := args[0], args[1], args[2]

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dc := cfg.Devices[serial]
		if dc.MountPoints == nil {
			dc.MountPoints = make(map[string]string)
		}
		dc.MountPoints[name] = path
		cfg.Devices[serial] = dc
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("Set mount point for %s: %s = %s\n", serial, name, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configNicknameCmd)
	configCmd.AddCommand(configSetWiFiCmd)
	configCmd.AddCommand(configSetMountCmd)
	rootCmd.AddCommand(configCmd)
}
