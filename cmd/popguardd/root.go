package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/config"
)

var cfg *config.AppConfig

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Popup and redirect guard for Chrome",
	Long: `popguardd drives Chrome over the DevTools protocol and blocks popups,
popunders, hidden ad frames and forced redirects on the pages it guards.

Configuration is read from POPGUARD_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if err := log.Configure(c.Env, c.LogLevel); err != nil {
			return fmt.Errorf("logging configuration error: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
