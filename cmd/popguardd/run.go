package main

import (
	"github.com/spf13/cobra"

	"github.com/haukened/popguard/internal/guard/common/log"
)

var runCmd = &cobra.Command{
	Use:   "run [urls...]",
	Short: "Guard pages in Chrome until interrupted",
	Long: `Launch Chrome (or connect to browser.remote) and guard every page opened
from the configured pages and the given URLs. The settings store stays
locked while the daemon runs.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	pages := append(append([]string(nil), cfg.Pages...), args...)

	log.Info(map[string]any{
		"version":            version,
		"env":                cfg.Env,
		"log_level":          cfg.LogLevel,
		"interaction_window": cfg.InteractionWindow,
		"cache_size":         cfg.CacheSize,
		"store_path":         cfg.StorePath,
		"remote":             cfg.Browser.Remote,
	}, "Starting popup guard")

	app, err := buildApplication(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := app.Run(ctx, pages); err != nil {
		return err
	}
	log.Info(nil, "Popup guard stopped gracefully")
	return nil
}
