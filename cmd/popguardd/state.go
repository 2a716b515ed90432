package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haukened/popguard/internal/guard/common/log"
	"github.com/haukened/popguard/internal/guard/domain"
	"github.com/haukened/popguard/internal/guard/services/background"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show blocked counters and settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(cmd.Context(), func(ctx context.Context, svc *background.Service) error {
			st, err := svc.Stats(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Enabled:              %t\n", st.IsEnabled)
			fmt.Fprintf(out, "Blocked today:        %d\n", st.BlockedToday)
			fmt.Fprintf(out, "Total blocked:        %d\n", st.TotalBlocked)
			fmt.Fprintf(out, "Prompt notifications: %t\n", st.Settings.PromptNotifications)
			fmt.Fprintf(out, "Silent mode:          %t\n", st.Settings.SilentMode)
			return nil
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Turn protection on or off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(cmd.Context(), func(ctx context.Context, svc *background.Service) error {
			enabled, err := svc.Toggle(ctx)
			if err != nil {
				return err
			}
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Protection %s.\n", state)
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <setting> <true|false>",
	Short: "Change a setting: " + strings.Join(domain.SettingKeys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("%w: %q", background.ErrInvalidValue, args[1])
		}
		return withState(cmd.Context(), func(ctx context.Context, svc *background.Service) error {
			if err := svc.UpdateSetting(ctx, args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %t\n", args[0], value)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero the blocked counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(cmd.Context(), func(ctx context.Context, svc *background.Service) error {
			if err := svc.ResetStats(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Counters reset.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, toggleCmd, setCmd, resetCmd)
}

// withState runs fn against the settings store. It fails while a running
// daemon holds the store.
func withState(ctx context.Context, fn func(context.Context, *background.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, svc, err := openState(cfg, log.GetLogger(), nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warn(map[string]any{"error": cerr}, "Failed to close store")
		}
	}()
	if err := ensureInstalled(ctx, store, svc); err != nil {
		return fmt.Errorf("failed to initialise store: %w", err)
	}
	return fn(ctx, svc)
}
