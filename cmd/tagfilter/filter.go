// ABOUTME: Filter command for managing keyword filters.
// ABOUTME: Provides add, rm, list, on, and off subcommands.

package main

import (
	"fmt"

	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/popup"
	"github.com/harper/tagfilter/internal/ui"
	"github.com/spf13/cobra"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage keyword filters",
	Long: `Add, remove, list, or activate keyword filters.

A filter matches every project whose title contains it, ignoring case.
At most one filter is active at a time.`,
}

var filterAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ignoreCase, _ := cmd.Flags().GetBool("ignore-case")

		policy := models.CaseSensitive
		if ignoreCase {
			policy = models.CaseInsensitive
		}
		ctl := newController(cmd.Context(), popup.WithDuplicatePolicy(policy))

		if err := ctl.Add(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}

		fmt.Println(ui.Success(fmt.Sprintf("Added filter %q", models.NormalizeName(args[0]))))
		return nil
	},
}

var filterRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := newController(cmd.Context())
		wasActive := models.ShouldClearActive(args[0], ctl.State().ActiveFilter)

		ctl.Remove(cmd.Context(), args[0])

		fmt.Println(ui.Success(fmt.Sprintf("Removed filter %q", args[0])))
		if wasActive {
			fmt.Println(ui.Success("Cleared the active filter"))
		}
		return nil
	},
}

var filterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := newController(cmd.Context())
		fmt.Print(ui.FormatFilterList(ctl.State()))
		return nil
	},
}

var filterOnCmd = &cobra.Command{
	Use:   "on <name>",
	Short: "Make a filter active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := newController(cmd.Context())
		if !models.ContainsFilter(ctl.State().Filters, args[0]) {
			fmt.Println(ui.Warning(fmt.Sprintf("%q is not a saved filter", args[0])))
		}

		ctl.Toggle(cmd.Context(), args[0], true)

		fmt.Println(ui.Success(fmt.Sprintf("Active filter is now %q", args[0])))
		return nil
	},
}

var filterOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Clear the active filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := newController(cmd.Context())
		ctl.Toggle(cmd.Context(), ctl.State().ActiveFilter, false)

		fmt.Println(ui.Success("Cleared the active filter"))
		return nil
	},
}

func init() {
	filterAddCmd.Flags().Bool("ignore-case", false, "Treat names differing only in case as duplicates")

	filterCmd.AddCommand(filterAddCmd)
	filterCmd.AddCommand(filterRmCmd)
	filterCmd.AddCommand(filterListCmd)
	filterCmd.AddCommand(filterOnCmd)
	filterCmd.AddCommand(filterOffCmd)

	rootCmd.AddCommand(filterCmd)
}
