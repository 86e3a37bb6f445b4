// ABOUTME: Settings command for page display preferences.
// ABOUTME: Shows settings and toggles hiding of featured projects.

package main

import (
	"fmt"

	"github.com/harper/tagfilter/internal/ui"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(ui.FormatSettings(store.Load(cmd.Context())))
		return nil
	},
}

var settingsHideFeaturedCmd = &cobra.Command{
	Use:       "hide-featured [on|off]",
	Short:     "Show or set whether featured projects are hidden",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			hide := store.HideFeatured(cmd.Context())
			fmt.Printf("Hide featured: %v\n", hide)
			return nil
		}

		hide := args[0] == "on"
		ctl := newController(cmd.Context())
		ctl.SetHideFeatured(cmd.Context(), hide)

		if hide {
			fmt.Println(ui.Success("Featured projects will be hidden"))
		} else {
			fmt.Println(ui.Success("Featured projects will be shown"))
		}
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsHideFeaturedCmd)
	rootCmd.AddCommand(settingsCmd)
}
