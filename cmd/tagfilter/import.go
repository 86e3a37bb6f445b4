// ABOUTME: Import command for restoring filter sets from backup.
// ABOUTME: Merges or replaces filters from JSON or YAML files.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import filters",
	Long: `Import filters from a JSON or YAML export.

By default imported filters are added to the existing list and duplicates
are skipped. With --replace the list, active filter and settings are
replaced by the file's contents.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		export, err := readExport(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		ctx := cmd.Context()
		st := store.Load(ctx)

		next := st.Clone()
		if replace {
			next = models.DefaultState()
			next.ActiveFilter = export.ActiveFilter
			if export.HideFeatured != nil {
				next.HideFeatured = *export.HideFeatured
			}
		}

		added := 0
		for _, name := range export.Filters {
			list, err := models.AddFilter(name, next.Filters)
			if err != nil {
				if !errors.Is(err, models.ErrDuplicateName) {
					fmt.Println(ui.Warning(fmt.Sprintf("skipping %q: %v", name, err)))
				}
				continue
			}
			next.Filters = list
			added++
		}

		if err := store.Save(ctx, next); err != nil {
			fmt.Println(ui.Warning(fmt.Sprintf("some storage writes failed: %v", err)))
		}

		fmt.Println(ui.Success(fmt.Sprintf("Imported %d filters", added)))
		return nil
	},
}

func readExport(path string) (*ExportData, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return nil, err
	}

	var export ExportData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &export)
	default:
		err = json.Unmarshal(data, &export)
	}
	if err != nil {
		return nil, err
	}
	return &export, nil
}

func init() {
	importCmd.Flags().Bool("replace", false, "Replace existing filters and settings")

	rootCmd.AddCommand(importCmd)
}
