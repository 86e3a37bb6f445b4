// ABOUTME: Export command for backing up filter sets.
// ABOUTME: Supports JSON and YAML export formats.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type ExportData struct {
	ExportedAt   time.Time `json:"exported_at" yaml:"exported_at"`
	Version      string    `json:"version" yaml:"version"`
	Filters      []string  `json:"filters" yaml:"filters"`
	ActiveFilter string    `json:"active_filter,omitempty" yaml:"active_filter,omitempty"`
	HideFeatured *bool     `json:"hide_featured,omitempty" yaml:"hide_featured,omitempty"`
}

func newExportData(st models.State) ExportData {
	filters := st.Filters
	if filters == nil {
		filters = []string{}
	}
	hide := st.HideFeatured
	return ExportData{
		ExportedAt:   time.Now(),
		Version:      "1.0",
		Filters:      filters,
		ActiveFilter: st.ActiveFilter,
		HideFeatured: &hide,
	}
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filters",
	Long:  `Export saved filters and settings to JSON or YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")

		export := newExportData(store.Load(cmd.Context()))

		var data []byte
		var err error
		switch format {
		case "json":
			data, err = json.MarshalIndent(export, "", "  ")
		case "yaml", "yml":
			data, err = yaml.Marshal(export)
		default:
			return fmt.Errorf("unknown format: %s", format)
		}
		if err != nil {
			return err
		}

		if outputPath == "" || outputPath == "-" {
			fmt.Println(string(data))
			return nil
		}

		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Exported %d filters to %s", len(export.Filters), outputPath)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "Export format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}
