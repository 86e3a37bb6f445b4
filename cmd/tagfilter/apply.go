// ABOUTME: Apply command for filtering a saved project page.
// ABOUTME: Writes the filtered page and optionally a markdown report.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/harper/tagfilter/internal/page"
	"github.com/harper/tagfilter/internal/ui"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <file.html>",
	Short: "Filter a saved page",
	Long: `Apply the active filter (or --filter) to a saved project page.

The filtered page is written to --output ("-" for stdout). With --report
a summary of which projects stay visible is rendered instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		report, _ := cmd.Flags().GetBool("report")
		showAll, _ := cmd.Flags().GetBool("all")

		f, err := os.Open(args[0]) //nolint:gosec // User-specified file path is expected CLI behavior
		if err != nil {
			return fmt.Errorf("failed to open page: %w", err)
		}
		doc, err := page.Parse(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		st := store.Load(cmd.Context())
		keyword := st.ActiveFilter
		if cmd.Flags().Changed("filter") {
			keyword, _ = cmd.Flags().GetString("filter")
		}

		if showAll {
			keyword = ""
		}
		res := doc.Filter(keyword)
		if keyword == "" {
			doc.ShowAll()
		}
		if st.HideFeatured {
			doc.HideFeatured()
		}

		if report {
			md, err := ui.RenderMarkdown(ui.MatchReport(args[0], res, doc.Items()))
			if err != nil {
				return err
			}
			fmt.Print(md)
		} else if !res.Found {
			fmt.Fprintln(os.Stderr, ui.Warning("no project items found on this page"))
		}

		if outputPath == "" {
			if report {
				return nil
			}
			outputPath = "-"
		}
		return writePage(doc, outputPath)
	},
}

func writePage(doc *page.Document, path string) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path) //nolint:gosec // User-specified file path is expected CLI behavior
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return doc.Render(w)
}

func init() {
	applyCmd.Flags().StringP("output", "o", "", "Write the filtered page here (- for stdout)")
	applyCmd.Flags().StringP("filter", "f", "", "Keyword to apply instead of the active filter")
	applyCmd.Flags().Bool("all", false, "Show every project")
	applyCmd.Flags().Bool("report", false, "Print a summary of visible projects")

	rootCmd.AddCommand(applyCmd)
}
