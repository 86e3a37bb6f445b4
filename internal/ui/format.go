// ABOUTME: Terminal UI formatting for tagfilter output.
// ABOUTME: Uses glamour for markdown and fatih/color for styling.

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/harper/tagfilter/internal/models"
	"github.com/harper/tagfilter/internal/page"
)

var (
	faint = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

// FormatFilterList lists the filters in display order and marks the active
// one. An active filter that is no longer listed is called out.
func FormatFilterList(st models.State) string {
	var sb strings.Builder

	if len(st.Filters) == 0 {
		sb.WriteString(faint("  No filters yet. Add one with 'tagfilter filter add <name>'.") + "\n")
	}
	for _, name := range models.SortFilters(st.Filters) {
		if name == st.ActiveFilter {
			sb.WriteString(fmt.Sprintf("  %s %s\n", cyan("●"), bold(cyan(name))))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", faint("○"), name))
	}

	if st.HasActive() && !st.ActiveListed() {
		sb.WriteString("\n" + Warning(fmt.Sprintf("active filter %q is not in the list", st.ActiveFilter)) + "\n")
	}
	return sb.String()
}

func FormatSettings(st models.State) string {
	var sb strings.Builder
	active := st.ActiveFilter
	if active == "" {
		active = "(none)"
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Active filter:"), active))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Hide featured:"), onOff(st.HideFeatured)))
	return sb.String()
}

func onOff(b bool) string {
	if b {
		return color.GreenString("on")
	}
	return color.YellowString("off")
}

// MatchReport builds a markdown summary of one filter pass over a page.
func MatchReport(source string, res page.Result, items []page.Item) string {
	var sb strings.Builder

	keyword := res.Keyword
	if keyword == "" {
		keyword = "(none)"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", source))
	sb.WriteString(fmt.Sprintf("**Filter:** `%s`  \n", keyword))

	if !res.Found {
		sb.WriteString("\nNo project items found on this page.\n")
		return sb.String()
	}

	var layouts []string
	for _, l := range res.Layouts {
		layouts = append(layouts, string(l))
	}
	sb.WriteString(fmt.Sprintf("**Layouts:** %s  \n", strings.Join(layouts, ", ")))
	sb.WriteString(fmt.Sprintf("**Shown:** %d · **Hidden:** %d · **Skipped:** %d\n\n", res.Shown, res.Hidden, len(res.Skipped)))

	sb.WriteString("| Layout | Title | Visible |\n|---|---|---|\n")
	for _, it := range items {
		title := it.Title
		if !it.HasTitle {
			title = "_(no title)_"
		}
		if it.Featured {
			title += " ★"
		}
		visible := "no"
		if it.Visible() {
			visible = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", it.Layout, escapeCell(title), visible))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func RenderMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to raw content if renderer fails
		return content, nil //nolint:nilerr // Intentional fallback
	}

	out, err := renderer.Render(content)
	if err != nil {
		// Fallback to raw content if rendering fails
		return content, nil //nolint:nilerr // Intentional fallback
	}
	return out, nil
}

func Separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}

func Warning(msg string) string {
	return color.New(color.FgYellow).Sprint("! ") + msg
}
