// Package static provides non-interactive terminal output components.
package static

import (
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

// mutedColor is the dim gray used for secondary information.
var mutedColor = lipgloss.Color("240")

// RenderTable renders rows under bold headers without borders. Columns listed
// in rightAligned (counts, sizes) are aligned right. Nothing is rendered for
// an empty table.
func RenderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if slices.Contains(rightAligned, col) {
				style = style.Align(lipgloss.Right)
			}
			if row == table.HeaderRow {
				style = style.Bold(true)
			}
			return style
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

// Muted renders s as secondary information, such as cache file names and
// ages.
func Muted(s string) string {
	return lipgloss.NewStyle().Foreground(mutedColor).Render(s)
}
