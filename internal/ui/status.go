package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
)

// StatusRow is one host in the connection status table.
type StatusRow struct {
	Host    string
	Address string
	Err     error
	Latency time.Duration
}

// RenderStatusTable renders connection results, one line per host in the given order.
func RenderStatusTable(rows []StatusRow) string {
	if len(rows) == 0 {
		return "No hosts configured\n"
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var b strings.Builder
	b.WriteString(headerStyle.Render("  STATUS   "+padRight("HOST", 15)+padRight("ADDRESS", 30)+"LATENCY") + "\n")

	failed := 0
	for _, row := range rows {
		icon := successStyle().Render(SymbolSuccess)
		detail := mutedStyle().Render(row.Latency.Round(time.Millisecond).String())
		if row.Err != nil {
			failed++
			icon = errorStyle().Render(SymbolFail)
			detail = errorStyle().Render(errors.Summarize(row.Err))
		}

		b.WriteString("  " + icon + "        " +
			padRight(row.Host, 15) +
			padRight(row.Address, 30) +
			detail + "\n")
	}

	b.WriteString("\n")
	if failed == 0 {
		b.WriteString(successStyle().Render(fmt.Sprintf("%s all %d hosts reachable", SymbolSuccess, len(rows))))
	} else {
		b.WriteString(errorStyle().Render(fmt.Sprintf("%s %d of %d hosts unreachable", SymbolFail, failed, len(rows))))
	}
	b.WriteString("\n")

	return b.String()
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
