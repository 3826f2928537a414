package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/fleetwatch/internal/errors"
	"github.com/rileyhilliard/fleetwatch/internal/monitor"
	"golang.org/x/term"
)

const (
	// clearScreen moves the cursor home after wiping the terminal.
	clearScreen = "\033[2J\033[H"

	// SeparatorWidth is the width of the line under the column headers.
	SeparatorWidth = 50

	// TimestampLayout formats the Last Update line.
	TimestampLayout = "2006-01-02 15:04:05"

	nameWidth = 12
)

var (
	headerLine = "Server        CPU    Memory       Disk"
	columnLine = "             Usage   Used/Total    Used/Total"
)

// Dashboard renders fleet snapshots as a plain terminal table.
type Dashboard struct {
	out   io.Writer
	clear bool
	now   func() time.Time
}

// NewDashboard returns a dashboard writing to out. When clear is true every
// frame replaces the previous one on screen.
func NewDashboard(out io.Writer, clear bool) *Dashboard {
	return &Dashboard{
		out:   out,
		clear: clear,
		now:   time.Now,
	}
}

var _ monitor.Renderer = (*Dashboard)(nil)

// Render writes one frame for snapshot.
func (d *Dashboard) Render(snapshot monitor.FleetSnapshot) error {
	_, err := io.WriteString(d.out, d.Frame(snapshot))
	return err
}

// Frame builds the text Render writes, without touching the output.
func (d *Dashboard) Frame(snapshot monitor.FleetSnapshot) string {
	var b strings.Builder

	if d.clear {
		b.WriteString(clearScreen)
	}

	taken := snapshot.Taken
	if taken.IsZero() {
		taken = d.now()
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(headerLine))
	b.WriteString("\n")
	b.WriteString(columnLine)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", SeparatorWidth))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Last Update: %s\n\n", taken.Format(TimestampLayout))

	for _, h := range snapshot.Hosts {
		b.WriteString(formatRow(h, true))
		b.WriteString("\n")
	}

	if failed := snapshot.Failed(); failed > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle().Render(fmt.Sprintf("%s %d of %d hosts failed this cycle", SymbolFail, failed, len(snapshot.Hosts))))
		b.WriteString("\n")
	}

	return b.String()
}

// FormatRow renders one host line without colors.
func FormatRow(h monitor.HostStatus) string {
	return formatRow(h, false)
}

func formatRow(h monitor.HostStatus, styled bool) string {
	u := h.Utilization
	if u.Err != nil {
		summary := "Error: " + errors.Summarize(u.Err)
		if styled {
			summary = errorStyle().Render(summary)
		}
		return fmt.Sprintf("%-*s %5s%%  %5s/%sGB  %s/%s  %s",
			nameWidth, h.Name,
			SymbolUnknown, SymbolUnknown, SymbolUnknown, SymbolUnknown, SymbolUnknown,
			summary)
	}

	cpu := fmt.Sprintf("%5.1f%%", u.CPUPercent)
	if styled {
		cpu = lipgloss.NewStyle().Foreground(ThresholdColor(u.CPUPercent)).Render(cpu)
	}

	usedGB := u.Memory.UsedMB / 1024
	totalGB := u.Memory.TotalMB / 1024

	disk := SymbolUnknown + "/" + SymbolUnknown
	if root, ok := u.Disks.Root(); ok {
		disk = root.Used + "/" + root.Total
	}

	return fmt.Sprintf("%-*s %s  %5.1f/%.1fGB  %s", nameWidth, h.Name, cpu, usedGB, totalGB, disk)
}

// IsTerminal reports whether w is a terminal. Only *os.File can be one.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
