package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/daryltucker/afdb-filter/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Ratio formats accepted/total with two decimals, or "undefined" when no
// protein was processed.
func Ratio(f model.FleetResult) string {
	r, ok := f.Ratio()
	if !ok {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", r)
}

// WriteSummary prints the final fleet report.
func WriteSummary(w io.Writer, f model.FleetResult) error {
	line := func(label string, value any) string {
		return fmt.Sprintf("%s %v\n", labelStyle.Render(label), value)
	}
	out := titleStyle.Render("Structure filter summary") + "\n" +
		line("Total number of archives:", f.Archives)
	if f.ArchivesFailed > 0 {
		out += warnStyle.Render(fmt.Sprintf("Archives failed: %d", f.ArchivesFailed)) + "\n"
	}
	out += line("Total proteins processed:", f.Total) +
		line("Proteins meeting criteria:", f.Accepted) +
		line("  rejected (confidence):", f.RejectedConfidence) +
		line("  rejected (globularity):", f.RejectedGeometry) +
		line("  incomplete pairs:", f.Incomplete) +
		line("  unreadable artifacts:", f.DecodeErrors) +
		line("Ratio of proteins meeting criteria:", Ratio(f))
	_, err := io.WriteString(w, out)
	return err
}

// WriteCountSummary prints the marker diagnostic totals.
func WriteCountSummary(w io.Writer, marker string, c model.CountResult) error {
	out := titleStyle.Render("Archive entry count") + "\n" +
		fmt.Sprintf("%s %d\n", labelStyle.Render("Total number of archives:"), c.Archives)
	if c.Failed > 0 {
		out += warnStyle.Render(fmt.Sprintf("Archives failed: %d", c.Failed)) + "\n"
	}
	out += fmt.Sprintf("%s %d\n", labelStyle.Render(fmt.Sprintf("Entries containing %q:", marker)), c.Matches)
	_, err := io.WriteString(w, out)
	return err
}
