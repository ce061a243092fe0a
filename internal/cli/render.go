package cli

import (
	"fmt"
	"io"
	"strings"

	"finsheets/internal/core"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD54A")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true)
)

// RenderSheet draws a sheet as a table with one date label per group, the
// entry ids needed by set/rm, and a total line.
func RenderSheet(s core.Sheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n",
		titleStyle.Render(s.Name),
		dimStyle.Render(fmt.Sprintf("%02d/%04d · %s", s.Month, s.Year, s.ID)))

	cols := []string{core.LabelDate, core.LabelOverview, core.LabelAmount, core.LabelWork, "ID"}
	rows := [][]string{}
	for _, g := range s.Groups() {
		for i, e := range g.Entries {
			date := ""
			if i == 0 {
				date = g.Date
			}
			rows = append(rows, []string{date, e.Overview, amountText(e.Amount), e.Work, e.ID})
		}
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	const gap = "  "
	for i, c := range cols {
		b.WriteString(headerStyle.Width(widths[i]).Render(c) + gap)
	}
	b.WriteString("\n")
	for _, r := range rows {
		for i, cell := range r {
			style := lipgloss.NewStyle()
			switch i {
			case 2:
				style = amountStyle(cell).Align(lipgloss.Right)
			case 4:
				style = dimStyle
			}
			b.WriteString(style.Width(widths[i]).Render(cell) + gap)
		}
		b.WriteString("\n")
	}

	total := s.Total()
	fmt.Fprintf(&b, "\n%s %s    %s %d\n",
		headerStyle.Render(core.LabelTotal+":"),
		amountStyle(total.String()).Render(total.FormatGrouped()),
		headerStyle.Render(core.LabelTransactions+":"),
		s.TransactionCount())
	return b.String()
}

// RenderSheetList lists sheets one per line and marks the current one.
func RenderSheetList(sheets []core.Sheet, current string) string {
	if len(sheets) == 0 {
		return dimStyle.Render("No sheets yet. Create one with: finsheets-cli create <name> --month M --year YYYY") + "\n"
	}
	var b strings.Builder
	for _, s := range sheets {
		marker := "  "
		name := s.Name
		if s.ID == current {
			marker = selectedStyle.Render(">") + " "
			name = selectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%s  %s  %s\n", marker, name,
			dimStyle.Render(fmt.Sprintf("%02d/%04d", s.Month, s.Year)),
			dimStyle.Render(s.ID))
	}
	return b.String()
}

// PrintError writes err in the error colour.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render(err.Error()))
}

func amountText(m core.Money) string {
	if m.IsZero() {
		return ""
	}
	return m.FormatGrouped()
}

func amountStyle(text string) lipgloss.Style {
	switch {
	case text == "" || text == "0":
		return lipgloss.NewStyle()
	case strings.HasPrefix(text, "-"):
		return negativeStyle
	default:
		return positiveStyle
	}
}
