package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

const (
	maxLabelWidth  = 40
	maxColumnWidth = 14
	cellWidth      = 3
)

var (
	selectedRowStyle  = lipgloss.NewStyle().Reverse(true).Bold(true)
	selectedCellStyle = lipgloss.NewStyle().Reverse(true)
	headerStyle       = lipgloss.NewStyle().Bold(true)
	activeHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderMatrixView draws the column header and the visible rows. A zero
// height draws every row; otherwise the rows scroll in a viewport of
// height-1 lines starting at the model's row offset.
func RenderMatrixView(m Model, width int, height int) string {
	rows := m.ctrl.Rows()
	if len(rows) == 0 {
		return "no locations"
	}

	headers := columnHeaders(m.requirements)
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = max(lipgloss.Width(h), cellWidth)
	}
	labelWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(rowLabel(row)))
	}
	labelWidth = min(max(labelWidth, len("Location")), maxLabelWidth)

	var header strings.Builder
	header.WriteString(headerStyle.Render(padRight("Location", labelWidth)))
	for i, h := range headers {
		header.WriteString("  ")
		style := headerStyle
		if i == m.column {
			style = activeHeaderStyle
		}
		header.WriteString(style.Render(padRight(h, widths[i])))
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, renderMatrixLine(m, row, labelWidth, widths))
	}
	body := strings.Join(lines, "\n")

	if height <= 0 {
		return header.String() + "\n" + body
	}
	rowsHeight := height - 1
	if rowsHeight <= 0 {
		return header.String()
	}
	viewWidth := width
	if viewWidth <= 0 {
		viewWidth = lipgloss.Width(lines[0])
	}
	view := viewport.New(viewWidth, rowsHeight)
	view.SetContent(body)
	offset := m.rowOffset
	if maxOffset := len(lines) - rowsHeight; offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	view.SetYOffset(offset)
	return header.String() + "\n" + view.View()
}

func renderMatrixLine(m Model, row matrix.Row, labelWidth int, widths []int) string {
	id := row.ID()
	selected := id == m.selectedID
	available := m.ctrl.IsAvailable(id)

	label := padRight(truncate(rowLabel(row), labelWidth), labelWidth)
	if selected {
		label = selectedRowStyle.Render(label)
	}

	var b strings.Builder
	b.WriteString(label)
	for i := range widths {
		var on bool
		if i == 0 {
			on = available
		} else {
			on = m.ctrl.IsSelected(id, m.requirements[i-1].ID)
		}
		cell := padRight(checkbox(on), widths[i])
		switch {
		case selected && i == m.column:
			cell = selectedCellStyle.Render(cell)
		case i > 0 && !available:
			cell = mutedStyle.Render(cell)
		}
		b.WriteString("  ")
		b.WriteString(cell)
	}
	return b.String()
}

func columnHeaders(reqs []location.Requirement) []string {
	headers := []string{"Avail"}
	for _, r := range reqs {
		name := r.Name
		if name == "" {
			name = r.ID
		}
		headers = append(headers, truncate(name, maxColumnWidth))
	}
	return headers
}

func rowLabel(row matrix.Row) string {
	indicator := " "
	if row.HasChildren() {
		indicator = "▶"
		if row.Expanded {
			indicator = "▼"
		}
	}
	return strings.Repeat("  ", row.Level()) + indicator + " " + row.Node.Name
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
