package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var errorStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

func RenderBottomBar(model Model) string {
	left := strings.Join(actionHints(model), " ")
	if model.status != "" {
		status := model.status
		if model.statusIsError {
			status = "! " + status
		}
		left = fmt.Sprintf("%s | %s", left, status)
	}

	// One column of padding on each side; zero width lays out unbounded.
	width := 0
	if model.windowWidth > 0 {
		width = max(model.windowWidth-2, 0)
	}
	bar := layoutBar(left, pendingLabel(model), width)

	style := lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	if model.statusIsError {
		style = style.Inherit(errorStatusStyle)
	}
	return style.Render(bar)
}

func actionHints(model Model) []string {
	if model.quitArmed {
		return []string{"[q]uit without saving", "[s]ave"}
	}
	dirty := model.ctrl != nil && model.ctrl.HasUnsavedChanges()
	node, ok := model.selectedNode()

	hints := []string{"[space]toggle"}
	if ok && node.HasChildren() {
		hints = append(hints, "[enter]expand")
	}
	hints = append(hints, "[E]xpand-all", "[C]ollapse-all")
	if dirty {
		hints = append(hints, "[s]ave", "[u]ndo")
	}
	return append(hints, "[q]uit")
}

// pendingLabel names the service and counts unsaved cell changes; a trailing
// * marks an edited change-set even when the edits cancel out.
func pendingLabel(model Model) string {
	name := model.serviceName
	if model.ctrl == nil {
		return name
	}
	if name == "" {
		name = model.ctrl.ServiceID()
	}
	label := fmt.Sprintf("%s pending:%d", name, model.ctrl.Changes().Count())
	if model.ctrl.HasUnsavedChanges() {
		label += " *"
	}
	return label
}

// layoutBar right-aligns right within width, cutting left short when both
// do not fit. right alone is cut only when it is wider than width.
func layoutBar(left string, right string, width int) string {
	if width <= 0 {
		return left + " " + right
	}
	rightWidth := lipgloss.Width(right)
	if rightWidth >= width {
		return truncate(right, width)
	}
	left = truncate(left, width-rightWidth-1)
	gap := width - lipgloss.Width(left) - rightWidth
	return left + strings.Repeat(" ", gap) + right
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runes := []rune(s); len(runes) > width {
		return string(runes[:width])
	}
	return s
}
