package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jbonatakis/reqmatrix/internal/location"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

const defaultPageSize = 20

// Options configures one editing session.
type Options struct {
	ServiceName  string
	Requirements []location.Requirement
	// PageSize is how many rows pgup/pgdown move.
	PageSize int
	// ExpandCountries opens every country on start so first-level
	// subregions are visible.
	ExpandCountries bool
}

type Model struct {
	ctx          context.Context
	ctrl         *matrix.Controller
	serviceName  string
	requirements []location.Requirement
	pageSize     int

	selectedID string
	// column 0 is availability; column i > 0 is requirements[i-1].
	column    int
	rowOffset int

	windowWidth  int
	windowHeight int

	status        string
	statusIsError bool
	quitArmed     bool
}

func NewModel(ctx context.Context, ctrl *matrix.Controller, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		serviceName:  opts.ServiceName,
		requirements: opts.Requirements,
		pageSize:     pageSize,
		selectedID:   location.RootID,
	}
	if opts.ExpandCountries && ctrl != nil && ctrl.Hierarchy() != nil {
		ctrl.Expansion().ExpandLevel(ctrl.Hierarchy(), location.LevelSubregion1)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = typed.Width
		m.windowHeight = typed.Height
		m.ensureSelectionVisible()
		return m, nil
	case tea.KeyMsg:
		key := typed.String()
		if key != "q" {
			m.quitArmed = false
		}
		switch key {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.ctrl != nil && m.ctrl.HasUnsavedChanges() && !m.quitArmed {
				m.quitArmed = true
				m.setStatus("unsaved changes: press q again to discard them and quit", true)
				return m, nil
			}
			return m, tea.Quit
		}
		if m.ctrl == nil || !m.ctrl.Loaded() {
			return m, nil
		}
		switch key {
		case "up", "k":
			m.moveSelection(-1)
		case "down", "j":
			m.moveSelection(1)
		case "pgup":
			m.moveSelection(-m.pageSize)
		case "pgdown":
			m.moveSelection(m.pageSize)
		case "home", "g":
			m.moveSelection(-len(m.ctrl.Rows()))
		case "end", "G":
			m.moveSelection(len(m.ctrl.Rows()))
		case "left", "h":
			if m.column > 0 {
				m.column--
			}
		case "right", "l":
			if m.column < len(m.requirements) {
				m.column++
			}
		case "enter", "o":
			if node, ok := m.selectedNode(); ok && node.HasChildren() {
				m.ctrl.ToggleExpansion(node.ID)
				m.ensureSelectionVisible()
			}
		case " ", "x":
			m.toggleCell()
		case "E":
			m.ctrl.Expansion().ExpandAll(m.ctrl.Hierarchy())
			m.ensureSelectionVisible()
		case "C":
			m.ctrl.Expansion().CollapseAll()
			m.ensureSelectionVisible()
		case "s":
			m.save()
		case "esc", "u":
			m.cancel()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusIsError = isError
}

func (m *Model) toggleCell() {
	id := m.selectedID
	var (
		written []string
		err     error
	)
	if m.column == 0 {
		written, err = m.ctrl.HandleAvailabilityChange(id, !m.ctrl.IsAvailable(id))
	} else {
		reqID := m.requirements[m.column-1].ID
		written, err = m.ctrl.HandleRequirementChange(id, reqID, !m.ctrl.IsSelected(id, reqID))
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("%d cells updated", len(written)), false)
}

func (m *Model) save() {
	changes := m.ctrl.Changes()
	if changes.Empty() && !m.ctrl.HasUnsavedChanges() {
		m.setStatus("nothing to save", false)
		return
	}
	if _, err := m.ctrl.Save(m.ctx); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("saved %d changes", changes.Count()), false)
}

func (m *Model) cancel() {
	if !m.ctrl.HasUnsavedChanges() {
		m.setStatus("", false)
		return
	}
	if err := m.ctrl.Cancel(); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("changes discarded", false)
}

func (m Model) visibleRowIDs() []string {
	if m.ctrl == nil {
		return nil
	}
	rows := m.ctrl.Rows()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID())
	}
	return ids
}

func (m Model) selectedIndex() int {
	for i, id := range m.visibleRowIDs() {
		if id == m.selectedID {
			return i
		}
	}
	return -1
}

func (m Model) selectedNode() (*location.Node, bool) {
	if m.ctrl == nil || m.ctrl.Hierarchy() == nil {
		return nil, false
	}
	return m.ctrl.Hierarchy().Node(m.selectedID)
}

func (m *Model) moveSelection(delta int) {
	visible := m.visibleRowIDs()
	if len(visible) == 0 {
		m.selectedID = ""
		return
	}
	idx := m.selectedIndex()
	if idx < 0 {
		idx = 0
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(visible) {
		idx = len(visible) - 1
	}
	m.selectedID = visible[idx]
	m.ensureSelectionVisible()
}

// ensureSelectionVisible moves a hidden selection to its nearest visible
// ancestor and scrolls the rows so the selection is on screen.
func (m *Model) ensureSelectionVisible() {
	visible := m.visibleRowIDs()
	if len(visible) == 0 {
		m.selectedID = ""
		m.rowOffset = 0
		return
	}
	if m.selectedIndex() < 0 {
		hidden := m.selectedID
		m.selectedID = visible[0]
		shown := map[string]bool{}
		for _, id := range visible {
			shown[id] = true
		}
		for _, id := range m.ctrl.Hierarchy().Ancestors(hidden) {
			if shown[id] {
				m.selectedID = id
				break
			}
		}
	}

	height := m.rowsHeight()
	if height <= 0 {
		m.rowOffset = 0
		return
	}
	idx := m.selectedIndex()
	if idx < m.rowOffset {
		m.rowOffset = idx
	}
	if idx >= m.rowOffset+height {
		m.rowOffset = idx - height + 1
	}
	if maxOffset := len(visible) - height; m.rowOffset > maxOffset {
		m.rowOffset = max(maxOffset, 0)
	}
}

// paneHeight is the pane's content height. Each pane gets Height(h) and
// lipgloss adds a top and bottom border; the bar takes a newline plus one
// line. windowHeight-5 keeps the total strictly below the window height.
func (m Model) paneHeight() int {
	h := m.windowHeight - 5
	if h < 0 {
		return 0
	}
	return h
}

// rowsHeight is the pane height minus the column header line.
func (m Model) rowsHeight() int {
	h := m.paneHeight() - 1
	if h < 0 {
		return 0
	}
	return h
}

func (m Model) View() string {
	if m.ctrl == nil || !m.ctrl.Loaded() {
		return "no matrix loaded\n"
	}
	if m.windowWidth <= 0 || m.windowHeight <= 0 {
		return RenderMatrixView(m, 0, 0) + "\n" + RenderBottomBar(m)
	}
	availableHeight := m.paneHeight()
	if availableHeight == 0 {
		return RenderBottomBar(m)
	}

	// Border plus horizontal padding take four columns.
	width := m.windowWidth - 2
	if width < 0 {
		width = 0
	}
	title := m.serviceName
	if title == "" {
		title = m.ctrl.ServiceID()
	}
	body := RenderMatrixView(m, max(width-2, 0), availableHeight)
	content := renderPane(body, width, availableHeight, title, true)
	if m.windowHeight > 1 {
		return content + "\n" + RenderBottomBar(m)
	}
	return content
}

func renderPane(content string, width int, height int, title string, active bool) string {
	borderColor := lipgloss.Color("240")
	titleColor := lipgloss.Color("240")
	if active {
		borderColor = lipgloss.Color("69")
		titleColor = lipgloss.Color("69")
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(width).
		Height(height).
		Padding(0, 1)

	rendered := style.Render(content)
	if title == "" {
		return rendered
	}

	// Rebuild the top border with the title inlined. Its width has to match
	// the second line exactly since the first line carries escape codes.
	lines := strings.Split(rendered, "\n")
	if len(lines) < 2 {
		return rendered
	}
	targetWidth := lipgloss.Width(lines[1])
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor)
	label := " " + truncate(title, max(targetWidth-7, 0)) + " "

	fill := targetWidth - 3 - lipgloss.Width(label)
	if fill < 0 {
		fill = 0
	}
	lines[0] = borderStyle.Render("╭ ") +
		titleStyle.Render(label) +
		borderStyle.Render(strings.Repeat("─", fill)+"╮")
	return strings.Join(lines, "\n")
}
