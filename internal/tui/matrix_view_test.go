package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderMatrixViewShowsHeadersAndRows(t *testing.T) {
	model := newTestModel(t, &fakePersister{})
	out := RenderMatrixView(model, 0, 0)

	for _, want := range []string{"Location", "Avail", "SSN", "Consent", "▼ ALL", "▶ United States", "Canada"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
	if strings.Contains(out, "California") {
		t.Fatalf("expected collapsed usa to hide California:\n%s", out)
	}
}

func TestRenderMatrixViewShowsCellValues(t *testing.T) {
	model := newTestModel(t, &fakePersister{})
	model = press(t, model, runes("j"), runes("l"), runes("x"))

	out := RenderMatrixView(model, 0, 0)
	var canLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Canada") {
			canLine = line
		}
	}
	if canLine == "" {
		t.Fatalf("expected a Canada row:\n%s", out)
	}
	if strings.Count(canLine, "[x]") != 1 {
		t.Fatalf("expected one checked cell in %q", canLine)
	}
}

func TestRenderMatrixViewScrollsWithOffset(t *testing.T) {
	model := newTestModel(t, &fakePersister{})
	model = press(t, model, runes("E"))
	model.rowOffset = 3

	out := RenderMatrixView(model, 60, 3)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "California") || !strings.Contains(lines[2], "Texas") {
		t.Fatalf("expected California and Texas in view:\n%s", out)
	}
}

func TestViewFitsWindow(t *testing.T) {
	model := newTestModel(t, &fakePersister{})
	model = press(t, model, runes("E"))
	model.windowWidth = 80
	model.windowHeight = 12

	out := model.View()
	lines := strings.Split(out, "\n")
	if len(lines) >= 12 {
		t.Fatalf("expected fewer than 12 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w > 80 {
			t.Fatalf("line %d is %d wide", i, w)
		}
	}
	if !strings.Contains(lines[0], "Criminal Search") {
		t.Fatalf("expected service name in pane title: %q", lines[0])
	}
}

func TestViewWithoutController(t *testing.T) {
	if got := (Model{}).View(); !strings.Contains(got, "no matrix loaded") {
		t.Fatalf("unexpected view %q", got)
	}
}
