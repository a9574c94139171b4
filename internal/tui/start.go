package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

// Start runs the editor on a loaded controller until the user quits or ctx
// is cancelled. Unsaved edits are left in the controller.
func Start(ctx context.Context, ctrl *matrix.Controller, opts Options) error {
	if ctrl == nil || !ctrl.Loaded() {
		return matrix.ErrNotLoaded
	}
	model := NewModel(ctx, ctrl, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
