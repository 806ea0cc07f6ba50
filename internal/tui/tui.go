package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, logger *slog.Logger, lister modelLister, newRun RunnerFactory, defaultX, defaultO string) error {
	m := InitialModel(ctx, logger, lister, newRun, defaultX, defaultO)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	m.stop()
	m.wait()

	return nil
}
