package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
	"github.com/desertthunder/plzip/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI over one session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.ConfigureLogger(fileLogger, r.config.Log)
	r.SetLogger(fileLogger)

	history, closeHistory := r.history()
	defer closeHistory()

	dir := r.config.Download.OutputDir
	session := r.session(tasks.NewFileSaver(dir), history)
	model := ui.NewModel(ctx, session, dir, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
