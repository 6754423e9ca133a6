package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/desertthunder/setlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive list builder.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	progress := make(chan tasks.ProgressUpdate, 32)
	ws, err := r.openWorkspace(ctx, progress)
	if err != nil {
		return err
	}
	defer ws.Close()

	model := ui.NewModel(ctx, ui.ModelOpts{
		Session:  ws.session,
		Catalog:  r.catalogSource(),
		Extra:    r.customSongs(ws),
		Progress: progress,
		Copy:     r.copyText,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := ws.persist(ctx); err != nil {
		r.logger.Warn("failed to persist list on exit", "error", err)
	}
	return nil
}
