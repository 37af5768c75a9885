package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plconv/internal/models"
	"github.com/desertthunder/plconv/internal/shared"
	"github.com/desertthunder/plconv/internal/ui"
)

const tuiLogPath = "./tmp/plconv-tui.log"

// runTUI drives job through the interactive terminal UI and returns its report.
//
// A nil report with a nil error means the user quit before syncing.
func (r *Runner) runTUI(ctx context.Context, job ui.Job) (*models.SyncReport, error) {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	prev := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(prev)

	model := ui.NewModel(ctx, job)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	report, err := model.Report()
	if report == nil && err == nil {
		prev.Info("nothing synchronized")
	}
	return report, err
}
