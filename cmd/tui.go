package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/tasks"
	"github.com/desertthunder/ytlinks/internal/ui"
)

// convertTUI runs a conversion behind the interactive progress view.
func (r *Runner) convertTUI(ctx context.Context, opts tasks.ConvertOpts, useCache bool) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/ytlinks-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	engine, err := r.convertEngine(useCache)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if result := model.Result(); result != nil {
		r.writeSummary(result)
	}
	return model.Err()
}
