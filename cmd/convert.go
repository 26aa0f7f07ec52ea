package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Convert reads a spreadsheet of track links and writes it back with a video link column.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("input")
	if input == "" {
		return fmt.Errorf("%w: input spreadsheet path", shared.ErrMissingArgument)
	}

	opts := tasks.ConvertOpts{
		Input:  input,
		Output: firstNonEmpty(cmd.String("output"), r.config.Convert.Output),
		Sheet:  cmd.String("sheet"),
		Column: firstNonEmpty(cmd.String("column"), r.config.Convert.Column),
	}

	if cmd.Bool("tui") {
		return r.convertTUI(ctx, opts, !cmd.Bool("no-cache"))
	}

	engine, err := r.convertEngine(!cmd.Bool("no-cache"))
	if err != nil {
		return err
	}

	r.logger.Info("starting conversion", "input", opts.Input, "output", opts.Output)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ReadSheet:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ConvertRows:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.WriteSheet:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := engine.ConvertFile(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	r.writeSummary(result)
	return err
}

func (r *Runner) writeSummary(result *tasks.ConvertResult) {
	r.writePlain("\n")
	r.writePlainHeader("Conversion Complete!")
	r.writePlain("Input: %s\n", result.Input)
	r.writePlain("Output: %s\n", result.Output)
	r.writePlain("Matched: %d/%d (%.1f%%)\n", result.SuccessCount, result.Total, result.MatchPercentage)
	if result.CachedCount > 0 {
		r.writePlain("From cache: %d\n", result.CachedCount)
	}

	if result.FailedCount == 0 {
		return
	}

	r.writePlain("\nFailed to convert %d rows:\n", result.FailedCount)
	for _, row := range result.Rows {
		if row.Err != nil {
			r.writePlain("  - row %d [%s] %s\n", row.Row+2, shared.FailureKind(row.Err), row.Link)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
