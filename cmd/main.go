package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/ytlinks/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	// Interrupts cancel the run so convert can still write the rows it finished.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newApp(runner).Run(ctx, os.Args)
	stop()

	if err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			logger.Error("credentials missing: set them in config.toml or .env (see 'ytlinks setup config')")
		}
		logger.Fatalf("application error: %v", err)
	}
}
