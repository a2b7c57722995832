package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/sptx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	err := app.Run(context.Background(), os.Args)
	runner.Close()
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("not signed in, run: sptx auth login")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
