package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "yotoshare",
		Usage:   "Turn Yoto playlists into shareable cards",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
				Sources: cli.EnvVars("YOTOSHARE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   runner.Before,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()

	if closeErr := runner.Close(); closeErr != nil {
		logger.Warn("failed to close database", "error", closeErr)
	}

	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotImplemented):
		logger.Warn("not implemented")
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted")
		os.Exit(130)
	case userError(err):
		logger.Error(err)
		os.Exit(1)
	default:
		logger.Fatalf("application error: %v", err)
	}
}
