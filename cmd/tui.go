package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/desertthunder/yotoshare/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive card generator.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.requireSession(); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: card engine not initialized", shared.ErrServiceUnavailable)
	}

	opts, err := card.OptionsFromConfig(r.config.Card)
	if err != nil {
		return err
	}
	format, err := card.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Deps{
		Session:   r.session,
		Login:     func(ctx context.Context) error { return r.login(ctx, nil) },
		Service:   r.service,
		Engine:    r.engine,
		Options:   opts,
		Format:    format,
		OutputDir: r.config.Card.OutputDir,
	})
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
