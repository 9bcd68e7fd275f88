package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/desertthunder/yotoshare/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CardGenerate writes the card of one playlist.
func (r *Runner) CardGenerate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	opts, err := r.cardOptions(cmd)
	if err != nil {
		return err
	}
	format, err := card.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.logProgress(progress, done)

	res, err := r.engine.Generate(ctx, progress, cmd.String("id"), tasks.GenerateOpts{
		Options:   opts,
		Format:    format,
		OutputDir: r.config.Card.OutputDir,
		Path:      cmd.String("output"),
	})
	close(progress)
	<-done

	if res != nil && res.ThemeErr != nil {
		r.writePlain("! Could not match the cover, used %s\n", res.Card.Theme.Name)
	}
	if res != nil && res.Export != nil {
		r.writePlain("✓ %s card written to %s (%s)\n", res.Export.Format, res.Export.Path,
			shared.FormatFileSize(int64(res.Export.Bytes)))
	}
	return err
}

// CardPreview prints a text rendering of a card without writing a file.
func (r *Runner) CardPreview(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	opts, err := r.cardOptions(cmd)
	if err != nil {
		return err
	}

	playlist, err := r.service.Card(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	c, themeErr := r.engine.Preview(ctx, playlist, opts)
	if themeErr != nil {
		r.logger.Warn("auto theme unavailable", "error", themeErr)
	}

	text, err := card.ExportToText(c)
	if err != nil {
		return err
	}
	r.writePlain("Thème : %s (%s)\n\n", c.Theme.Name, c.Theme.Color)
	_, err = r.output.Write(text)
	return err
}

// CardBulk generates cards for the given playlists, or all of them with --all.
func (r *Runner) CardBulk(ctx context.Context, cmd *cli.Command) error {
	ids := splitIDs(cmd.StringSlice("ids"))
	all := cmd.Bool("all")

	switch {
	case all && len(ids) > 0:
		return fmt.Errorf("%w: cannot specify both --ids and --all", shared.ErrInvalidArgument)
	case !all && len(ids) == 0:
		return fmt.Errorf("%w: either --ids or --all must be provided", shared.ErrMissingArgument)
	}

	if err := r.requireService(); err != nil {
		return err
	}

	opts, err := r.cardOptions(cmd)
	if err != nil {
		return err
	}
	format, err := card.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go r.logProgress(progress, done)

	if all {
		if ids, err = r.engine.AllCardIDs(ctx, progress); err != nil {
			close(progress)
			<-done
			return err
		}
	}

	result, err := r.engine.Bulk(ctx, progress, ids, tasks.BulkOpts{
		Options:    opts,
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done

	if result == nil {
		return err
	}

	r.writePlainHeader("Bulk Export")
	r.writePlain("Total:      %d\n", result.TotalCards)
	r.writePlain("Successful: %d\n", result.Successful)
	r.writePlain("Failed:     %d\n", result.Failed)
	r.writePlain("Output:     %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest:   %s\n", result.ManifestPath)
	}
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("✗ %s: %v\n", res.Title, res.Error)
		}
	}
	return err
}

func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

type themeRow struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Gradient string `json:"gradient"`
}

// CardThemes lists the preset themes.
func (r *Runner) CardThemes(ctx context.Context, cmd *cli.Command) error {
	rows := []themeRow{}
	for _, t := range card.Presets() {
		rows = append(rows, themeRow{Name: t.Name, Color: t.Color, Gradient: t.CSSGradient()})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Themes")
	for _, row := range rows {
		r.writePlain("%-14s %s\n", row.Name, row.Color)
	}
	return r.writePlain("%-14s %s\n", card.AutoThemeName, "couleur de la pochette")
}

type historyRow struct {
	Sequence  int    `json:"sequence"`
	CardID    string `json:"card_id"`
	Title     string `json:"title"`
	Theme     string `json:"theme"`
	Format    string `json:"format"`
	Path      string `json:"path"`
	CreatedAt string `json:"created_at"`
}

// CardHistory lists recorded exports, newest first.
func (r *Runner) CardHistory(ctx context.Context, cmd *cli.Command) error {
	if r.exports == nil {
		if err := r.wire(); err != nil {
			return err
		}
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if id := cmd.String("id"); id != "" {
		criteria["card_id"] = id
	}
	if f := cmd.String("format"); f != "" {
		format, err := card.ParseFormat(f)
		if err != nil {
			return err
		}
		criteria["format"] = string(format)
	}

	records, err := r.exports.List(ctx, criteria)
	if err != nil {
		return err
	}

	rows := make([]historyRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, historyRow{
			Sequence:  rec.Sequence(),
			CardID:    rec.CardID(),
			Title:     rec.Title(),
			Theme:     rec.Theme(),
			Format:    rec.Format(),
			Path:      rec.Path(),
			CreatedAt: rec.CreatedAt().Format("2006-01-02 15:04"),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(rows) == 0 {
		return r.writePlain("No exports recorded\n")
	}
	for _, row := range rows {
		r.writePlain("#%-4d %s  %-4s %s -> %s\n", row.Sequence, row.CreatedAt, row.Format, row.Title, row.Path)
	}
	return nil
}
