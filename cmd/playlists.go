package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/urfave/cli/v3"
)

type playlistSummary struct {
	CardID   string `json:"card_id"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Tracks   int    `json:"tracks"`
	Duration string `json:"duration"`
}

func summarise(c *models.Card) playlistSummary {
	return playlistSummary{
		CardID:   c.CardID,
		Title:    c.Title,
		Author:   c.Metadata.Author,
		Tracks:   len(models.ExtractTracks(c)),
		Duration: shared.FormatDuration(models.TotalDuration(c)),
	}
}

// PlaylistsList lists the playlists of the signed-in account.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	r.logger.Debug("listing playlists", "limit", limit)

	playlists, err := r.service.Cards(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}
	if limit > 0 && len(playlists) > limit {
		playlists = playlists[:limit]
	}

	summaries := make([]playlistSummary, 0, len(playlists))
	for i := range playlists {
		summaries = append(summaries, summarise(&playlists[i]))
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No playlists found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(summaries)))
	for _, s := range summaries {
		r.writePlain("%-24s %s (%d pistes, %s)\n", s.CardID, s.Title, s.Tracks, s.Duration)
	}
	return nil
}

// PlaylistsShow prints one playlist with the track list as it appears on a card.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	id := cmd.String("id")
	if id == "" {
		return fmt.Errorf("%w: --id is required", shared.ErrMissingArgument)
	}

	playlist, err := r.service.Card(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}

	text, err := card.ExportToText(card.Build(playlist, card.Options{}))
	if err != nil {
		return err
	}
	_, err = r.output.Write(text)
	return err
}
