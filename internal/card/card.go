package card

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

const (
	// MaxTracks is the number of tracks listed on a card; the rest are summarised.
	MaxTracks = 8

	DefaultWidth      = 940
	DefaultHeight     = 788
	DefaultPixelRatio = 2
	DefaultSignature  = "Partagé avec YotoShare"
)

// Options controls how a card is built.
type Options struct {
	Theme      Theme
	Signature  string
	Width      int
	Height     int
	PixelRatio int
}

// OptionsFromConfig converts the [card] config section. Unknown theme names are an error; Auto is resolved later by [ResolveTheme].
func OptionsFromConfig(cfg shared.CardConfig) (Options, error) {
	opts := Options{
		Signature:  cfg.Signature,
		Width:      cfg.Width,
		Height:     cfg.Height,
		PixelRatio: cfg.PixelRatio,
	}

	if strings.EqualFold(cfg.Theme, AutoThemeName) {
		opts.Theme = Theme{Name: AutoThemeName}
		return opts, nil
	}

	theme, err := ThemeByName(cfg.Theme)
	if err != nil {
		return Options{}, err
	}
	opts.Theme = theme
	return opts, nil
}

func (o Options) withDefaults() Options {
	if o.Theme.Color == "" {
		o.Theme = DefaultTheme()
	}
	if o.Signature == "" {
		o.Signature = DefaultSignature
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = DefaultPixelRatio
	}
	return o
}

// TrackLine is one row of the track list.
type TrackLine struct {
	Number   int    `json:"number"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Seconds  int    `json:"seconds"`
	Icon     string `json:"icon,omitempty"`
}

// Card is the rendered view of a playlist.
type Card struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Author        string      `json:"author,omitempty"`
	Description   string      `json:"description,omitempty"`
	Category      string      `json:"category,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
	CoverURL      string      `json:"coverUrl,omitempty"`
	Tracks        []TrackLine `json:"tracks"`
	TrackCount    int         `json:"trackCount"`
	Remaining     int         `json:"remaining"`
	TotalSeconds  int         `json:"totalSeconds"`
	TotalDuration string      `json:"totalDuration"`
	FileSize      string      `json:"fileSize,omitempty"`
	Theme         Theme       `json:"theme"`
	Signature     string      `json:"signature"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	PixelRatio    int         `json:"pixelRatio"`
}

// Build assembles the card for a playlist. At most [MaxTracks] tracks are listed.
func Build(c *models.Card, opts Options) *Card {
	opts = opts.withDefaults()
	tracks := models.ExtractTracks(c)
	total := models.TotalDuration(c)

	out := &Card{
		ID:            c.CardID,
		Title:         c.Title,
		Author:        c.Metadata.Author,
		Description:   c.Metadata.Description,
		Category:      c.Metadata.Category,
		Tags:          c.Metadata.Tags,
		CoverURL:      models.CoverURL(c),
		TrackCount:    len(tracks),
		TotalSeconds:  total,
		TotalDuration: shared.FormatDuration(total),
		Theme:         opts.Theme,
		Signature:     opts.Signature,
		Width:         opts.Width,
		Height:        opts.Height,
		PixelRatio:    opts.PixelRatio,
	}

	if c.Metadata.Media.FileSize > 0 {
		out.FileSize = shared.FormatFileSize(c.Metadata.Media.FileSize)
	}

	for i, t := range tracks {
		if i == MaxTracks {
			out.Remaining = len(tracks) - MaxTracks
			break
		}
		out.Tracks = append(out.Tracks, TrackLine{
			Number:   i + 1,
			Title:    t.Title,
			Duration: shared.FormatTrackDuration(t.Duration),
			Seconds:  t.Duration,
			Icon:     t.Icon,
		})
	}
	return out
}

// RemainingLabel is the line shown under a truncated track list, or "" when every track is listed.
func (c *Card) RemainingLabel() string {
	if c.Remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("+ %d autres pistes...", c.Remaining)
}

// ResolveTheme replaces the Auto placeholder with a theme extracted from the cover. When extraction
// fails the default preset is returned together with the error so callers can warn and carry on.
func ResolveTheme(ctx context.Context, opts Options, c *models.Card, palette PaletteExtractor) (Options, error) {
	if opts.Theme.Name != AutoThemeName || opts.Theme.Color != "" {
		return opts, nil
	}

	opts.Theme = DefaultTheme()
	if palette == nil {
		return opts, fmt.Errorf("auto theme: no palette extractor")
	}

	coverURL := models.CoverURL(c)
	if coverURL == "" {
		return opts, fmt.Errorf("auto theme: playlist has no cover")
	}

	accent, err := palette.Accent(ctx, coverURL)
	if err != nil {
		return opts, fmt.Errorf("auto theme: %w", err)
	}

	opts.Theme = ThemeFromAccent(accent)
	return opts, nil
}
