package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/services"
	"github.com/desertthunder/yotoshare/internal/shared"
)

// GenerateOpts configures a single card export.
type GenerateOpts struct {
	Options   card.Options
	Format    card.Format
	OutputDir string
	// Path overrides OutputDir and the default file name when set.
	Path string
}

// GenerateResult is a written card.
type GenerateResult struct {
	Card   *card.Card
	Export *card.ExportResult
	// ThemeErr is set when the Auto theme could not be extracted and the default preset was used.
	ThemeErr error
}

// CardEngine generates playlist cards from a [services.Service].
type CardEngine struct {
	service  services.Service
	exporter *card.Exporter
	palette  card.PaletteExtractor
	logger   *log.Logger
}

// NewCardEngine creates an engine. palette may be nil, in which case the Auto theme always falls back to the default.
func NewCardEngine(service services.Service, exporter *card.Exporter, palette card.PaletteExtractor, logger *log.Logger) *CardEngine {
	return &CardEngine{
		service:  service,
		exporter: exporter,
		palette:  palette,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CardEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Generate fetches one playlist and writes its card.
func (e *CardEngine) Generate(ctx context.Context, progress chan<- ProgressUpdate, cardID string, opts GenerateOpts) (*GenerateResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if cardID == "" {
		return nil, fmt.Errorf("%w: card id", shared.ErrMissingArgument)
	}

	e.sendProgress(progress, fetchCardUpdate(1, 1, cardID))
	playlist, err := e.service.Card(ctx, cardID)
	if err != nil {
		return nil, err
	}

	res, err := e.render(ctx, playlist, opts, opts.Path)
	if res != nil && res.ThemeErr != nil {
		e.sendProgress(progress, themeFallbackUpdate(1, 1, playlist.Title, res.ThemeErr))
	}
	return res, err
}

// Preview builds the card for a playlist without writing anything. The card is always built; the error
// reports an Auto theme that fell back to the default.
func (e *CardEngine) Preview(ctx context.Context, playlist *models.Card, opts card.Options) (*card.Card, error) {
	resolved, err := card.ResolveTheme(ctx, opts, playlist, e.palette)
	return card.Build(playlist, resolved), err
}

func (e *CardEngine) render(ctx context.Context, playlist *models.Card, opts GenerateOpts, path string) (*GenerateResult, error) {
	resolved, themeErr := card.ResolveTheme(ctx, opts.Options, playlist, e.palette)
	if themeErr != nil && e.logger != nil {
		e.logger.Warn("auto theme unavailable", "card", playlist.CardID, "error", themeErr)
	}

	c := card.Build(playlist, resolved)
	res := &GenerateResult{Card: c, ThemeErr: themeErr}

	var (
		export *card.ExportResult
		err    error
	)
	if path != "" {
		export, err = e.exporter.WriteExportFile(ctx, c, opts.Format, path)
	} else {
		export, err = e.exporter.WriteExport(ctx, c, opts.Format, opts.OutputDir)
	}
	res.Export = export
	if err != nil {
		return res, err
	}

	if e.logger != nil {
		e.logger.Info("card written", "card", c.ID, "path", export.Path, "theme", c.Theme.Name)
	}
	return res, nil
}

// AllCardIDs lists the IDs of every playlist the user owns.
func (e *CardEngine) AllCardIDs(ctx context.Context, progress chan<- ProgressUpdate) ([]string, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchCardsUpdate())
	cards, err := e.service.Cards(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.CardID)
	}
	return ids, nil
}
