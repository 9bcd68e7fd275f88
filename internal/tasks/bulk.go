package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "export_manifest.json"
)

// BulkOpts contains configuration for bulk card generation.
type BulkOpts struct {
	Options    card.Options // Card options shared by every playlist
	Format     card.Format  // Export format
	OutputDir  string       // Base output directory (default: yotoshare_export_{epoch})
	NumWorkers int          // Concurrent renderers (default: 5, max: 10)
	RateLimit  float64      // Playlist fetches per second (default: 5)
}

// CardResult is the outcome for one playlist.
type CardResult struct {
	CardID  string `json:"card_id"`
	Title   string `json:"title"`
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Theme   string `json:"theme,omitempty"`
	Error   error  `json:"-"`
}

// BulkResult summarises a bulk run. Results keep the order of the requested IDs.
type BulkResult struct {
	TotalCards      int          `json:"total_cards"`
	Successful      int          `json:"successful"`
	Failed          int          `json:"failed"`
	Format          card.Format  `json:"format"`
	OutputDirectory string       `json:"output_directory"`
	ManifestPath    string       `json:"-"`
	Results         []CardResult `json:"-"`
}

// Bulk generates cards for many playlists. Individual failures are recorded in the result; only setup,
// cancellation and manifest errors are returned.
func (e *CardEngine) Bulk(ctx context.Context, progress chan<- ProgressUpdate, ids []string, opts BulkOpts) (*BulkResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("yotoshare_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxWorkers)
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkResult{
		TotalCards:      len(ids),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Results:         make([]CardResult, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	names := &nameSet{seen: map[string]bool{}}
	total := len(ids)
	var completed atomic.Int32

	finish := func(i int, res CardResult) {
		result.Results[i] = res
		step := int(completed.Add(1))
		if res.Success {
			e.sendProgress(progress, cardCompletedUpdate(step, total, res))
		} else {
			e.sendProgress(progress, cardFailedUpdate(step, total, res))
		}
	}

	var g errgroup.Group
	g.SetLimit(opts.NumWorkers)

	cancelled := false
	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			cancelled = true
			for j := i; j < len(ids); j++ {
				result.Results[j] = CardResult{CardID: ids[j], Title: unknownTitle(ids[j]), Error: ctx.Err()}
			}
			break
		}

		e.sendProgress(progress, fetchCardUpdate(i+1, total, id))
		playlist, err := e.service.Card(ctx, id)
		if err != nil {
			finish(i, CardResult{CardID: id, Title: unknownTitle(id), Error: fmt.Errorf("failed to fetch playlist: %w", err)})
			continue
		}

		g.Go(func() error {
			finish(i, e.renderOne(ctx, playlist, opts, names))
			return nil
		})
	}
	g.Wait()

	for _, res := range result.Results {
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	e.sendProgress(progress, manifestUpdate(manifestPath))
	if err := WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("generation completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

func (e *CardEngine) renderOne(ctx context.Context, playlist *models.Card, opts BulkOpts, names *nameSet) CardResult {
	res := CardResult{CardID: playlist.CardID, Title: playlist.Title}

	name := names.claim(card.FileName(playlist.Title, opts.Format), playlist.CardID)
	gen, err := e.render(ctx, playlist, GenerateOpts{Options: opts.Options, Format: opts.Format}, filepath.Join(opts.OutputDir, name))
	if gen != nil && gen.Export != nil {
		res.Path = gen.Export.Path
		res.Theme = gen.Card.Theme.Name
	}
	if err != nil {
		res.Error = err
		return res
	}

	res.Success = true
	return res
}

// nameSet hands out unique file names within one run; a repeated title gets the card ID appended.
type nameSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (n *nameSet) claim(name, cardID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.seen[name] {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "-" + shared.Slugify(cardID) + ext
	}
	n.seen[name] = true
	return name
}

func unknownTitle(id string) string {
	return fmt.Sprintf("Unknown (%s)", id)
}
