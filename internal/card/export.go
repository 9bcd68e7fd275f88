package card

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

// Format is an export file type.
type Format string

const (
	FormatPNG      Format = "png"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// Formats lists every supported format, PNG first.
func Formats() []Format {
	return []Format{FormatPNG, FormatHTML, FormatMarkdown, FormatText, FormatJSON}
}

// ParseFormat accepts a format or a common alias ("markdown", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "html", "htm":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnknownFormat, s)
	}
}

// FileName is the export file name for a playlist title, yotoshare-<slug>.<ext>.
func FileName(title string, f Format) string {
	return fmt.Sprintf("yotoshare-%s.%s", shared.Slugify(title), f)
}

// ExportRecorder stores a record of each written export.
type ExportRecorder interface {
	Create(ctx context.Context, record *models.ExportRecord) error
}

// ExportResult describes a written export.
type ExportResult struct {
	Path   string
	Format Format
	Bytes  int
	Record *models.ExportRecord
}

// Exporter renders cards and writes them to disk.
type Exporter struct {
	rasterizer Rasterizer
	recorder   ExportRecorder
}

// NewExporter creates an exporter. recorder may be nil to skip export history.
func NewExporter(rasterizer Rasterizer, recorder ExportRecorder) *Exporter {
	if rasterizer == nil {
		rasterizer = NewBitmapRasterizer()
	}
	return &Exporter{rasterizer: rasterizer, recorder: recorder}
}

// Render encodes the card in the given format.
func (e *Exporter) Render(c *Card, f Format) ([]byte, error) {
	switch f {
	case FormatPNG:
		return ExportToPNG(c, e.rasterizer)
	case FormatHTML:
		return ExportToHTML(c)
	case FormatMarkdown:
		return ExportToMarkdown(c)
	case FormatText:
		return ExportToText(c)
	case FormatJSON:
		return ExportToJSON(c)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownFormat, f)
	}
}

// WriteExport renders the card into dir (created if needed) as yotoshare-<slug>.<ext> and records it.
func (e *Exporter) WriteExport(ctx context.Context, c *Card, f Format, dir string) (*ExportResult, error) {
	if dir == "" {
		dir = "."
	}
	return e.WriteExportFile(ctx, c, f, filepath.Join(dir, FileName(c.Title, f)))
}

// WriteExportFile renders the card to path and records it.
//
// The file is kept when recording fails; the error says so.
func (e *Exporter) WriteExportFile(ctx context.Context, c *Card, f Format, path string) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := e.Render(c, f)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", f, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s file: %w", f, err)
	}

	result := &ExportResult{Path: path, Format: f, Bytes: len(data)}
	if e.recorder == nil {
		return result, nil
	}

	record := models.NewExportRecord(c.ID, c.Title, c.Theme.Name, string(f), path)
	if err := e.recorder.Create(ctx, record); err != nil {
		return result, fmt.Errorf("export written to %s but not recorded: %w", path, err)
	}
	result.Record = record
	return result, nil
}

// ExportToPNG rasterizes the card and encodes it as PNG.
func ExportToPNG(c *Card, r Rasterizer) ([]byte, error) {
	img, err := r.Rasterize(c)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

var htmlTemplate = template.Must(template.New("card").Funcs(template.FuncMap{
	"css": func(s string) template.CSS { return template.CSS(s) },
}).Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: #1a1a2e; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
.card { width: {{.Width}}px; min-height: {{.Height}}px; margin: 0 auto; background: #16213e; color: #e2e8f0; border-radius: 24px; overflow: hidden; }
.header { display: flex; gap: 24px; padding: 32px; background: {{css .Theme.CSSGradient}}; color: {{css .Theme.TextColor}}; }
.header img { width: 160px; height: 160px; border-radius: 16px; object-fit: cover; }
.header h1 { margin: 0 0 8px 0; }
.tags span { display: inline-block; margin: 4px 4px 0 0; padding: 2px 10px; border-radius: 999px; background: rgba(255,255,255,0.25); }
ol { list-style: none; margin: 0; padding: 16px 32px; }
li { display: flex; align-items: center; gap: 16px; padding: 10px 0; border-bottom: 1px solid rgba(255,255,255,0.08); }
li .num { width: 28px; height: 28px; border-radius: 8px; background: {{css .Theme.Color}}; color: {{css .Theme.TextColor}}; text-align: center; line-height: 28px; }
li .icon { width: 16px; height: 16px; image-rendering: pixelated; }
li .title { flex: 1; }
li .dur, .more { color: #94a3b8; }
.more { padding: 0 32px 16px 76px; }
.signature { padding: 16px 32px; text-align: right; color: {{css (index .Theme.Gradient 1)}}; }
</style>
</head>
<body>
<div class="card">
  <div class="header">
    {{if .CoverURL}}<img src="{{.CoverURL}}" alt="">{{end}}
    <div>
      <h1>{{.Title}}</h1>
      {{if .Author}}<div>{{.Author}}</div>{{end}}
      <div>{{.TrackCount}} pistes · {{.TotalDuration}}{{if .FileSize}} · {{.FileSize}}{{end}}</div>
      {{if .Description}}<p>{{.Description}}</p>{{end}}
      {{if .Tags}}<div class="tags">{{range .Tags}}<span>{{.}}</span>{{end}}</div>{{end}}
    </div>
  </div>
  <ol>
  {{range .Tracks}}<li><span class="num">{{.Number}}</span>{{if .Icon}}<img class="icon" src="{{.Icon}}" alt="">{{end}}<span class="title">{{.Title}}</span><span class="dur">{{.Duration}}</span></li>
  {{end}}</ol>
  {{with .RemainingLabel}}<div class="more">{{.}}</div>{{end}}
  <div class="signature">{{.Signature}}</div>
</div>
</body>
</html>
`))

// ExportToHTML renders a standalone HTML page for the card.
func ExportToHTML(c *Card) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, c); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts a card to Markdown with the cover image when available.
func ExportToMarkdown(c *Card) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", c.Title))

	if c.CoverURL != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", c.CoverURL))
	}
	if c.Author != "" {
		buf.WriteString(fmt.Sprintf("**Auteur**: %s\n\n", c.Author))
	}
	if c.Description != "" {
		buf.WriteString(fmt.Sprintf("%s\n\n", c.Description))
	}

	buf.WriteString(fmt.Sprintf("**Pistes**: %d\n", c.TrackCount))
	buf.WriteString(fmt.Sprintf("**Durée**: %s\n", c.TotalDuration))
	if len(c.Tags) > 0 {
		buf.WriteString(fmt.Sprintf("**Tags**: %s\n", strings.Join(c.Tags, ", ")))
	}

	buf.WriteString("\n## Pistes\n\n")
	for _, t := range c.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", t.Number, t.Title, t.Duration))
	}
	if label := c.RemainingLabel(); label != "" {
		buf.WriteString(fmt.Sprintf("\n_%s_\n", label))
	}

	buf.WriteString(fmt.Sprintf("\n---\n%s\n", c.Signature))
	return buf.Bytes(), nil
}

// ExportToText converts a card to plain text.
func ExportToText(c *Card) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", c.Title))
	if c.Author != "" {
		buf.WriteString(fmt.Sprintf("par %s\n", c.Author))
	}
	buf.WriteString(fmt.Sprintf("%d pistes - %s\n\n", c.TrackCount, c.TotalDuration))

	for _, t := range c.Tracks {
		buf.WriteString(fmt.Sprintf("%2d. %s (%s)\n", t.Number, t.Title, t.Duration))
	}
	if label := c.RemainingLabel(); label != "" {
		buf.WriteString(label + "\n")
	}

	buf.WriteString("\n" + c.Signature + "\n")
	return buf.Bytes(), nil
}

// ExportToJSON renders the card model as indented JSON.
func ExportToJSON(c *Card) ([]byte, error) {
	return shared.MarshalJSON(c, true)
}
