package card

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	colorBackground = "#1a1a2e"
	colorPanel      = "#16213e"
	colorMuted      = "#94a3b8"
	colorText       = "#e2e8f0"

	panelInset   = 40
	headerHeight = 180
	rowHeight    = 48
	padding      = 32
)

// Rasterizer draws a card as a bitmap.
type Rasterizer interface {
	Rasterize(c *Card) (image.Image, error)
}

// BitmapRasterizer lays the card out at its logical size with a fixed-width face, then upscales by the pixel ratio.
type BitmapRasterizer struct {
	face   font.Face
	scaler xdraw.Scaler
}

func NewBitmapRasterizer() *BitmapRasterizer {
	return &BitmapRasterizer{face: basicfont.Face7x13, scaler: xdraw.CatmullRom}
}

func (r *BitmapRasterizer) Rasterize(c *Card) (image.Image, error) {
	if c.Width <= 2*panelInset || c.Height <= 2*panelInset+headerHeight {
		return nil, fmt.Errorf("card size %dx%d is too small", c.Width, c.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	fill(canvas, canvas.Bounds(), hexColor(colorBackground))

	panel := image.Rect(panelInset, panelInset, c.Width-panelInset, c.Height-panelInset)
	fill(canvas, panel, hexColor(colorPanel))

	header := image.Rect(panel.Min.X, panel.Min.Y, panel.Max.X, panel.Min.Y+headerHeight)
	r.gradient(canvas, header, c.Theme)

	textColor := hexColor(c.Theme.TextColor())
	maxChars := (panel.Dx() - 2*padding) / r.advance()
	x := panel.Min.X + padding

	r.text(canvas, x, header.Min.Y+60, truncate(c.Title, maxChars), textColor)
	if c.Author != "" {
		r.text(canvas, x, header.Min.Y+95, truncate(c.Author, maxChars), textColor)
	}
	r.text(canvas, x, header.Min.Y+140, fmt.Sprintf("%d pistes - %s", c.TrackCount, c.TotalDuration), textColor)

	accent := hexColor(c.Theme.Color)
	y := header.Max.Y + padding
	for _, t := range c.Tracks {
		if y+rowHeight > panel.Max.Y-padding {
			break
		}
		badge := image.Rect(x, y, x+28, y+28)
		fill(canvas, badge, accent)
		r.text(canvas, x+10, y+19, fmt.Sprint(t.Number), hexColor(c.Theme.TextColor()))

		durX := panel.Max.X - padding - len(t.Duration)*r.advance()
		titleChars := (durX - (x + 44) - padding) / r.advance()
		r.text(canvas, x+44, y+19, truncate(t.Title, titleChars), hexColor(colorText))
		r.text(canvas, durX, y+19, t.Duration, hexColor(colorMuted))
		y += rowHeight
	}

	if label := c.RemainingLabel(); label != "" {
		r.text(canvas, x+44, y+12, label, hexColor(colorMuted))
	}

	sigX := panel.Max.X - padding - len([]rune(c.Signature))*r.advance()
	r.text(canvas, sigX, panel.Max.Y-padding/2, c.Signature, hexColor(c.Theme.Gradient[1]))

	if c.PixelRatio <= 1 {
		return canvas, nil
	}

	scaled := image.NewRGBA(image.Rect(0, 0, c.Width*c.PixelRatio, c.Height*c.PixelRatio))
	r.scaler.Scale(scaled, scaled.Bounds(), canvas, canvas.Bounds(), xdraw.Src, nil)
	return scaled, nil
}

// gradient paints rect along the 135° diagonal, top-left to bottom-right.
func (r *BitmapRasterizer) gradient(dst *image.RGBA, rect image.Rectangle, t Theme) {
	span := float64(rect.Dx() + rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			f := float64((x-rect.Min.X)+(y-rect.Min.Y)) / span
			dst.Set(x, y, rgba(t.At(f)))
		}
	}
}

func (r *BitmapRasterizer) text(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (r *BitmapRasterizer) advance() int {
	adv, ok := r.face.GlyphAdvance('M')
	if !ok || adv <= 0 {
		return 7
	}
	return adv.Ceil()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 3 || len(runes) <= n {
		if n > 0 && len(runes) > n {
			return string(runes[:n])
		}
		return s
	}
	return string(runes[:n-3]) + "..."
}

func fill(dst *image.RGBA, rect image.Rectangle, c color.Color) {
	draw.Draw(dst, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func hexColor(s string) color.Color {
	return rgba(parseHex(s))
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
