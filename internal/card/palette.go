package card

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrNoAccent is returned when an image has no colour vivid enough to serve as an accent.
var ErrNoAccent = errors.New("no accent colour found")

// maxCoverBytes bounds cover downloads.
const maxCoverBytes = 10 << 20

// PaletteExtractor picks an accent colour for a cover image.
type PaletteExtractor interface {
	Accent(ctx context.Context, imageURL string) (colorful.Color, error)
}

// CoverPalette downloads cover art and finds its dominant vivid hue.
type CoverPalette struct {
	client *http.Client
}

func NewCoverPalette(client *http.Client) *CoverPalette {
	if client == nil {
		client = http.DefaultClient
	}
	return &CoverPalette{client: client}
}

func (p *CoverPalette) Accent(ctx context.Context, imageURL string) (colorful.Color, error) {
	img, err := p.download(ctx, imageURL)
	if err != nil {
		return colorful.Color{}, err
	}
	return DominantColor(img)
}

func (p *CoverPalette) download(ctx context.Context, imageURL string) (image.Image, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("empty cover URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download cover: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}
	return img, nil
}

const hueBuckets = 12

// DominantColor samples img and returns the average colour of the most prominent hue, weighting
// pixels by saturation. Greys, near-black and near-white pixels are ignored.
func DominantColor(img image.Image) (colorful.Color, error) {
	bounds := img.Bounds()
	step := max(1, int(math.Sqrt(float64(bounds.Dx()*bounds.Dy())/10000)))

	var (
		weight [hueBuckets]float64
		sumL   [hueBuckets]float64
		sumA   [hueBuckets]float64
		sumB   [hueBuckets]float64
	)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, s, v := c.Hsv()
			if s < 0.25 || v < 0.2 || v > 0.98 {
				continue
			}

			i := int(h/(360.0/hueBuckets)) % hueBuckets
			w := s * v
			l, a, b := c.Lab()
			weight[i] += w
			sumL[i] += l * w
			sumA[i] += a * w
			sumB[i] += b * w
		}
	}

	best := -1
	for i := range weight {
		if weight[i] > 0 && (best < 0 || weight[i] > weight[best]) {
			best = i
		}
	}
	if best < 0 {
		return colorful.Color{}, ErrNoAccent
	}

	w := weight[best]
	return colorful.Lab(sumL[best]/w, sumA[best]/w, sumB[best]/w).Clamped(), nil
}
