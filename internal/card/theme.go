package card

import (
	"fmt"
	"strings"

	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/lucasb-eyer/go-colorful"
)

// AutoThemeName selects a theme derived from the cover art.
const AutoThemeName = "Auto"

// Theme is an accent colour and the 135° gradient drawn behind the card header.
type Theme struct {
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Gradient [2]string `json:"gradient"`
}

var presets = []Theme{
	{Name: "Orange Yoto", Color: "#F95E3F", Gradient: [2]string{"#F95E3F", "#FF8A65"}},
	{Name: "Bleu Océan", Color: "#0077B6", Gradient: [2]string{"#0077B6", "#90E0EF"}},
	{Name: "Vert Jungle", Color: "#2D6A4F", Gradient: [2]string{"#2D6A4F", "#95D5B2"}},
	{Name: "Rose Bonbon", Color: "#E63946", Gradient: [2]string{"#E63946", "#FFC8DD"}},
	{Name: "Violet Magic", Color: "#7B2CBF", Gradient: [2]string{"#7B2CBF", "#E0AAFF"}},
	{Name: "Jaune Soleil", Color: "#F4A261", Gradient: [2]string{"#E76F51", "#F4D35E"}},
}

// Presets returns a copy of the built-in themes. The first entry is the default.
func Presets() []Theme {
	out := make([]Theme, len(presets))
	copy(out, presets)
	return out
}

// DefaultTheme returns the first preset.
func DefaultTheme() Theme {
	return presets[0]
}

// ThemeByName finds a preset by name (case-insensitive) or accent colour. An empty name yields the default.
func ThemeByName(name string) (Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultTheme(), nil
	}
	for _, t := range presets {
		if strings.EqualFold(t.Name, name) || strings.EqualFold(t.Color, name) {
			return t, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: %q", shared.ErrUnknownTheme, name)
}

// FindTheme returns the preset whose accent is color, or the default when none matches.
func FindTheme(color string) Theme {
	for _, t := range presets {
		if strings.EqualFold(t.Color, color) {
			return t
		}
	}
	return DefaultTheme()
}

// ThemeFromAccent builds the Auto theme: the accent fades into a lighter, softer tint of itself.
func ThemeFromAccent(accent colorful.Color) Theme {
	h, c, l := accent.Hcl()
	light := colorful.Hcl(h, c*0.6, min(l+0.25, 0.92)).Clamped()
	hex := strings.ToUpper(accent.Clamped().Hex())
	return Theme{
		Name:     AutoThemeName,
		Color:    hex,
		Gradient: [2]string{hex, strings.ToUpper(light.Hex())},
	}
}

// CSSGradient renders the gradient as a CSS background value.
func (t Theme) CSSGradient() string {
	return fmt.Sprintf("linear-gradient(135deg, %s 0%%, %s 100%%)", t.Gradient[0], t.Gradient[1])
}

// At interpolates the gradient at f in [0, 1] in Lab space.
func (t Theme) At(f float64) colorful.Color {
	from := parseHex(t.Gradient[0])
	to := parseHex(t.Gradient[1])
	return from.BlendLab(to, min(max(f, 0), 1)).Clamped()
}

// TextColor returns a readable foreground for text drawn on the accent.
func (t Theme) TextColor() string {
	if luminance(parseHex(t.Color)) > 0.7 {
		return "#1a1a2e"
	}
	return "#ffffff"
}

func parseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	return c
}

func luminance(c colorful.Color) float64 {
	l, _, _ := c.Lab()
	return l
}
