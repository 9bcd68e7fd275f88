package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = themeItem{}
)

// playlistItem wraps [models.Card] to implement [list.Item].
type playlistItem struct {
	card models.Card
}

func (i playlistItem) FilterValue() string { return i.card.Title }
func (i playlistItem) Title() string       { return i.card.Title }
func (i playlistItem) Description() string {
	parts := []string{shared.FormatDuration(models.TotalDuration(&i.card))}
	if n := len(models.ExtractTracks(&i.card)); n > 0 {
		parts = append([]string{fmt.Sprintf("%d pistes", n)}, parts...)
	}
	if i.card.Metadata.Author != "" {
		parts = append(parts, i.card.Metadata.Author)
	}
	return strings.Join(parts, " • ")
}

// themeItem wraps [card.Theme] to implement [list.Item].
type themeItem struct {
	theme card.Theme
}

func (i themeItem) FilterValue() string { return i.theme.Name }
func (i themeItem) Title() string       { return i.theme.Name }
func (i themeItem) Description() string {
	if i.theme.Name == card.AutoThemeName {
		return "Couleur extraite de la pochette"
	}
	swatch := styles.On("  ", lipgloss.Color(i.theme.Gradient[0])) + styles.On("  ", lipgloss.Color(i.theme.Gradient[1]))
	return swatch + " " + i.theme.Color
}

func themeItems() []list.Item {
	items := []list.Item{}
	for _, t := range card.Presets() {
		items = append(items, themeItem{theme: t})
	}
	return append(items, themeItem{theme: card.Theme{Name: card.AutoThemeName}})
}
