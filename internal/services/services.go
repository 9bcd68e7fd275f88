package services

import (
	"context"

	"github.com/desertthunder/yotoshare/internal/models"
)

// Service is a source of playlists for card generation.
type Service interface {
	// Cards lists the playlists owned by the authenticated user.
	Cards(ctx context.Context) ([]models.Card, error)

	// Card retrieves one playlist with its chapters.
	Card(ctx context.Context, cardID string) (*models.Card, error)

	// UserProfile returns the authenticated account.
	UserProfile(ctx context.Context) (*models.UserProfile, error)

	// Name returns the name of the service
	Name() string
}

// TokenProvider hands out a bearer token that is valid right now, refreshing it if needed.
type TokenProvider interface {
	ValidToken(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to [TokenProvider].
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) ValidToken(ctx context.Context) (string, error) { return f(ctx) }
