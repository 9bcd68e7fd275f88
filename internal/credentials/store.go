package credentials

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

// Store reads and writes the credential record and the PKCE transaction.
type Store struct {
	repo Repository
	now  func() time.Time
}

// Transaction is the state kept between starting a login and receiving its callback.
// Empty fields mean the value is not stored.
type Transaction struct {
	Verifier string
	State    string
}

// NewStore returns a Store over repo. A nil now uses [time.Now].
func NewStore(repo Repository, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, now: now}
}

// Save persists a token response.
//
// The access token is always written. The refresh token is written only when the response carries one,
// so a refresh that omits it keeps the previous value. Expiry is now + expires_in seconds, in epoch milliseconds.
//
// The old expiry is removed before any token is written and the new one is written last,
// so a failed Save leaves the store expired rather than pairing a token with another token's expiry.
func (s *Store) Save(ctx context.Context, tok models.TokenResponse) error {
	if tok.AccessToken == "" {
		return fmt.Errorf("%w: token response has no access token", shared.ErrInvalidInput)
	}

	expiresAt := s.now().UnixMilli() + tok.ExpiresIn*1000

	if err := s.repo.Delete(ctx, KeyExpiresAt); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, KeyAccessToken, tok.AccessToken); err != nil {
		return err
	}
	if tok.RefreshToken != "" {
		if err := s.repo.Set(ctx, KeyRefreshToken, tok.RefreshToken); err != nil {
			return err
		}
	}
	return s.repo.Set(ctx, KeyExpiresAt, strconv.FormatInt(expiresAt, 10))
}

// IsExpired reports whether the stored access token must not be used.
//
// It is true when no expiry is stored, when the stored value is unreadable, or when now is strictly after it.
func (s *Store) IsExpired(ctx context.Context) bool {
	expiresAt, ok, err := s.ExpiresAt(ctx)
	if err != nil || !ok {
		return true
	}
	return s.now().UnixMilli() > expiresAt
}

// ExpiresAt returns the stored expiry in epoch milliseconds.
func (s *Store) ExpiresAt(ctx context.Context) (int64, bool, error) {
	raw, ok, err := s.repo.Get(ctx, KeyExpiresAt)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid stored expiry %q: %w", raw, err)
	}
	return v, true, nil
}

func (s *Store) AccessToken(ctx context.Context) (string, bool, error) {
	return s.nonEmpty(ctx, KeyAccessToken)
}

func (s *Store) RefreshToken(ctx context.Context) (string, bool, error) {
	return s.nonEmpty(ctx, KeyRefreshToken)
}

// Clear removes the access token, refresh token and expiry. The PKCE transaction is left alone.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyExpiresAt)
}

// SavePKCETransaction stores the verifier and state of a login in progress, replacing any earlier one.
func (s *Store) SavePKCETransaction(ctx context.Context, tx Transaction) error {
	if err := s.repo.Set(ctx, KeyCodeVerifier, tx.Verifier); err != nil {
		return err
	}
	return s.repo.Set(ctx, KeyState, tx.State)
}

func (s *Store) PKCETransaction(ctx context.Context) (Transaction, error) {
	verifier, _, err := s.nonEmpty(ctx, KeyCodeVerifier)
	if err != nil {
		return Transaction{}, err
	}
	state, _, err := s.nonEmpty(ctx, KeyState)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{Verifier: verifier, State: state}, nil
}

func (s *Store) ClearPKCETransaction(ctx context.Context) error {
	return s.repo.Delete(ctx, KeyCodeVerifier, KeyState)
}

func (s *Store) nonEmpty(ctx context.Context, key Key) (string, bool, error) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	return v, ok && v != "", nil
}
