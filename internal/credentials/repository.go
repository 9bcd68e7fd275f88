package credentials

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/yotoshare/internal/shared"
)

// Key names a persisted credential value.
type Key string

const (
	KeyAccessToken  Key = "yotoshare_access_token"
	KeyRefreshToken Key = "yotoshare_refresh_token"
	KeyExpiresAt    Key = "yotoshare_expires_at"
	KeyCodeVerifier Key = "yotoshare_code_verifier"
	KeyState        Key = "yotoshare_state"
)

// Keys lists every key yotoshare writes.
var Keys = []Key{KeyAccessToken, KeyRefreshToken, KeyExpiresAt, KeyCodeVerifier, KeyState}

// Repository is a string key/value store. Missing keys are reported with ok=false, not an error.
type Repository interface {
	Get(ctx context.Context, key Key) (value string, ok bool, err error)
	Set(ctx context.Context, key Key, value string) error
	// Delete removes keys. Absent keys are ignored.
	Delete(ctx context.Context, keys ...Key) error
}

// NewRepository builds the repository selected by cfg.
//
// db is only used by the sqlite backend and may be nil otherwise.
func NewRepository(cfg shared.CredentialsConfig, db *sql.DB) (Repository, error) {
	switch cfg.Backend {
	case shared.BackendSQLite, "":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite credentials backend requires a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteRepository(db), nil
	case shared.BackendFile:
		return NewFileRepository(cfg.Path), nil
	case shared.BackendMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("%w: unknown credentials backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}
