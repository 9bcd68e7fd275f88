package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/yotoshare/internal/shared"
)

func newTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: shared.MemoryDatabase})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db)
}

func TestRepositories(t *testing.T) {
	backends := []struct {
		name string
		new  func(t *testing.T) Repository
	}{
		{name: "Memory", new: func(*testing.T) Repository { return NewMemoryRepository() }},
		{name: "SQLite", new: func(t *testing.T) Repository { return newTestDB(t) }},
		{name: "File", new: func(t *testing.T) Repository {
			return NewFileRepository(filepath.Join(t.TempDir(), "nested", "credentials.toml"))
		}},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			repo := b.new(t)

			if _, ok, err := repo.Get(ctx, KeyAccessToken); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := repo.Set(ctx, KeyAccessToken, "first"); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if err := repo.Set(ctx, KeyAccessToken, "second"); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			if err := repo.Set(ctx, KeyState, "state"); err != nil {
				t.Fatalf("set failed: %v", err)
			}

			v, ok, err := repo.Get(ctx, KeyAccessToken)
			if err != nil || !ok || v != "second" {
				t.Errorf("expected second, got %q ok=%v err=%v", v, ok, err)
			}

			if err := repo.Delete(ctx, KeyAccessToken, KeyRefreshToken); err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if _, ok, _ := repo.Get(ctx, KeyAccessToken); ok {
				t.Error("access token should be deleted")
			}
			if v, ok, _ := repo.Get(ctx, KeyState); !ok || v != "state" {
				t.Errorf("unrelated key should survive delete, got %q ok=%v", v, ok)
			}

			if err := repo.Delete(ctx, KeyAccessToken); err != nil {
				t.Errorf("deleting an absent key should not fail: %v", err)
			}
		})
	}
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.toml")

	repo := NewFileRepository(path)
	if err := repo.Set(ctx, KeyRefreshToken, "rt"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	t.Run("Owner Only Permissions", func(t *testing.T) {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected 0600 permissions, got %o", perm)
		}
	})

	t.Run("Survives Reopen", func(t *testing.T) {
		v, ok, err := NewFileRepository(path).Get(ctx, KeyRefreshToken)
		if err != nil || !ok || v != "rt" {
			t.Errorf("expected rt after reopen, got %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("Corrupt File", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(bad, []byte("credentials = ["), 0600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if _, _, err := NewFileRepository(bad).Get(ctx, KeyAccessToken); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestNewRepository(t *testing.T) {
	db := newTestDB(t).db

	tc := []struct {
		name    string
		cfg     shared.CredentialsConfig
		wantErr bool
	}{
		{name: "sqlite", cfg: shared.CredentialsConfig{Backend: shared.BackendSQLite}},
		{name: "file", cfg: shared.CredentialsConfig{Backend: shared.BackendFile, Path: filepath.Join(t.TempDir(), "c.toml")}},
		{name: "memory", cfg: shared.CredentialsConfig{Backend: shared.BackendMemory}},
		{name: "unknown", cfg: shared.CredentialsConfig{Backend: "keyring"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepository(tt.cfg, db)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil || repo == nil {
				t.Errorf("unexpected result repo=%v err=%v", repo, err)
			}
		})
	}

	t.Run("sqlite without database", func(t *testing.T) {
		if _, err := NewRepository(shared.CredentialsConfig{Backend: shared.BackendSQLite}, nil); err == nil {
			t.Error("expected error without database")
		}
	})
}
