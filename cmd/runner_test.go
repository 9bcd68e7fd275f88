package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/yotoshare/internal/auth"
	"github.com/desertthunder/yotoshare/internal/credentials"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/services"
	"github.com/desertthunder/yotoshare/internal/shared"
	tu "github.com/desertthunder/yotoshare/internal/testing"
	"github.com/urfave/cli/v3"
)

func testPlaylists() []models.Card {
	return []models.Card{
		{
			CardID:   "card1",
			Title:    "Contes du soir",
			Metadata: models.CardMetadata{Author: "Mamie"},
			Content: models.CardContent{Chapters: []models.Chapter{
				{Title: "Le loup", Duration: 125},
				{Title: "La lune", Duration: 60},
			}},
		},
		{
			CardID:  "card2",
			Title:   "Comptines",
			Content: models.CardContent{Chapters: []models.Chapter{{Title: "Une souris verte", Duration: 42}}},
		},
	}
}

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Card.OutputDir = t.TempDir()
	config.Database.Path = shared.MemoryDatabase
	config.Credentials.Backend = shared.BackendMemory
	return config
}

func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	if opts.Config == nil {
		opts.Config = testConfig(t)
	}
	if opts.Service == nil && opts.Yoto == nil {
		opts.Service = &tu.MockService{Playlists: testPlaylists()}
	}
	opts.Output = output
	opts.Logger = shared.NewLogger(io.Discard)
	r := NewRunner(opts)
	t.Cleanup(func() { r.Close() })
	return r, output
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name: "yotoshare",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.BoolFlag{Name: "verbose"},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
	return app.Run(context.Background(), append([]string{"yotoshare"}, args...))
}

func newTestSession(t *testing.T, client *tu.MockTokenClient, nav auth.Navigator) (*auth.Manager, *credentials.Store) {
	t.Helper()
	store := credentials.NewStore(credentials.NewMemoryRepository(), nil)
	return auth.NewManager(store, client, nav, shared.NewLogger(io.Discard)), store
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			service := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Service:    service,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.configLoaded {
				t.Error("expected injected config to count as loaded")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.service != service {
				t.Error("expected service to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built from the service")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configLoaded {
				t.Error("expected config file to still be read on first use")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("without service has no engine", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.engine != nil {
				t.Error("expected engine to wait for wiring")
			}
		})

		t.Run("with yoto service uses it as service", func(t *testing.T) {
			yoto, err := services.NewYotoService(shared.DefaultConfig().Yoto, nil, 0)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			runner := NewRunner(RunnerOpts{Yoto: yoto})

			if runner.service != services.Service(yoto) {
				t.Error("expected yoto service to back playlist commands")
			}
		})

		t.Run("with database builds export repository", func(t *testing.T) {
			db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: shared.MemoryDatabase})
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			defer db.Close()

			runner := NewRunner(RunnerOpts{DB: db})

			if runner.exports == nil {
				t.Error("expected export repository to be set")
			}
			if runner.ownsDB {
				t.Error("injected database must not be closed by the runner")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if result := output.String(); result != "\ndone\n" {
				t.Errorf("expected %q, got %q", "\ndone\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "playlists", "card", "api", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %v", i, want[i], cmd)
			}
		}
	})

	t.Run("userError", func(t *testing.T) {
		tests := []struct {
			err  error
			want bool
		}{
			{fmt.Errorf("%w: --id", shared.ErrMissingArgument), true},
			{fmt.Errorf("wrapped: %w", shared.ErrNotAuthenticated), true},
			{shared.ErrUnknownTheme, true},
			{errors.New("disk full"), false},
		}
		for _, tt := range tests {
			if got := userError(tt.err); got != tt.want {
				t.Errorf("userError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file uses defaults and environment", func(t *testing.T) {
		t.Setenv(shared.EnvClientID, "env-client")
		runner := NewRunner(RunnerOpts{ConfigPath: filepath.Join(t.TempDir(), "none.toml"), Logger: shared.NewLogger(io.Discard)})

		config, err := runner.loadConfig()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Yoto.ClientID != "env-client" {
			t.Errorf("expected client id from environment, got %q", config.Yoto.ClientID)
		}
	})

	t.Run("reads file once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Card.Theme = "Vert Jungle"
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{ConfigPath: path})
		loaded, err := runner.loadConfig()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if loaded.Card.Theme != "Vert Jungle" {
			t.Errorf("expected theme from file, got %q", loaded.Card.Theme)
		}

		os.Remove(path)
		if again, err := runner.loadConfig(); err != nil || again != loaded {
			t.Errorf("expected cached config, got %v, %v", again, err)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[credentials]\nbackend = \"etcd\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner := NewRunner(RunnerOpts{ConfigPath: path})
		if _, err := runner.loadConfig(); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("wire builds session and engine", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})
		runner.service = nil
		runner.engine = nil

		if err := runner.requireSession(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.session == nil || runner.yoto == nil || runner.engine == nil || runner.exports == nil {
			t.Error("expected every dependency to be built")
		}
		if !runner.ownsDB {
			t.Error("expected runner to own the database it opened")
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, output := newTestRunner(t, RunnerOpts{ConfigPath: path})

		if err := run(t, runner, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Config written") {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := run(t, runner, "setup", "config"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected existing file to be refused, got %v", err)
		}
		if err := run(t, runner, "setup", "config", "--force"); err != nil {
			t.Errorf("expected --force to overwrite, got %v", err)
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "yotoshare.db")
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		runner, _ := newTestRunner(t, RunnerOpts{ConfigPath: path})
		if err := run(t, runner, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
	})
}

func TestPlaylistCommands(t *testing.T) {
	t.Run("list as JSON", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "playlists", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var rows []playlistSummary
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(rows))
		}
		if rows[0].Tracks != 2 || rows[0].Duration != "3m 5s" {
			t.Errorf("unexpected summary %+v", rows[0])
		}
	})

	t.Run("list with limit", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "playlists", "list", "--limit", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Contes du soir") || strings.Contains(output.String(), "Comptines") {
			t.Errorf("expected only the first playlist, got %q", output.String())
		}
	})

	t.Run("list propagates service errors", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{Service: &tu.MockService{Err: shared.ErrNotAuthenticated}})

		if err := run(t, runner, "playlists", "list"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("show prints tracks", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "playlists", "show", "--id", "card1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Contes du soir", "par Mamie", " 1. Le loup (2:05)"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in %q", want, output.String())
			}
		}
	})

	t.Run("show unknown playlist", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "playlists", "show", "--id", "nope"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestCardCommands(t *testing.T) {
	t.Run("generate to explicit path", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})
		path := filepath.Join(t.TempDir(), "out", "card.txt")

		if err := run(t, runner, "card", "generate", "--id", "card1", "--format", "txt", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "Contes du soir") {
			t.Errorf("unexpected card content %q", content)
		}
		if !strings.Contains(output.String(), path) {
			t.Errorf("expected path in output, got %q", output.String())
		}
	})

	t.Run("generate into configured output dir", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "card", "generate", "--id", "card2", "--format", "md", "--theme", "Rose Bonbon"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(runner.config.Card.OutputDir, "yotoshare-comptines.md"))
	})

	t.Run("generate rejects unknown theme and format", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "card", "generate", "--id", "card1", "--theme", "Plaid"); !errors.Is(err, shared.ErrUnknownTheme) {
			t.Errorf("expected ErrUnknownTheme, got %v", err)
		}
		if err := run(t, runner, "card", "generate", "--id", "card1", "--format", "gif"); !errors.Is(err, shared.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})

	t.Run("preview writes nothing", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "card", "preview", "--id", "card1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Orange Yoto") {
			t.Errorf("expected default theme in preview, got %q", output.String())
		}
		entries, _ := os.ReadDir(runner.config.Card.OutputDir)
		if len(entries) != 0 {
			t.Errorf("expected no files, got %d", len(entries))
		}
	})

	t.Run("bulk argument validation", func(t *testing.T) {
		runner, _ := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "card", "bulk"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := run(t, runner, "card", "bulk", "--all", "--ids", "card1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("bulk all playlists", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})
		dir := filepath.Join(t.TempDir(), "export")

		err := run(t, runner, "card", "bulk", "--all", "--format", "json", "--output", dir, "--rate", "100")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "yotoshare-contes-du-soir.json"))
		if !strings.Contains(output.String(), "Successful: 2") {
			t.Errorf("unexpected summary %q", output.String())
		}
	})

	t.Run("bulk reports failures", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})
		dir := filepath.Join(t.TempDir(), "export")

		err := run(t, runner, "card", "bulk", "--ids", "card1,missing", "--format", "txt", "--output", dir, "--rate", "100")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Failed:     1") || !strings.Contains(output.String(), "Unknown (missing)") {
			t.Errorf("unexpected summary %q", output.String())
		}
	})

	t.Run("themes as JSON", func(t *testing.T) {
		runner, output := newTestRunner(t, RunnerOpts{})

		if err := run(t, runner, "card", "themes", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var rows []themeRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(rows) != 6 || rows[0].Name != "Orange Yoto" {
			t.Errorf("unexpected themes %+v", rows)
		}
	})

	t.Run("history lists recorded exports", func(t *testing.T) {
		db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: shared.MemoryDatabase})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		runner, output := newTestRunner(t, RunnerOpts{DB: db})
		for _, id := range []string{"card1", "card2"} {
			if err := run(t, runner, "card", "generate", "--id", id, "--format", "txt"); err != nil {
				t.Fatalf("generate %s: %v", id, err)
			}
		}
		output.Reset()

		if err := run(t, runner, "card", "history", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var rows []historyRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(rows) != 2 || rows[0].CardID != "card2" || rows[0].Sequence != 2 {
			t.Errorf("expected newest first, got %+v", rows)
		}

		output.Reset()
		if err := run(t, runner, "card", "history", "--json", "--id", "card1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		rows = nil
		json.Unmarshal(output.Bytes(), &rows)
		if len(rows) != 1 || rows[0].Title != "Contes du soir" {
			t.Errorf("expected filtered history, got %+v", rows)
		}
	})
}

func TestAPIGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/card/mine":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"cards":[]}`))
		case "/plain":
			w.Write([]byte("pong"))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	newRunner := func(t *testing.T) (*Runner, *bytes.Buffer) {
		cfg := shared.DefaultConfig().Yoto
		cfg.APIURL = srv.URL
		yoto, err := services.NewYotoService(cfg, srv.Client(), 0)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		yoto.SetTokenProvider(services.TokenProviderFunc(func(context.Context) (string, error) { return "tok", nil }))
		return newTestRunner(t, RunnerOpts{Yoto: yoto})
	}

	t.Run("JSON body", func(t *testing.T) {
		runner, output := newRunner(t)

		if err := run(t, runner, "api", "get", "--json", "/card/mine"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != `{"cards":[]}`+"\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("plain body", func(t *testing.T) {
		runner, output := newRunner(t)

		if err := run(t, runner, "api", "get", "plain"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != "pong\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("error status", func(t *testing.T) {
		runner, _ := newRunner(t)

		if err := run(t, runner, "api", "get", "/broken"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("transport failures", func(t *testing.T) {
		tests := []struct {
			name      string
			transport http.RoundTripper
		}{
			{"request error", tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			{"body read error", tu.NewMockRoundTripper(&http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}}, nil)},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				yoto, err := services.NewYotoService(shared.DefaultConfig().Yoto, &http.Client{Transport: tt.transport}, 0)
				if err != nil {
					t.Fatalf("failed to create service: %v", err)
				}
				yoto.SetTokenProvider(services.TokenProviderFunc(func(context.Context) (string, error) { return "tok", nil }))
				runner, _ := newTestRunner(t, RunnerOpts{Yoto: yoto})

				if err := run(t, runner, "api", "get", "/card/mine"); !errors.Is(err, shared.ErrAPIRequest) {
					t.Errorf("expected ErrAPIRequest, got %v", err)
				}
			})
		}
	})

	t.Run("missing path", func(t *testing.T) {
		runner, _ := newRunner(t)

		if err := run(t, runner, "api", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	seed := func(t *testing.T, store *credentials.Store) {
		t.Helper()
		err := store.Save(context.Background(), models.TokenResponse{
			AccessToken:  "access-token-123456",
			RefreshToken: "refresh",
			ExpiresIn:    3600,
		})
		if err != nil {
			t.Fatalf("failed to seed tokens: %v", err)
		}
	}

	t.Run("status without session", func(t *testing.T) {
		session, _ := newTestSession(t, &tu.MockTokenClient{}, nil)
		runner, output := newTestRunner(t, RunnerOpts{Session: session})

		if err := run(t, runner, "auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var status authStatus
		if err := json.Unmarshal(output.Bytes(), &status); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if status.Authenticated || status.Status != "unauthenticated" {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("status with stored tokens", func(t *testing.T) {
		session, store := newTestSession(t, &tu.MockTokenClient{}, nil)
		seed(t, store)
		runner, output := newTestRunner(t, RunnerOpts{Session: session})

		if err := run(t, runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := output.String(); got != "✓ Signed in as mock-user\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("token is redacted unless revealed", func(t *testing.T) {
		session, store := newTestSession(t, &tu.MockTokenClient{}, nil)
		seed(t, store)
		runner, output := newTestRunner(t, RunnerOpts{Session: session})

		if err := run(t, runner, "auth", "token"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(output.String(), "acce********3456\n") {
			t.Errorf("expected redacted token, got %q", output.String())
		}

		output.Reset()
		if err := run(t, runner, "auth", "token", "--reveal"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(output.String(), "access-token-123456\n") {
			t.Errorf("expected full token, got %q", output.String())
		}
	})

	t.Run("token without session", func(t *testing.T) {
		session, _ := newTestSession(t, &tu.MockTokenClient{}, nil)
		runner, _ := newTestRunner(t, RunnerOpts{Session: session})

		if err := run(t, runner, "auth", "token"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		session, store := newTestSession(t, &tu.MockTokenClient{}, nil)
		seed(t, store)
		runner, _ := newTestRunner(t, RunnerOpts{Session: session})

		if err := run(t, runner, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok, _ := store.AccessToken(context.Background()); ok {
			t.Error("expected access token to be removed")
		}
	})

	t.Run("login completes through the callback server", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve a port: %v", err)
		}
		port := ln.Addr().(*net.TCPAddr).Port
		ln.Close()

		config := testConfig(t)
		config.Server.Host = "127.0.0.1"
		config.Server.Port = port
		config.Server.Timeout.Duration = 5 * time.Second

		callbacks := make(chan error, 1)
		nav := auth.NavigatorFunc(func(_ context.Context, raw string) error {
			u, err := url.Parse(raw)
			if err != nil {
				return err
			}
			callback := fmt.Sprintf("http://127.0.0.1:%d/callback?code=the-code&state=%s", port, url.QueryEscape(u.Query().Get("state")))
			go func() {
				resp, err := http.Get(callback)
				if err == nil {
					resp.Body.Close()
				}
				callbacks <- err
			}()
			return nil
		})

		client := &tu.MockTokenClient{ExchangeResult: &models.TokenResponse{AccessToken: "fresh", ExpiresIn: 3600}}
		session, _ := newTestSession(t, client, nav)
		runner, output := newTestRunner(t, RunnerOpts{Config: config, Session: session})

		if err := run(t, runner, "auth", "login"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := <-callbacks; err != nil {
			t.Errorf("callback request failed: %v", err)
		}
		if !session.State().Authenticated() {
			t.Error("expected session to be authenticated")
		}
		if len(client.ExchangeCalls) != 1 || client.ExchangeCalls[0].Code != "the-code" {
			t.Errorf("unexpected exchanges %+v", client.ExchangeCalls)
		}
		if !strings.Contains(output.String(), "Signed in to Yoto") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}
