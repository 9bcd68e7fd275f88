package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yotoshare/internal/auth"
	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/credentials"
	"github.com/desertthunder/yotoshare/internal/repositories"
	"github.com/desertthunder/yotoshare/internal/server"
	"github.com/desertthunder/yotoshare/internal/services"
	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/desertthunder/yotoshare/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies that were not injected are built on first use from the config file, see [Runner.wire].
type Runner struct {
	config       *shared.Config
	configPath   string
	configLoaded bool
	httpClient   *http.Client
	logger       *log.Logger
	output       io.Writer
	navigator    auth.Navigator

	service services.Service
	yoto    *services.YotoService
	session *auth.Manager
	db      *sql.DB
	ownsDB  bool
	exports *repositories.ExportRepository
	engine  *tasks.CardEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	Yoto       *services.YotoService
	Session    *auth.Manager
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Navigator opens the authorization URL. Defaults to the system browser.
	Navigator auth.Navigator
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Navigator == nil {
		opts.Navigator = auth.BrowserNavigator
	}

	r := &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		configLoaded: loaded,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		output:       opts.Output,
		navigator:    opts.Navigator,
		service:      opts.Service,
		yoto:         opts.Yoto,
		session:      opts.Session,
		db:           opts.DB,
	}

	if r.db != nil {
		r.exports = repositories.NewExportRepository(r.db)
	}
	if r.service == nil && r.yoto != nil {
		r.service = r.yoto
	}
	if r.service != nil {
		r.engine = r.newEngine()
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, cardCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// Close releases the database opened by [Runner.wire].
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		return r.db.Close()
	}
	return nil
}

// SetLogger replaces the logger used by commands and by dependencies built afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig reads the config file once. A missing file is not an error: defaults and environment overrides are used.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.configLoaded {
		return r.config, nil
	}

	path := r.configPath
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
		config := shared.DefaultConfig()
		config.ApplyEnv(os.LookupEnv)
		if err := config.Validate(); err != nil {
			return nil, err
		}
		r.config = config
	}

	r.configLoaded = true
	return r.config, nil
}

func (r *Runner) requireService() error {
	if r.service != nil {
		return nil
	}
	return r.wire()
}

func (r *Runner) requireSession() error {
	if r.session != nil {
		return nil
	}
	return r.wire()
}

// wire builds every dependency that was not injected: database, credential store, Yoto client, session and engine.
func (r *Runner) wire() error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	if r.httpClient == http.DefaultClient && config.HTTP.Timeout.Duration > 0 {
		r.httpClient = &http.Client{Timeout: config.HTTP.Timeout.Duration}
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.ownsDB = true
		r.exports = repositories.NewExportRepository(db)
	}

	if r.yoto == nil {
		yoto, err := services.NewYotoService(config.Yoto, r.httpClient, config.HTTP.RateLimit)
		if err != nil {
			return err
		}
		r.yoto = yoto
	}

	if r.session == nil {
		repo, err := credentials.NewRepository(config.Credentials, r.db)
		if err != nil {
			return err
		}
		store := credentials.NewStore(repo, nil)
		r.session = auth.NewManager(store, r.yoto, r.navigator, r.logger)
	}
	r.yoto.SetTokenProvider(r.session)

	if r.service == nil {
		r.service = r.yoto
	}
	r.engine = r.newEngine()
	return nil
}

func (r *Runner) newEngine() *tasks.CardEngine {
	var recorder card.ExportRecorder
	if r.exports != nil {
		recorder = r.exports
	}
	exporter := card.NewExporter(nil, recorder)
	palette := card.NewCoverPalette(r.httpClient)
	return tasks.NewCardEngine(r.service, exporter, palette, shared.WithLogger(r.logger, "component", "engine"))
}

// login runs one browser authorization: the callback port is bound first, then the browser is opened.
//
// announce receives the authorization URL so it can be shown when the browser cannot be opened.
func (r *Runner) login(ctx context.Context, announce func(url string)) error {
	ln, err := server.Listen(r.config.Server.Addr())
	if err != nil {
		return err
	}

	authURL, err := r.session.Login(ctx)
	if authURL == "" {
		ln.Close()
		return err
	}
	if err != nil {
		r.logger.Warn("could not open browser", "error", err)
	}
	if announce != nil {
		announce(authURL)
	}

	handler := server.NewCallbackHandler(r.session)
	return server.WaitForCallback(ctx, ln, handler, r.config.Server.Timeout.Duration, r.logger)
}

// cardOptions starts from the [card] config section and applies the --theme and --signature flags.
func (r *Runner) cardOptions(cmd *cli.Command) (card.Options, error) {
	cfg := r.config.Card
	if theme := cmd.String("theme"); theme != "" {
		cfg.Theme = theme
	}
	if signature := cmd.String("signature"); signature != "" {
		cfg.Signature = signature
	}
	return card.OptionsFromConfig(cfg)
}

// logProgress logs updates until progress is closed.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	rule := strings.Repeat("═", 39)
	r.writePlain("%s\n%v\n%s\n", rule, title, rule)
}

// userError reports whether err is a usage or session problem worth printing without a stack of causes.
func userError(err error) bool {
	for _, target := range []error{
		shared.ErrMissingArgument, shared.ErrInvalidArgument, shared.ErrUnknownTheme,
		shared.ErrUnknownFormat, shared.ErrNotAuthenticated, shared.ErrMissingConfig,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
