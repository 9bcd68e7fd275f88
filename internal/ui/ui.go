package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/yotoshare/internal/auth"
	"github.com/desertthunder/yotoshare/internal/card"
	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/services"
	"github.com/desertthunder/yotoshare/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AuthView ViewState = iota
	PlaylistListView
	ThemeView
	ExportView
	ResultView
)

// Session is the part of [auth.Manager] the TUI depends on.
type Session interface {
	Load(ctx context.Context) auth.State
	State() auth.State
	Subscribe() <-chan auth.State
	Unsubscribe(ch <-chan auth.State)
	Logout(ctx context.Context)
}

// Deps holds the collaborators of the TUI.
type Deps struct {
	Session Session
	// Login runs the whole browser flow: it returns once the callback was handled or the attempt failed.
	Login     func(ctx context.Context) error
	Service   services.Service
	Engine    *tasks.CardEngine
	Options   card.Options
	Format    card.Format
	OutputDir string
}

type exportRun struct {
	progress chan tasks.ProgressUpdate
	done     chan exportPayload
	cancel   context.CancelFunc
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	deps Deps
	view ViewState
	// seq increases whenever the user changes view; async results with an older seq are ignored.
	seq int

	sub       <-chan auth.State
	authState auth.State
	loggingIn bool
	loginErr  error

	width        int
	height       int
	playlistList list.Model
	themeList    list.Model
	selected     *models.Card
	run          *exportRun
	progress     tasks.ProgressUpdate
	result       *tasks.GenerateResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	themes := list.New(themeItems(), list.NewDefaultDelegate(), 0, 0)
	themes.Title = "Choisir un thème"

	return &Model{
		ctx:          ctx,
		deps:         deps,
		view:         AuthView,
		sub:          deps.Session.Subscribe(),
		authState:    auth.State{Status: auth.StatusLoading},
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		themeList:    themes,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Close releases the session subscription and stops a running export.
func (m *Model) Close() {
	if m.run != nil {
		m.run.cancel()
	}
	m.deps.Session.Unsubscribe(m.sub)
}

// Init loads the stored session and starts listening for session changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadSession(), m.waitForAuth())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.themeList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AuthView:
			return m.handleAuthKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ThemeView:
			return m.handleThemeKeys(msg)
		case ExportView:
			return m.handleExportKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAuthLoaded:
		return m, m.applyAuth(msg.data.(auth.State))

	case MsgAuthChanged:
		return m, tea.Batch(m.applyAuth(msg.data.(auth.State)), m.waitForAuth())

	case MsgLoginFinished:
		m.loggingIn = false
		if err, _ := msg.data.(error); err != nil {
			m.loginErr = err
		}
		return m, nil

	case MsgPlaylistsFetched:
		if msg.seq != m.seq || m.view != PlaylistListView {
			return m, nil
		}
		payload := msg.data.(playlistsPayload)
		if payload.err != nil {
			m.err = payload.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(payload.cards))
		for i, c := range payload.cards {
			items[i] = playlistItem{card: c}
		}
		m.playlistList.SetItems(items)
		m.playlistList.Title = "Mes playlists"
		return m, nil

	case MsgProgressUpdate:
		if msg.seq != m.seq || m.view != ExportView {
			return m, nil
		}
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForExport(msg.seq, m.run)

	case MsgExportComplete:
		if msg.seq != m.seq || m.view != ExportView {
			return m, nil
		}
		payload := msg.data.(exportPayload)
		m.run = nil
		m.result = payload.result
		m.err = payload.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// applyAuth moves between the banner and the app as the session comes and goes.
func (m *Model) applyAuth(state auth.State) tea.Cmd {
	m.authState = state

	switch {
	case state.Authenticated() && m.view == AuthView:
		m.loginErr = nil
		return m.navigate(PlaylistListView, m.fetchPlaylists)
	case state.Status == auth.StatusUnauthenticated && m.view != AuthView:
		if m.run != nil {
			m.run.cancel()
			m.run = nil
		}
		m.selected = nil
		m.result = nil
		m.err = nil
		return m.navigate(AuthView, nil)
	}
	return nil
}

// navigate switches view and invalidates every pending result of the previous one.
func (m *Model) navigate(view ViewState, next func(seq int) tea.Cmd) tea.Cmd {
	m.view = view
	m.seq++
	if next == nil {
		return nil
	}
	return next(m.seq)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case AuthView:
		return m.renderAuth()
	case PlaylistListView:
		return m.renderPlaylistList()
	case ThemeView:
		return m.renderThemes()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.login):
		if m.loggingIn || m.authState.Status != auth.StatusUnauthenticated || m.deps.Login == nil {
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = nil
		return m, m.startLogin()
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		m.deps.Session.Logout(m.ctx)
		return m, nil
	case key.Matches(msg, m.keys.restart):
		return m, m.navigate(PlaylistListView, m.fetchPlaylists)
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			c := pl.card
			m.selected = &c
			return m, m.navigate(ThemeView, nil)
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleThemeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.selected = nil
		return m, m.navigate(PlaylistListView, nil)
	case key.Matches(msg, m.keys.enter):
		if ti, ok := m.themeList.SelectedItem().(themeItem); ok {
			opts := m.deps.Options
			opts.Theme = ti.theme
			return m, m.navigate(ExportView, func(seq int) tea.Cmd { return m.startExport(seq, opts) })
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleExportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.run != nil {
			m.run.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.run != nil {
			m.run.cancel()
			m.run = nil
		}
		return m, m.navigate(ThemeView, nil)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.selected = nil
		m.result = nil
		m.err = nil
		return m, m.navigate(PlaylistListView, nil)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ThemeView:
		m.themeList, cmd = m.themeList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSession() tea.Cmd {
	return func() tea.Msg {
		return authLoadedMsg(m.deps.Session.Load(m.ctx))
	}
}

func (m *Model) waitForAuth() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		state, ok := <-sub
		if !ok {
			return nil
		}
		return authChangedMsg(state)
	}
}

func (m *Model) startLogin() tea.Cmd {
	login := m.deps.Login
	ctx := m.ctx
	return func() tea.Msg {
		return loginFinishedMsg(login(ctx))
	}
}

func (m *Model) fetchPlaylists(seq int) tea.Cmd {
	svc := m.deps.Service
	ctx := m.ctx
	return func() tea.Msg {
		cards, err := svc.Cards(ctx)
		return playlistsFetchedMsg(seq, cards, err)
	}
}

func (m *Model) startExport(seq int, opts card.Options) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	run := &exportRun{
		progress: make(chan tasks.ProgressUpdate, 16),
		done:     make(chan exportPayload, 1),
		cancel:   cancel,
	}
	m.run = run
	m.progress = tasks.ProgressUpdate{Message: "Préparation..."}

	engine := m.deps.Engine
	cardID := m.selected.CardID
	genOpts := tasks.GenerateOpts{Options: opts, Format: m.deps.Format, OutputDir: m.deps.OutputDir}

	go func() {
		defer cancel()
		res, err := engine.Generate(ctx, run.progress, cardID, genOpts)
		run.done <- exportPayload{result: res, err: err}
	}()

	return m.waitForExport(seq, run)
}

func (m *Model) waitForExport(seq int, run *exportRun) tea.Cmd {
	if run == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-run.progress:
			return progressUpdateMsg(seq, update)
		case p := <-run.done:
			return exportCompleteMsg(seq, p.result, p.err)
		}
	}
}

func (m *Model) renderAuth() string {
	var body string
	switch {
	case m.authState.Status == auth.StatusLoading:
		body = "Vérification de la session..."
	case m.loggingIn:
		body = "Autorisez YotoShare dans votre navigateur..."
	default:
		body = "Non connecté à Yoto.\nAppuyez sur l pour vous connecter."
	}

	out := styles.title.Render("YotoShare") + "\n" + styles.banner.Render(body)
	if m.loginErr != nil {
		out += "\n\n" + styles.err.Render(fmt.Sprintf("Échec de la connexion: %v", m.loginErr))
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView([]key.Binding{m.keys.login, m.keys.quit}))
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.restart, m.keys.logout, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderThemes() string {
	title := ""
	if m.selected != nil {
		title = styles.title.Render(m.selected.Title) + "\n"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s%s\n\n%s", title, m.themeList.View(), helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Génération de la carte")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.progress.Message, m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)), helpView)
	}
	if m.result == nil || m.result.Export == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Carte générée !"))
	b.WriteString(fmt.Sprintf("\n\n%s\n%d pistes • %s\nThème: %s\nFichier: %s",
		m.result.Card.Title,
		m.result.Card.TrackCount,
		m.result.Card.TotalDuration,
		m.result.Card.Theme.Name,
		m.result.Export.Path,
	))
	if m.result.ThemeErr != nil {
		b.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("Thème automatique indisponible: %v", m.result.ThemeErr)))
	}
	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}
