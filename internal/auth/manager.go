package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yotoshare/internal/credentials"
	"github.com/desertthunder/yotoshare/internal/pkce"
	"github.com/desertthunder/yotoshare/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

var errNoRefreshToken = errors.New("no refresh token stored")

// Manager owns the session state and every transition between states. It is safe for concurrent use.
type Manager struct {
	store  *credentials.Store
	client TokenClient
	nav    Navigator
	logger *log.Logger

	loadOnce sync.Once
	flight   singleflight.Group

	mu    sync.Mutex
	state State
	// generation increments on logout so an in-flight refresh cannot revive the session.
	generation uint64
	subs       []chan State
}

// NewManager returns a Manager in [StatusLoading]. A nil nav only returns the URL from [Manager.Login].
func NewManager(store *credentials.Store, client TokenClient, nav Navigator, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		store:  store,
		client: client,
		nav:    nav,
		logger: shared.WithLogger(logger, "component", "auth"),
		state:  State{Status: StatusLoading},
	}
}

// State returns the current session snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel receiving every state change. Slow subscribers miss intermediate states.
func (m *Manager) Subscribe() <-chan State {
	ch := make(chan State, 4)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (m *Manager) Unsubscribe(ch <-chan State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.subs {
		if c == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(c)
			return
		}
	}
}

// setState must be called with m.mu held.
func (m *Manager) setState(s State) {
	m.state = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Load settles the initial state from storage. Only the first call does any work; later calls return the current state.
//
// An expired token with a refresh token is refreshed once. Load never returns an error: an unauthenticated state is the signal.
func (m *Manager) Load(ctx context.Context) State {
	m.loadOnce.Do(func() {
		m.mu.Lock()
		gen := m.generation
		m.mu.Unlock()

		next := m.load(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state.Status == StatusLoading && m.generation == gen {
			m.setState(next)
		} else if m.state.Status == StatusLoading {
			m.setState(State{Status: StatusUnauthenticated})
		}
	})
	return m.State()
}

func (m *Manager) load(ctx context.Context) State {
	unauthenticated := State{Status: StatusUnauthenticated}

	token, ok, err := m.store.AccessToken(ctx)
	if err != nil {
		m.logger.Warn("failed to read stored token", "error", err)
		return unauthenticated
	}
	if !ok {
		m.logger.Debug("no stored session")
		return unauthenticated
	}

	if !m.store.IsExpired(ctx) {
		return State{Status: StatusAuthenticated, AccessToken: token}
	}

	_, ok, err = m.store.RefreshToken(ctx)
	if err != nil {
		m.logger.Warn("failed to read stored refresh token", "error", err)
		return unauthenticated
	}
	if !ok {
		m.logger.Debug("stored token expired without refresh token")
		return unauthenticated
	}

	token, err = m.refresh(ctx)
	if err != nil {
		m.logger.Warn("session refresh failed during load", "error", err)
		return unauthenticated
	}
	return State{Status: StatusAuthenticated, AccessToken: token}
}

// Login starts a new authorization attempt and returns the authorization URL.
//
// A fresh verifier and state replace any earlier attempt, so callbacks for older attempts fail state validation.
// The URL is returned even when navigation fails, so it can be shown to the user instead.
func (m *Manager) Login(ctx context.Context) (string, error) {
	verifier, err := pkce.GenerateCodeVerifier()
	if err != nil {
		return "", &AuthError{Op: "login", Err: shared.ErrAuthFailed, Cause: err}
	}
	challenge, err := pkce.GenerateCodeChallenge(ctx, verifier)
	if err != nil {
		return "", &AuthError{Op: "login", Err: shared.ErrAuthFailed, Cause: err}
	}
	state, err := pkce.GenerateState()
	if err != nil {
		return "", &AuthError{Op: "login", Err: shared.ErrAuthFailed, Cause: err}
	}

	if err := m.store.SavePKCETransaction(ctx, credentials.Transaction{Verifier: verifier, State: state}); err != nil {
		return "", &AuthError{Op: "login", Err: shared.ErrAuthFailed, Cause: err}
	}

	authURL := m.client.AuthCodeURL(state, challenge)
	m.logger.Info("authorization started")

	if m.nav != nil {
		if err := m.nav.Navigate(ctx, authURL); err != nil {
			return authURL, &AuthError{Op: "login", Err: shared.ErrAuthFailed, Cause: err}
		}
	}
	return authURL, nil
}

// HandleCallback completes the attempt started by [Manager.Login].
//
// The returned state is compared with the stored one before any network call. A missing stored state is a mismatch.
// Exchange failures are returned wrapped, so [errors.As] reaches the transport error.
// The PKCE transaction is cleared whatever the outcome.
func (m *Manager) HandleCallback(ctx context.Context, code, returnedState string) error {
	tx, err := m.store.PKCETransaction(ctx)
	if err != nil {
		m.clearTransaction(ctx)
		return &AuthError{Op: "callback", Err: shared.ErrAuthFailed, Cause: err}
	}

	if tx.State == "" || returnedState != tx.State {
		m.logger.Warn("callback state mismatch")
		m.clearTransaction(ctx)
		return &AuthError{Op: "callback", Err: shared.ErrStateMismatch}
	}
	if tx.Verifier == "" {
		m.clearTransaction(ctx)
		return &AuthError{Op: "callback", Err: shared.ErrMissingVerifier}
	}

	tok, err := m.client.ExchangeCode(ctx, code, tx.Verifier)
	if err != nil {
		m.clearTransaction(ctx)
		return &AuthError{Op: "exchange", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, *tok); err != nil {
		m.clearTransaction(ctx)
		return &AuthError{Op: "exchange", Err: shared.ErrAuthFailed, Cause: err}
	}
	m.clearTransaction(ctx)

	m.generation++
	m.setState(State{Status: StatusAuthenticated, AccessToken: tok.AccessToken})
	m.logger.Info("authenticated")
	return nil
}

func (m *Manager) clearTransaction(ctx context.Context) {
	if err := m.store.ClearPKCETransaction(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("failed to clear PKCE transaction", "error", err)
	}
}

// Logout clears stored credentials and moves to [StatusUnauthenticated]. It makes no network call and cannot fail.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked(ctx)
}

func (m *Manager) logoutLocked(ctx context.Context) {
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("failed to clear stored credentials", "error", err)
	}
	m.generation++
	m.setState(State{Status: StatusUnauthenticated})
}

// ValidToken returns an access token that is not expired.
//
// An expired token is refreshed once. Without a refresh token, or when the refresh fails,
// the session is logged out and an [*AuthError] wrapping [shared.ErrSessionExpired] is returned.
func (m *Manager) ValidToken(ctx context.Context) (string, error) {
	if !m.store.IsExpired(ctx) {
		token, ok, err := m.store.AccessToken(ctx)
		if err == nil && ok {
			return token, nil
		}
	}
	return m.refresh(ctx)
}

// refresh runs at most one token refresh at a time. Callers arriving while one is in flight share its result.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	v, err, joined := m.flight.Do(refreshKey, func() (any, error) {
		return m.doRefresh(context.WithoutCancel(ctx))
	})
	if joined {
		m.logger.Debug("joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	if !m.store.IsExpired(ctx) {
		if token, ok, err := m.store.AccessToken(ctx); err == nil && ok {
			return token, nil
		}
	}

	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	refreshToken, ok, err := m.store.RefreshToken(ctx)
	if err == nil && !ok {
		err = errNoRefreshToken
	}
	if err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.logoutLocked(ctx)
		return "", &AuthError{Op: "refresh", Err: shared.ErrSessionExpired, Cause: err}
	}

	m.logger.Info("refreshing access token")
	tok, err := m.client.RefreshToken(ctx, refreshToken)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		return "", &AuthError{Op: "refresh", Err: shared.ErrSessionExpired, Cause: errors.New("session ended during refresh")}
	}
	if err == nil {
		err = m.store.Save(ctx, *tok)
	}
	if err != nil {
		m.logger.Warn("token refresh failed", "error", err)
		m.logoutLocked(ctx)
		return "", &AuthError{Op: "refresh", Err: shared.ErrSessionExpired, Cause: err}
	}

	if m.state.Status != StatusLoading {
		m.setState(State{Status: StatusAuthenticated, AccessToken: tok.AccessToken})
	}
	return tok.AccessToken, nil
}

// TokenSource exposes [Manager.ValidToken] as an [oauth2.TokenSource].
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, m: m}
}

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	token, err := s.m.ValidToken(s.ctx)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if expiresAt, ok, err := s.m.store.ExpiresAt(s.ctx); err == nil && ok {
		tok.Expiry = time.UnixMilli(expiresAt)
	}
	return tok, nil
}
