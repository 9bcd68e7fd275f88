package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/pkce"
	"github.com/desertthunder/yotoshare/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const yotoName = "Yoto"

// YotoService implements [Service] for the Yoto API and the token calls of the PKCE flow.
type YotoService struct {
	config     *oauth2.Config
	audience   string
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenProvider
}

// NewYotoService creates a service from the [yoto] config section.
//
// client defaults to [http.DefaultClient]. A non-positive limit disables throttling.
func NewYotoService(cfg shared.YotoConfig, client *http.Client, limit float64) (*YotoService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingConfig)
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, fmt.Errorf("%w: missing auth_url or token_url", shared.ErrMissingConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}

	scope := cfg.Scope
	if scope == "" {
		scope = "offline_access"
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if limit > 0 {
		limiter = rate.NewLimiter(rate.Limit(limit), 1)
	}

	return &YotoService{
		config: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      strings.Fields(scope),
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		audience:   cfg.Audience,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		httpClient: client,
		limiter:    limiter,
	}, nil
}

// SetTokenProvider sets where API calls get their bearer token.
func (s *YotoService) SetTokenProvider(p TokenProvider) {
	s.tokens = p
}

func (s *YotoService) Name() string {
	return yotoName
}

// AuthCodeURL builds the authorization URL carrying the audience, scope, PKCE challenge and CSRF state.
func (s *YotoService) AuthCodeURL(state, challenge string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.ChallengeMethod),
	}
	if s.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", s.audience))
	}
	return s.config.AuthCodeURL(state, opts...)
}

// ExchangeCode trades an authorization code and its verifier for tokens.
//
// A rejected exchange returns an error wrapping both [shared.ErrAuthFailed] and the [*oauth2.RetrieveError] carrying the response body.
func (s *YotoService) ExchangeCode(ctx context.Context, code, verifier string) (*models.TokenResponse, error) {
	tok, err := s.config.Exchange(s.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: token exchange: %s: %w", shared.ErrAuthFailed, strings.TrimSpace(string(re.Body)), err)
		}
		return nil, fmt.Errorf("%w: token exchange: %w", shared.ErrAuthFailed, err)
	}
	return tokenResponse(tok), nil
}

// RefreshToken obtains a new access token from a refresh token.
func (s *YotoService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	ts := s.config.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	return tokenResponse(tok), nil
}

func (s *YotoService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func tokenResponse(tok *oauth2.Token) *models.TokenResponse {
	resp := &models.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		TokenType:    tok.TokenType,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp
}

// Cards retrieves the user's "Make Your Own" playlists.
func (s *YotoService) Cards(ctx context.Context) ([]models.Card, error) {
	var body struct {
		Cards []models.Card `json:"cards"`
	}
	if err := s.doRequest(ctx, "/card/mine", &body); err != nil {
		return nil, err
	}
	if body.Cards == nil {
		return []models.Card{}, nil
	}
	return body.Cards, nil
}

// Card retrieves a playlist with its full content.
func (s *YotoService) Card(ctx context.Context, cardID string) (*models.Card, error) {
	if cardID == "" {
		return nil, fmt.Errorf("%w: card id is required", shared.ErrMissingArgument)
	}

	var body struct {
		Card *models.Card `json:"card"`
	}
	if err := s.doRequest(ctx, "/card/"+url.PathEscape(cardID), &body); err != nil {
		return nil, err
	}
	if body.Card == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, cardID)
	}
	return body.Card, nil
}

func (s *YotoService) UserProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.doRequest(ctx, "/user/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// APIResponse is a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs an authenticated GET of path and returns the raw response whatever its status.
func (s *YotoService) Get(ctx context.Context, path string) (*APIResponse, error) {
	resp, err := s.send(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

// doRequest performs an authenticated GET and decodes a 2xx JSON body into result.
func (s *YotoService) doRequest(ctx context.Context, path string, result any) error {
	resp, err := s.send(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: yoto API returned 401 for %s", shared.ErrNotAuthenticated, path)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: yoto API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func (s *YotoService) send(ctx context.Context, path string) (*http.Response, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("%w: no token provider", shared.ErrNotAuthenticated)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	token, err := s.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}
