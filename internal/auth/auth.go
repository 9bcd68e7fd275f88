package auth

import (
	"context"
	"errors"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

// Status is the authentication status of a [Manager].
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session. AccessToken is set only when Status is [StatusAuthenticated].
type State struct {
	Status      Status
	AccessToken string
}

func (s State) Authenticated() bool { return s.Status == StatusAuthenticated }

// TokenClient performs the token endpoint calls of the flow.
type TokenClient interface {
	AuthCodeURL(state, challenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
}

// Navigator sends the user agent to the authorization URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserNavigator opens the URL in the system browser.
var BrowserNavigator = NavigatorFunc(func(_ context.Context, url string) error {
	return shared.OpenBrowser(url)
})

// AuthError reports a failed authentication operation.
//
// Err is the reason, usually a shared sentinel. Cause, when set, is the underlying failure.
type AuthError struct {
	Op    string
	Err   error
	Cause error
}

func (e *AuthError) Error() string {
	msg := "auth " + e.Op + ": " + e.Err.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// IsAuthError reports whether err carries an [*AuthError].
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
