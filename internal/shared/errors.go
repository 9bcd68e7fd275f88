package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrStateMismatch       = fmt.Errorf("state mismatch")
	ErrMissingVerifier     = fmt.Errorf("missing verifier")
	ErrSessionExpired      = fmt.Errorf("session expired")
	ErrAuthorizationDenied = fmt.Errorf("authorization denied")
	ErrMissingCode         = fmt.Errorf("missing authorization code")
	ErrRefreshFailed       = fmt.Errorf("token refresh failed")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrNotFound           = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrUnknownTheme    = fmt.Errorf("unknown theme")
	ErrUnknownFormat   = fmt.Errorf("unknown export format")
)
