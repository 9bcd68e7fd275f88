// Package auth runs the OAuth authorization code flow with PKCE and keeps the session fresh.
//
// A [Manager] is always in exactly one [Status]:
//
//	StatusLoading ──Load──▶ StatusAuthenticated | StatusUnauthenticated
//	StatusUnauthenticated ──Login + HandleCallback──▶ StatusAuthenticated
//	StatusAuthenticated ──Logout or failed refresh──▶ StatusUnauthenticated
//
// [Manager.ValidToken] is the only way API callers obtain an access token. It refreshes an expired token once,
// shares that refresh between concurrent callers, and logs the user out when the refresh cannot succeed.
//
// Failures of operations the caller invoked are returned as [*AuthError], which unwraps to the shared sentinels:
//   - [shared.ErrStateMismatch] : the callback state does not match the stored one (no network call is made)
//   - [shared.ErrMissingVerifier] : no code verifier is stored for the callback
//   - [shared.ErrSessionExpired] : the token expired and could not be refreshed
//
// The PKCE transaction is discarded after every callback, successful or not, so a failed login is always restarted from scratch.
package auth
