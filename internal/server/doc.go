// Package server provides the loopback HTTP server that receives the OAuth redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [LoggingMiddleware] records each request with the charmbracelet logger.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] serves GET /callback. An error parameter from the authorization server aborts the flow,
// as does a missing code; otherwise the code and state are handed to a [Callback] (the auth manager), which
// validates the state before exchanging the code. The outcome is delivered once through [CallbackHandler.Result].
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs auth login (or logs in from the TUI), [WaitForCallback] starts a temporary server on the
// configured loopback address, waits for the redirect or the timeout, and shuts down.
package server
