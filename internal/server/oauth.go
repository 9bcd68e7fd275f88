package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/desertthunder/yotoshare/internal/shared"
)

// Callback completes an authorization attempt.
type Callback interface {
	HandleCallback(ctx context.Context, code, state string) error
}

// CallbackResult is the outcome of the redirect.
type CallbackResult struct {
	err error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler handles the OAuth redirect. Implements the [Handler] interface for registration with a Router.
type CallbackHandler struct {
	callback    Callback
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

func NewCallbackHandler(callback Callback) *CallbackHandler {
	return &CallbackHandler{
		callback:   callback,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		msg := errParam
		if desc := q.Get("error_description"); desc != "" {
			msg = desc
		}
		h.Send(CallbackResult{err: fmt.Errorf("%w: %s", shared.ErrAuthorizationDenied, msg)})
		writePage(w, http.StatusBadRequest, "Authorization failed", msg)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Send(CallbackResult{err: shared.ErrMissingCode})
		writePage(w, http.StatusBadRequest, "Authorization failed", "The authorization code is missing.")
		return
	}

	if err := h.callback.HandleCallback(context.WithoutCancel(r.Context()), code, q.Get("state")); err != nil {
		h.Send(CallbackResult{err: err})

		status := http.StatusBadGateway
		if errors.Is(err, shared.ErrStateMismatch) || errors.Is(err, shared.ErrMissingVerifier) {
			status = http.StatusBadRequest
		}
		writePage(w, status, "Authorization failed", err.Error())
		return
	}

	h.Send(CallbackResult{})
	writePage(w, http.StatusOK, "Authorization Successful", "You can close this window and return to the terminal.")
}

// Send delivers the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel. It receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	color := "#F95E3F"
	if status != http.StatusOK {
		color = "#E63946"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>YotoShare</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #1a1a2e; }
        .container { text-align: center; background: #16213e; padding: 2rem;
                     border-radius: 16px; box-shadow: 0 2px 4px rgba(0,0,0,0.3); }
        h1 { color: %s; margin: 0 0 1rem 0; }
        p { color: #cbd5e1; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>
`, color, html.EscapeString(title), html.EscapeString(message))
}
