package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yotoshare/internal/shared"
)

type stubCallback struct {
	mu    sync.Mutex
	err   error
	calls [][2]string
}

func (s *stubCallback) HandleCallback(_ context.Context, code, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, [2]string{code, state})
	return s.err
}

func (s *stubCallback) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func receive(t *testing.T, h *CallbackHandler) error {
	t.Helper()
	select {
	case r := <-h.Result():
		return r.Error()
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
		return nil
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		h := NewCallbackHandler(&stubCallback{})
		routes := h.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("unexpected routes %v", routes)
		}
	})

	t.Run("Success", func(t *testing.T) {
		cb := &stubCallback{}
		h := NewCallbackHandler(cb)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=xyz", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("expected success page")
		}
		if err := receive(t, h); err != nil {
			t.Errorf("expected nil result, got %v", err)
		}
		if cb.Calls() != 1 || cb.calls[0] != [2]string{"abc", "xyz"} {
			t.Errorf("unexpected callback calls %v", cb.calls)
		}
	})

	t.Run("Authorization Error", func(t *testing.T) {
		cb := &stubCallback{}
		h := NewCallbackHandler(cb)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=User+said+no", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		err := receive(t, h)
		if !errors.Is(err, shared.ErrAuthorizationDenied) {
			t.Errorf("expected ErrAuthorizationDenied, got %v", err)
		}
		if !strings.Contains(err.Error(), "User said no") {
			t.Errorf("expected description in error, got %v", err)
		}
		if cb.Calls() != 0 {
			t.Error("callback must not run when the server reports an error")
		}
	})

	t.Run("Missing Code", func(t *testing.T) {
		cb := &stubCallback{}
		h := NewCallbackHandler(cb)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=xyz", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if err := receive(t, h); !errors.Is(err, shared.ErrMissingCode) {
			t.Errorf("expected ErrMissingCode, got %v", err)
		}
		if cb.Calls() != 0 {
			t.Error("callback must not run without a code")
		}
	})

	t.Run("Callback Failure", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
		}{
			{"state mismatch", shared.ErrStateMismatch, http.StatusBadRequest},
			{"missing verifier", shared.ErrMissingVerifier, http.StatusBadRequest},
			{"exchange", shared.ErrAuthFailed, http.StatusBadGateway},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := NewCallbackHandler(&stubCallback{err: tt.err})

				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=xyz", nil))

				if rec.Code != tt.status {
					t.Errorf("expected %d, got %d", tt.status, rec.Code)
				}
				if err := receive(t, h); !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
			})
		}
	})

	t.Run("Only Once", func(t *testing.T) {
		cb := &stubCallback{}
		h := NewCallbackHandler(cb)

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=xyz", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=def&state=xyz", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
		if cb.Calls() != 1 {
			t.Errorf("expected one callback, got %d", cb.Calls())
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		h := NewCallbackHandler(&stubCallback{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/callback", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Escapes Messages", func(t *testing.T) {
		h := NewCallbackHandler(&stubCallback{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=%3Cscript%3E", nil))

		if strings.Contains(rec.Body.String(), "<script>") {
			t.Error("error message must be escaped")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		want := []string{"first", "second", "handler"}
		if strings.Join(order, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, order)
		}
	})

	t.Run("Method Filter", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Logging Middleware Preserves Status", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(LoggingMiddleware(log.New(io.Discard)))
		router.Handler(NewCallbackHandler(&stubCallback{}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestWaitForCallback(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("Delivers Result", func(t *testing.T) {
		ln, err := Listen("127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		h := NewCallbackHandler(&stubCallback{})

		done := make(chan error, 1)
		go func() { done <- WaitForCallback(context.Background(), ln, h, 5*time.Second, logger) }()

		resp, err := http.Get("http://" + ln.Addr().String() + "/callback?code=abc&state=xyz")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected nil, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("WaitForCallback did not return")
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		ln, err := Listen("127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		err = WaitForCallback(context.Background(), ln, NewCallbackHandler(&stubCallback{}), 20*time.Millisecond, logger)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Context Cancelled", func(t *testing.T) {
		ln, err := Listen("127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = WaitForCallback(ctx, ln, NewCallbackHandler(&stubCallback{}), time.Minute, logger)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
