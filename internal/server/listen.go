package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yotoshare/internal/shared"
)

const defaultCallbackTimeout = 2 * time.Minute

// Listen binds addr so the port is held before the browser is sent to the authorization page.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}

// WaitForCallback serves handler on ln until it reports a result, ctx ends or timeout elapses, then shuts the server down.
func WaitForCallback(ctx context.Context, ln net.Listener, handler *CallbackHandler, timeout time.Duration, logger *log.Logger) error {
	if timeout <= 0 {
		timeout = defaultCallbackTimeout
	}

	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("callback server shutdown", "error", err)
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-handler.Result():
		return result.Error()
	case err := <-serveErr:
		return fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: no callback received within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
