// Package server provides a small graceful-shutdown wrapper around
// net/http bound to a pre-opened listener.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/trailhunt-games/trailhunt/internal/logging"
)

type Server struct {
	listener net.Listener
}

// New opens a listener on the port so bind errors surface before the
// process commits to running.
func New(port string) (*Server, error) {
	addr := fmt.Sprintf(":%s", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("creating listener on %s: %w", addr, err)
	}

	return &Server{listener: listener}, nil
}

// Addr reports the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// ServeHTTP serves srv on the listener until ctx is cancelled, then
// drains with a bounded shutdown.
func (s *Server) ServeHTTP(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", s.Addr())
		if err := srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// HandleHealth reports process liveness.
func HandleHealth(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		default:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"status":"ok"}`)
		}
	})
}
