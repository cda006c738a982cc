package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server runs the bank HTTP API until its context is cancelled.
type Server struct {
	srv *http.Server
}

// NewServer creates a configured HTTP server on :port.
func NewServer(port uint16, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.srv.Addr }

// Start blocks serving requests. http.ErrServerClosed is the normal exit
// after Stop.
func (s *Server) Start(_ context.Context) error {
	slog.Info("API started", "addr", s.srv.Addr)

	err := s.srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	slog.Info("Shut down server")

	err := s.srv.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown srv: %w", err)
	}

	return nil
}
