package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/plzip/internal/server"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the relay API until ctx is cancelled (SIGINT/SIGTERM), then shuts down gracefully.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		cfg.Port = port
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}
	return r.serve(ctx, ln, cfg)
}

func (r *Runner) serve(ctx context.Context, ln net.Listener, cfg shared.ServerConfig) error {
	search, download := r.gateways()
	handler := server.New(server.Options{
		Validator:      r.validator(),
		Search:         search,
		Download:       download,
		Messages:       r.messages,
		Logger:         shared.WithLogger(r.logger, "component", "server"),
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Burst:          cfg.Burst,
	})
	srv := server.NewHTTPServer(ln.Addr().String(), handler)

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", ln.Addr().String(), "backend", r.config.Backend.URL)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	r.logger.Info("server stopped")
	return nil
}
