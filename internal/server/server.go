// Package server runs the HTTP API until its context is cancelled.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"go-c2rcc/internal/container"
	"go-c2rcc/internal/logger"
)

// ShutdownTimeout bounds the graceful shutdown
const ShutdownTimeout = 30 * time.Second

// Run serves the container's handler and shuts down gracefully once ctx
// is done. Background jobs are stopped after the listener has closed.
func Run(ctx context.Context, c *container.Container) error {
	cfg := c.Config()

	preloadCtx, cancel := context.WithTimeout(ctx, cfg.NetFetchTimeout)
	if err := c.Preload(preloadCtx); err != nil {
		// requests load on demand and report the failure themselves
		logger.WithError(err).WithField("sensor", cfg.Sensor).Warn("Default network set not preloaded")
	}
	cancel()

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout,
			"workers": cfg.Workers,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		c.Close()
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancelShutdown()

	err := server.Shutdown(shutdownCtx)
	c.Close()
	if err != nil {
		return err
	}
	logger.Info("Server exited")
	return nil
}
