package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/my2cents/internal/setup"
	"github.com/robalyx/my2cents/internal/setup/telemetry"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ServerLogDir specifies where server log files are stored.
const ServerLogDir = "logs/server_logs"

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 10 * time.Second
	ShutdownTimeout = 30 * time.Second
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the comment API and the notification consumers",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"))
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceServer, ServerLogDir, configPath)
	if err != nil {
		return err
	}
	defer app.Cleanup()

	app.Start(ctx)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         app.Config.Server.ListenAddr(),
		Handler:      app.RESTHandler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)

	go func() {
		app.Logger.Info("REST server started",
			zap.String("addr", srv.Addr),
			zap.String("url", app.Config.Server.My2CentsURL()))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}

		close(serverErr)
	}()

	// Wait for interrupt signal or a failed listener
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			app.Logger.Error("Failed to start server", zap.Error(err))
			return err
		}
	}

	app.Logger.Info("Shutting down REST server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")

	return nil
}
