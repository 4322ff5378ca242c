package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
)

func newServeCommand(open opener) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots, run history and dry-run comparisons over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if port == 0 {
				port = app.Config.API.Port
			}
			return RunServe(cmd.Context(), app, port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	return cmd
}

// RunServe runs the API server until ctx is cancelled.
func RunServe(ctx context.Context, app *App, port int) error {
	logger := app.Logger.With("system", "api")
	rc := app.Config.Reconcile

	server := api.NewServer(api.Config{
		Port:           port,
		AllowedOrigins: app.Config.API.AllowedOrigins,
		Users:          app.Users(),
		Matcher: matcher.Config{
			BankDateTolerance: rc.BankDateTolerance,
			PeerDateTolerance: rc.PeerDateTolerance,
		},
	}, app.Store, app.Metrics, logger)

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
