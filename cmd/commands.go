package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	logger2 "gitlab.com/magneto-ui.net/internal/global/logger"
	http2 "gitlab.com/magneto-ui.net/internal/http"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background reconciler",
	RunE: func(cmd *cobra.Command, args []string) error {
		sysCfg := loadConfig()
		logger := logger2.Logger
		logger.Info("Starting magneto-ui service")

		// Set up graceful shutdown
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := setupStores(ctx, sysCfg, logger)
		if err != nil {
			logger.Error("Failed to initialize stores", "error", err)
			return err
		}
		defer st.Close()

		serviceProvider := newServiceProvider(sysCfg, st, logger)
		httpServer := http2.NewServer(sysCfg, "magneto-ui", *serviceProvider, logger)
		if err := httpServer.Init(); err != nil {
			return err
		}
		serveErr := httpServer.Start(ctx)

		reconciler := newReconciler(sysCfg, st, logger)
		if !sysCfg.DebugMode {
			reconciler.Start(ctx)
		}

		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				stop()
				reconciler.Wait()
				return err
			}
		}
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = httpServer.Stop(shutdownCtx)
		reconciler.Wait()

		logger.Info("successfully shutdown server")
		return err
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		sysCfg := loadConfig()
		db, err := setupDatabase(cmd.Context(), sysCfg.PostgresConfig, logger2.Logger)
		if err != nil {
			logger2.Error("Failed to migrate database", "error", err)
			return err
		}
		return db.Close()
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one garbage-collection pass over working directories and blobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		sysCfg := loadConfig()
		logger := logger2.Logger

		st, err := setupStores(cmd.Context(), sysCfg, logger)
		if err != nil {
			logger.Error("Failed to initialize stores", "error", err)
			return err
		}
		defer st.Close()

		report, err := newReconciler(sysCfg, st, logger).RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("removed %d directories and %d blobs\n", report.Dirs, report.Blobs)
		return nil
	},
}
