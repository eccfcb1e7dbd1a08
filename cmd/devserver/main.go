// devserver runs the self-hosted backend for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"aorify/internal/config"
	"aorify/internal/database"
	"aorify/internal/devserver"
	"aorify/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flagSet := pflag.NewFlagSet("devserver", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.ServerPort, "port", cfg.ServerPort, "listen port")
	flagSet.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver (sqlite3 or postgres)")
	flagSet.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "database connection string")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Setup Server
	backend := devserver.New(db, devserver.OptionsFromConfig(cfg))
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitor := backend.Janitor(devserver.DefaultSweepInterval)
	janitor.Start(ctx)
	defer janitor.Stop()

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
