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

	"github.com/fatih/color"

	"github.com/dukerupert/tracknotes/internal/config"
	"github.com/dukerupert/tracknotes/internal/database"
	"github.com/dukerupert/tracknotes/internal/logging"
	"github.com/dukerupert/tracknotes/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database.Path, cfg.Database.ConnectAttempts, cfg.Database.ConnectDelay, logger.With("component", "database"))
	if err != nil {
		logger.Error("all connection attempts failed", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg.Server.StaticDir, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		printBanner(cfg)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func printBanner(cfg *config.Config) {
	rule := "============================================================"
	fmt.Println()
	fmt.Println(rule)
	color.New(color.Bold).Println("TrackNotes injection study server")
	fmt.Println(rule)
	fmt.Printf("Server running on: http://localhost:%s\n", cfg.Server.Port)
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	color.Red("\nWARNING: This app is intentionally vulnerable.")
	color.Red("For educational purposes ONLY.")
	fmt.Println(rule)
	fmt.Println()
}
