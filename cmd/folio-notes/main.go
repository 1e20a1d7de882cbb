package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/logging"
	"github.com/five82/folio/internal/notes/server"
)

const (
	defaultListen = "127.0.0.1:7488"
	defaultDB     = "~/.local/share/folio/notes.db"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found")
	}

	listen := flag.String("listen", envOr("FOLIO_NOTES_LISTEN", defaultListen), "address to listen on")
	dbPath := flag.String("db", envOr("FOLIO_NOTES_DB", defaultDB), "SQLite database path")
	logLevel := flag.String("loglevel", envOr("FOLIO_NOTES_LOGLEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	closeLog, err := logging.Setup(logging.Options{Level: *logLevel, Output: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio-notes: %v\n", err)
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, *listen, *dbPath, splitOrigins(os.Getenv("FOLIO_NOTES_ORIGINS"))); err != nil {
		logrus.WithError(err).Error("notes server stopped")
		return 1
	}
	return 0
}

func serve(ctx context.Context, listen, dbPath string, origins []string) error {
	path, err := config.ExpandPath(dbPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	repo, err := server.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logrus.WithError(err).Warn("close notes database")
		}
	}()

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.NewRouter(repo, server.Options{AllowedOrigins: origins}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{"addr": listen, "db": path}).Info("starting notes server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitOrigins(value string) []string {
	var out []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
