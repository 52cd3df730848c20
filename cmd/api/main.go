// Package main is the entry point for the Lendstation admin data API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/lendstation/backend/internal/archive"
	"github.com/pkordes/lendstation/backend/internal/config"
	"github.com/pkordes/lendstation/backend/internal/handler"
	"github.com/pkordes/lendstation/backend/internal/middleware"
	"github.com/pkordes/lendstation/backend/internal/repo"
	"github.com/pkordes/lendstation/backend/internal/service"
	"github.com/pkordes/lendstation/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog is the stdlib structured logger introduced in Go 1.21.
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Migrations -------------------------------------------------------
	// goose needs a database/sql handle; the application itself runs on pgx.
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Repositories -----------------------------------------------------
	records := repo.NewRecordStore(pool)
	backups := repo.NewBackupRepo(pool)
	rollbacks := repo.NewRollbackRepo(pool)
	audit := repo.NewAuditRepo(pool)

	// Sweep archives that outlived their retention window. Best-effort:
	// a failed sweep only means some rows stay "available" until the
	// next restart, and restore re-checks expiry anyway.
	if n, err := backups.ExpireStale(context.Background(), time.Now()); err != nil {
		slog.Warn("backup expiry sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("expired stale backup archives", "count", n)
	}

	// --- Offsite mirror ---------------------------------------------------
	// The S3 mirror is optional; engines treat a nil Mirror as disabled.
	var mirror service.Mirror
	if cfg.Archive.Enabled() {
		mirror = archive.New(archive.Config{
			Endpoint:   cfg.Archive.Endpoint,
			Bucket:     cfg.Archive.Bucket,
			Region:     cfg.Archive.Region,
			AccessKey:  cfg.Archive.AccessKey,
			SecretKey:  cfg.Archive.SecretKey,
			Passphrase: cfg.Archive.Passphrase,
		})
		slog.Info("offsite archive mirror enabled", "bucket", cfg.Archive.Bucket)
	}

	// --- Services ---------------------------------------------------------
	exportSvc := service.NewExportService(records, audit, mirror, logger)
	importSvc := service.NewImportService(records, rollbacks, audit, logger)
	deleteSvc := service.NewDeleteService(records, backups, audit, mirror, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMetricsHandler())
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.Handle("/metrics", promhttp.Handler())

	srv := handler.NewServer(exportSvc, importSvc, deleteSvc, audit)
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// The write timeout is generous because exports serialize whole record
	// sets into a single response body.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies all pending migrations from the embedded FS.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}

	_, err = provider.Up(context.Background())
	return err
}
