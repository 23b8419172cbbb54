package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "preupgrade/internal/adapters/http"
	pg "preupgrade/internal/adapters/postgres"
	"preupgrade/internal/adapters/sqlite"
	"preupgrade/internal/config"
	"preupgrade/internal/ports"
	importsvc "preupgrade/internal/services/imports"
	reportsvc "preupgrade/internal/services/reports"
	"preupgrade/internal/workers/importrunner"
)

// store is what both storage adapters provide.
type store interface {
	ports.JobRunRepository
	ports.ReportRepository
	ports.ImportRepository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	reports := reportsvc.New(db, db, reportsvc.Paging{DefaultPerPage: cfg.DefaultPerPage, MaxPerPage: cfg.MaxPerPage})
	imports := importsvc.New(db, db)
	processor := importrunner.LeappProcessor{Repo: db}

	var opts []httpadapter.Option
	if cfg.AuthUser != "" {
		opts = append(opts, httpadapter.WithBasicAuth(cfg.AuthUser, cfg.AuthPassword))
	} else if cfg.Env == "production" {
		logger.Warn("AUTH_USER is not set, the API is unauthenticated")
	}
	srv := httpadapter.New(reports, imports, db, processor, logger, opts...)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	workersDone := make(chan struct{})
	if cfg.ImportWorkers > 0 {
		go func() {
			defer close(workersDone)
			importrunner.Run(ctx, db, processor, cfg.ImportWorkers, cfg.ImportPollInterval, logger)
		}()
		logger.Info("import workers started", "workers", cfg.ImportWorkers, "poll_interval", cfg.ImportPollInterval)
	} else {
		close(workersDone)
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			cancel()
			<-workersDone
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	cancel()
	<-workersDone
	return nil
}

// openStore connects to the database DATABASE_URL names and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store, func(), error) {
	driver, dsn, err := cfg.Storage()
	if err != nil {
		return nil, nil, err
	}
	switch driver {
	case "postgres":
		db, err := pg.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		n, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("postgres ready", "migrations_applied", n)
		return db, db.Close, nil
	default:
		db, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
		}
		logger.Info("sqlite ready", "path", dsn)
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Error("close sqlite", "error", err)
			}
		}, nil
	}
}

func setupLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{}
	switch level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
