package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/collabsuite/marketplace_layer/internal/app"
	"github.com/collabsuite/marketplace_layer/internal/app/httpapi"
	"github.com/collabsuite/marketplace_layer/internal/app/metrics"
	"github.com/collabsuite/marketplace_layer/internal/app/services/applications"
	"github.com/collabsuite/marketplace_layer/internal/app/services/migration"
	"github.com/collabsuite/marketplace_layer/internal/app/storage/postgres"
	"github.com/collabsuite/marketplace_layer/internal/config"
	"github.com/collabsuite/marketplace_layer/internal/platform/migrations"
	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("marketplaced").WithError(err).Errorf("Failed to load configuration")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Errorf("Service exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = migrations.Apply(ctx, db.DB)
		cancel()
		if err != nil {
			return err
		}

		store := postgres.New(db)
		stores.Applications = store
		stores.Legacy = store
		log.Infof("Using PostgreSQL storage")
	} else {
		log.Warnf("No database DSN configured, using in-memory storage")
	}

	collab := app.Collaborators{}
	if cfg.Registrar.Endpoint != "" {
		registrar, err := applications.NewHTTPRegistrar(nil, cfg.Registrar.Endpoint, cfg.Registrar.APIKey, log)
		if err != nil {
			return err
		}
		collab.Registrar = registrar
	}

	opts := app.Options{MigrationSchedule: cfg.Migration.Schedule}
	policy := migration.DefaultPolicy()
	policy.ContinueOnError = cfg.Migration.ContinueOnError
	if cfg.Migration.PageSize > 0 {
		policy.PageSize = cfg.Migration.PageSize
	}
	if cfg.Migration.Replace != nil {
		policy.Replace = *cfg.Migration.Replace
	}
	opts.MigrationPolicy = &policy

	core, err := app.New(stores, collab, opts, log)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.Handle("/", metrics.InstrumentHandler(httpapi.NewHandler(core)))

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := core.Start(ctx); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Infof("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Infof("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warnf("HTTP server shutdown")
	}
	if err := core.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warnf("Service shutdown")
	}

	log.Infof("Shutdown complete")
	return nil
}
