// Package main is the entry point for the noteleaf API server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/noteleaf/noteleaf-api/internal/config"
	"github.com/noteleaf/noteleaf-api/internal/domain/srs"
	"github.com/noteleaf/noteleaf-api/internal/generation"
	"github.com/noteleaf/noteleaf-api/internal/platform/gemini"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/platform/postgres"
	"github.com/noteleaf/noteleaf-api/internal/service/auth"
	"github.com/noteleaf/noteleaf-api/internal/service/editor"
	"github.com/noteleaf/noteleaf-api/internal/service/review"
	"github.com/noteleaf/noteleaf-api/internal/store"
)

const shutdownTimeout = 10 * time.Second

// application holds the shared dependencies of the HTTP server. Handlers
// and the router are constructed from it.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore  store.UserStore
	noteStore  store.NoteStore
	cardStore  store.CardStore
	statsStore store.ReviewStatsStore

	jwtService        auth.JWTService
	passwordVerifier  *auth.BcryptVerifier
	cardReviewService review.CardReviewService
	draftManager      *editor.DraftManager

	// generator is nil when no Gemini API key is configured.
	generator generation.Generator
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	app, err := newApplication(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.db.Close(); closeErr != nil {
			log.Error("failed to close database", slog.String("error", closeErr.Error()))
		}
	}()

	return app.serve()
}

// newApplication connects to the database, applies migrations, and wires
// the service graph.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrations(db, log); err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, log)
	noteStore := postgres.NewPostgresNoteStore(db, log)
	cardStore := postgres.NewPostgresCardStore(db, log)
	statsStore := postgres.NewPostgresReviewStatsStore(db, log)

	app := &application{
		config:           cfg,
		logger:           log,
		db:               db,
		userStore:        userStore,
		noteStore:        noteStore,
		cardStore:        cardStore,
		statsStore:       statsStore,
		jwtService:       jwtService,
		passwordVerifier: auth.NewBcryptVerifier(),
		cardReviewService: review.NewCardReviewService(
			db, cardStore, statsStore, newScheduler(cfg.SRS), log),
		draftManager: editor.NewDraftManager(noteStore, cfg.Autosave, log),
	}

	if cfg.Generation.GeminiAPIKey == "" {
		log.Info("card generation disabled, no Gemini API key configured")
		return app, nil
	}

	generator, err := gemini.NewGenerator(context.Background(), log, cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to create card generator: %w", err)
	}
	app.generator = generator
	return app, nil
}

// newScheduler builds the review scheduler, applying any configured
// parameter overrides on top of the defaults.
func newScheduler(cfg config.SRSConfig) srs.Service {
	return srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:             cfg.MinEaseFactor,
		MaxEaseFactor:             cfg.MaxEaseFactor,
		CorrectEaseBonus:          cfg.CorrectEaseBonus,
		WrongEasePenalty:          cfg.WrongEasePenalty,
		FirstCorrectIntervalDays:  cfg.FirstCorrectIntervalDays,
		SecondCorrectIntervalDays: cfg.SecondCorrectIntervalDays,
		LapseIntervalDays:         cfg.LapseIntervalDays,
	}))
}

// serve runs the HTTP server until a shutdown signal arrives, then drains
// in-flight requests and flushes open note drafts.
func (app *application) serve() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Flush any dirty drafts before the process exits so edits made just
	// before shutdown are not lost.
	if err := app.draftManager.CloseAll(shutdownCtx); err != nil {
		app.logger.Error("failed to flush open drafts", slog.String("error", err.Error()))
	}

	app.logger.Info("server stopped")
	return nil
}
