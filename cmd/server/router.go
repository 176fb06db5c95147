package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/noteleaf/noteleaf-api/internal/api"
	apiMiddleware "github.com/noteleaf/noteleaf-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware, constructing handlers from the application's dependencies.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.passwordVerifier,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	noteHandler := api.NewNoteHandler(app.noteStore, app.draftManager, app.logger)
	cardHandler := api.NewCardHandler(app.cardReviewService, app.logger)
	generationHandler := api.NewGenerationHandler(
		app.db,
		app.noteStore,
		app.cardStore,
		app.statsStore,
		app.generator,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Note endpoints
			r.Post("/notes", noteHandler.CreateNote)
			r.Get("/notes", noteHandler.ListNotes)
			r.Get("/notes/{id}", noteHandler.GetNote)
			r.Delete("/notes/{id}", noteHandler.DeleteNote)

			// Draft editing endpoints
			r.Post("/notes/{id}/draft", noteHandler.OpenDraft)
			r.Get("/notes/{id}/draft", noteHandler.GetDraft)
			r.Put("/notes/{id}/draft", noteHandler.EditDraft)
			r.Post("/notes/{id}/draft/save", noteHandler.SaveDraft)
			r.Post("/notes/{id}/draft/reload", noteHandler.ReloadDraft)
			r.Delete("/notes/{id}/draft", noteHandler.CloseDraft)

			// Card endpoints
			r.Get("/notes/{id}/cards", generationHandler.ListCards)
			if app.generator != nil {
				r.Post("/notes/{id}/cards", generationHandler.GenerateCards)
			}

			// Card review endpoints
			r.Get("/cards/next", cardHandler.GetNextReviewCard)
			r.Post("/cards/{id}/answer", cardHandler.SubmitAnswer)
			r.Post("/cards/{id}/postpone", cardHandler.PostponeCard)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
