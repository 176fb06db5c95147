package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/noteleaf/noteleaf-api/internal/api/shared"
	"github.com/noteleaf/noteleaf-api/internal/generation"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/store"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// GenerationHandler handles card drafting from notes.
type GenerationHandler struct {
	db         *sql.DB
	noteStore  store.NoteStore
	cardStore  store.CardStore
	statsStore store.ReviewStatsStore
	generator  generation.Generator
	nowFunc    func() time.Time // Injectable for testing
	logger     *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(
	db *sql.DB,
	noteStore store.NoteStore,
	cardStore store.CardStore,
	statsStore store.ReviewStatsStore,
	generator generation.Generator,
	log *slog.Logger,
) *GenerationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &GenerationHandler{
		db:         db,
		noteStore:  noteStore,
		cardStore:  cardStore,
		statsStore: statsStore,
		generator:  generator,
		nowFunc:    func() time.Time { return time.Now().UTC() },
		logger:     log.With(slog.String("component", "generation_handler")),
	}
}

// GenerateCards handles POST /notes/{id}/cards requests. It drafts cards
// from the note's text with the language model and persists them, each
// with default review stats so they are due immediately.
func (h *GenerationHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	note, err := h.noteStore.GetByID(r.Context(), noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}
	if note.UserID != userID {
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not own this note")
		return
	}

	cards, err := h.generator.GenerateCards(r.Context(), note.Content, userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	now := h.nowFunc()
	err = store.RunInTransaction(r.Context(), h.db, func(tx *sql.Tx) error {
		cardStore := h.cardStore.WithTx(tx)
		statsStore := h.statsStore.WithTx(tx)

		for _, card := range cards {
			if err := cardStore.Create(r.Context(), card); err != nil {
				return fmt.Errorf("failed to create card: %w", err)
			}

			stats, err := domain.NewReviewStats(userID, card.ID, now)
			if err != nil {
				return fmt.Errorf("failed to create stats: %w", err)
			}
			if err := statsStore.Create(r.Context(), stats); err != nil {
				return fmt.Errorf("failed to create stats: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to save generated cards", err)
		return
	}

	log.Info("generated cards for note",
		slog.String("user_id", userID.String()),
		slog.String("note_id", noteID.String()),
		slog.Int("card_count", len(cards)))

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, responses)
}

// ListCards handles GET /notes/{id}/cards requests.
func (h *GenerationHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	note, err := h.noteStore.GetByID(r.Context(), noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}
	if note.UserID != userID {
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not own this note")
		return
	}

	cards, err := h.cardStore.ListByNote(r.Context(), noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list cards", err)
		return
	}

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, cardToResponse(card))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}
