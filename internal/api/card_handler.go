// Package api provides HTTP handlers for the API.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/api/shared"
	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/service/review"
)

// CardHandler handles card review HTTP requests.
type CardHandler struct {
	reviewService review.CardReviewService
	logger        *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(
	reviewService review.CardReviewService,
	log *slog.Logger,
) *CardHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CardHandler{
		reviewService: reviewService,
		logger:        log.With(slog.String("component", "card_handler")),
	}
}

// GetNextReviewCard handles GET /cards/next requests.
// It retrieves the next card due for review for the authenticated user.
// Responds 204 when nothing is due.
func (h *CardHandler) GetNextReviewCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	card, err := h.reviewService.GetNextCard(r.Context(), userID)
	if errors.Is(err, review.ErrNoCardsDue) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			"Failed to get next review card", err)
		return
	}

	log.Debug("retrieved next review card",
		slog.String("user_id", userID.String()),
		slog.String("card_id", card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// SubmitAnswer handles POST /cards/{id}/answer requests.
// It grades the user's answer and reschedules the card.
func (h *CardHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			SanitizeValidationError(err), err)
		return
	}

	stats, err := h.reviewService.SubmitAnswer(
		r.Context(),
		userID,
		cardID,
		review.ReviewAnswer{Outcome: domain.ReviewOutcome(req.Outcome)},
	)
	if err != nil {
		safeMessage := GetSafeErrorMessage(err)
		statusCode := MapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit answer"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("submitted answer",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("outcome", req.Outcome))
	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// PostponeCard handles POST /cards/{id}/postpone requests.
// It pushes the card's next review forward without grading it.
func (h *CardHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	var req PostponeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			SanitizeValidationError(err), err)
		return
	}

	stats, err := h.reviewService.Postpone(r.Context(), userID, cardID, req.Days)
	if err != nil {
		safeMessage := GetSafeErrorMessage(err)
		statusCode := MapErrorToStatusCode(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to postpone review"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// parseCardID extracts and parses the {id} URL parameter. On failure it
// writes a 400 and returns ok=false.
func parseCardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Card ID is required")
		return uuid.Nil, false
	}
	cardID, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return uuid.Nil, false
	}
	return cardID, true
}

// cardToResponse converts a domain.Card to a CardResponse.
func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:        card.ID.String(),
		UserID:    card.UserID.String(),
		NoteID:    card.NoteID.String(),
		Front:     card.Front,
		Back:      card.Back,
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}
}

// statsToResponse converts a domain.ReviewStats to a ReviewStatsResponse.
func statsToResponse(stats *domain.ReviewStats) ReviewStatsResponse {
	return ReviewStatsResponse{
		UserID:         stats.UserID.String(),
		CardID:         stats.CardID.String(),
		EaseFactor:     stats.EaseFactor,
		IntervalDays:   stats.IntervalDays,
		Repetitions:    stats.Repetitions,
		LastReviewedAt: stats.LastReviewedAt,
		NextReviewAt:   stats.NextReviewAt,
		TotalReviews:   stats.TotalReviews,
		CorrectReviews: stats.CorrectReviews,
		RetentionRate:  stats.RetentionRate(),
	}
}
