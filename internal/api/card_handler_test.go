package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteleaf/noteleaf-api/internal/api/shared"
	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/service/review"
)

// mockReviewService delegates to configurable function fields.
type mockReviewService struct {
	getNextCard  func(ctx context.Context, userID uuid.UUID) (*domain.Card, error)
	submitAnswer func(ctx context.Context, userID, cardID uuid.UUID,
		answer review.ReviewAnswer) (*domain.ReviewStats, error)
	postpone func(ctx context.Context, userID, cardID uuid.UUID,
		days int) (*domain.ReviewStats, error)
}

func (m *mockReviewService) GetNextCard(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Card, error) {
	return m.getNextCard(ctx, userID)
}

func (m *mockReviewService) SubmitAnswer(
	ctx context.Context,
	userID, cardID uuid.UUID,
	answer review.ReviewAnswer,
) (*domain.ReviewStats, error) {
	return m.submitAnswer(ctx, userID, cardID, answer)
}

func (m *mockReviewService) Postpone(
	ctx context.Context,
	userID, cardID uuid.UUID,
	days int,
) (*domain.ReviewStats, error) {
	return m.postpone(ctx, userID, cardID, days)
}

// authedRequest builds a request carrying the authenticated user ID and,
// when cardID is non-nil, a chi route context with the {id} parameter.
func authedRequest(
	method, path string,
	userID uuid.UUID,
	cardID *uuid.UUID,
	body any,
) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)

	if cardID != nil {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", cardID.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return req.WithContext(ctx)
}

func testStats(userID, cardID uuid.UUID) *domain.ReviewStats {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.ReviewStats{
		UserID:         userID,
		CardID:         cardID,
		EaseFactor:     2.6,
		IntervalDays:   6,
		Repetitions:    2,
		LastReviewedAt: now,
		NextReviewAt:   now.AddDate(0, 0, 6),
		TotalReviews:   4,
		CorrectReviews: 3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestGetNextReviewCardReturnsCard(t *testing.T) {
	userID := uuid.New()
	card, err := domain.NewCard(userID, uuid.New(), "What is Go?", "A programming language")
	require.NoError(t, err)

	svc := &mockReviewService{
		getNextCard: func(ctx context.Context, gotUserID uuid.UUID) (*domain.Card, error) {
			assert.Equal(t, userID, gotUserID)
			return card, nil
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.GetNextReviewCard(rr, authedRequest(http.MethodGet, "/api/cards/next", userID, nil, nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp CardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, card.ID.String(), resp.ID)
	assert.Equal(t, "What is Go?", resp.Front)
	assert.Equal(t, "A programming language", resp.Back)
}

func TestGetNextReviewCardNoCardsDue(t *testing.T) {
	svc := &mockReviewService{
		getNextCard: func(ctx context.Context, userID uuid.UUID) (*domain.Card, error) {
			return nil, review.ErrNoCardsDue
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.GetNextReviewCard(rr, authedRequest(http.MethodGet, "/api/cards/next", uuid.New(), nil, nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestGetNextReviewCardRequiresUser(t *testing.T) {
	handler := NewCardHandler(&mockReviewService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cards/next", nil)
	rr := httptest.NewRecorder()
	handler.GetNextReviewCard(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSubmitAnswerReturnsUpdatedStats(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	svc := &mockReviewService{
		submitAnswer: func(ctx context.Context, gotUserID, gotCardID uuid.UUID,
			answer review.ReviewAnswer) (*domain.ReviewStats, error) {
			assert.Equal(t, userID, gotUserID)
			assert.Equal(t, cardID, gotCardID)
			assert.Equal(t, domain.ReviewOutcomeCorrect, answer.Outcome)
			return testStats(userID, cardID), nil
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.SubmitAnswer(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/answer",
		userID, &cardID, SubmitAnswerRequest{Outcome: "correct"}))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp ReviewStatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, cardID.String(), resp.CardID)
	assert.Equal(t, 6, resp.IntervalDays)
	assert.Equal(t, 4, resp.TotalReviews)
	assert.InDelta(t, 0.75, resp.RetentionRate, 1e-9)
}

func TestSubmitAnswerRejectsUnknownOutcome(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	handler := NewCardHandler(&mockReviewService{}, nil)

	rr := httptest.NewRecorder()
	handler.SubmitAnswer(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/answer",
		userID, &cardID, SubmitAnswerRequest{Outcome: "almost"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitAnswerCardNotOwned(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	svc := &mockReviewService{
		submitAnswer: func(ctx context.Context, userID, cardID uuid.UUID,
			answer review.ReviewAnswer) (*domain.ReviewStats, error) {
			return nil, review.ErrCardNotOwned
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.SubmitAnswer(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/answer",
		userID, &cardID, SubmitAnswerRequest{Outcome: "wrong"}))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSubmitAnswerCardNotFound(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	svc := &mockReviewService{
		submitAnswer: func(ctx context.Context, userID, cardID uuid.UUID,
			answer review.ReviewAnswer) (*domain.ReviewStats, error) {
			return nil, review.ErrCardNotFound
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.SubmitAnswer(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/answer",
		userID, &cardID, SubmitAnswerRequest{Outcome: "correct"}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitAnswerInvalidCardID(t *testing.T) {
	handler := NewCardHandler(&mockReviewService{}, nil)

	req := authedRequest(http.MethodPost, "/api/cards/not-a-uuid/answer",
		uuid.New(), nil, SubmitAnswerRequest{Outcome: "correct"})
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	handler.SubmitAnswer(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid card ID format")
}

func TestPostponeCardReturnsUpdatedStats(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	svc := &mockReviewService{
		postpone: func(ctx context.Context, gotUserID, gotCardID uuid.UUID,
			days int) (*domain.ReviewStats, error) {
			assert.Equal(t, userID, gotUserID)
			assert.Equal(t, cardID, gotCardID)
			assert.Equal(t, 3, days)
			return testStats(userID, cardID), nil
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.PostponeCard(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/postpone",
		userID, &cardID, PostponeRequest{Days: 3}))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp ReviewStatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, cardID.String(), resp.CardID)
}

func TestPostponeCardRejectsNonPositiveDays(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	handler := NewCardHandler(&mockReviewService{}, nil)

	rr := httptest.NewRecorder()
	handler.PostponeCard(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/postpone",
		userID, &cardID, PostponeRequest{Days: 0}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPostponeCardStatsNotFound(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	svc := &mockReviewService{
		postpone: func(ctx context.Context, userID, cardID uuid.UUID,
			days int) (*domain.ReviewStats, error) {
			return nil, review.ErrStatsNotFound
		},
	}
	handler := NewCardHandler(svc, nil)

	rr := httptest.NewRecorder()
	handler.PostponeCard(rr, authedRequest(
		http.MethodPost, "/api/cards/"+cardID.String()+"/postpone",
		userID, &cardID, PostponeRequest{Days: 2}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
