// Package review implements the flashcard review workflow: picking the
// next due card, grading answers, and persisting the updated schedule.
package review

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// ReviewAnswer represents a user's answer to a flashcard review.
type ReviewAnswer struct {
	Outcome domain.ReviewOutcome `json:"outcome"` // The outcome selected by the user
}

// CardReviewService provides methods for reviewing flashcards
// using a spaced repetition algorithm.
type CardReviewService interface {
	// GetNextCard retrieves the next card due for review for a user.
	// Returns ErrNoCardsDue if the user has nothing to review.
	// This method is a thin wrapper around the store layer and does not
	// modify any data.
	GetNextCard(ctx context.Context, userID uuid.UUID) (*domain.Card, error)

	// SubmitAnswer processes a user's answer for a flashcard and updates
	// the review schedule. Within a single transaction it verifies the
	// card exists and belongs to the user, applies the scheduling
	// algorithm to the card's stats (creating default stats for a card
	// reviewed for the first time), increments the review counters, and
	// persists the result.
	//
	// Returns ErrCardNotFound if the card does not exist, ErrCardNotOwned
	// if the user does not own it, and ErrInvalidAnswer if the outcome is
	// not a recognized grade.
	SubmitAnswer(
		ctx context.Context,
		userID uuid.UUID,
		cardID uuid.UUID,
		answer ReviewAnswer,
	) (*domain.ReviewStats, error)

	// Postpone pushes a card's next review time forward by the given
	// number of days without grading it.
	// Returns ErrCardNotFound, ErrCardNotOwned, or ErrStatsNotFound as
	// appropriate.
	Postpone(
		ctx context.Context,
		userID uuid.UUID,
		cardID uuid.UUID,
		days int,
	) (*domain.ReviewStats, error)
}

// Common error types for CardReviewService
var (
	// ErrNoCardsDue indicates that the user has no cards due for review.
	ErrNoCardsDue = errors.New("no cards due for review")

	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrStatsNotFound indicates that the card statistics do not exist.
	ErrStatsNotFound = errors.New("card stats not found")

	// ErrCardNotOwned indicates that the user does not own the card.
	ErrCardNotOwned = errors.New("unauthorized access: card not owned by user")

	// ErrInvalidAnswer indicates an invalid answer was provided.
	ErrInvalidAnswer = errors.New("invalid answer")
)
