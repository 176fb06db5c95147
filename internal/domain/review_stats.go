package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome represents the result of a card review. Grading is binary:
// the user either recalled the card or did not.
type ReviewOutcome string

// Possible review outcome values
const (
	ReviewOutcomeCorrect ReviewOutcome = "correct"
	ReviewOutcomeWrong   ReviewOutcome = "wrong"
)

// Common validation errors for ReviewStats
var (
	ErrEmptyStatsUserID     = errors.New("review stats user ID cannot be empty")
	ErrEmptyStatsCardID     = errors.New("review stats card ID cannot be empty")
	ErrInvalidInterval      = errors.New("interval must be at least 1 day")
	ErrInvalidEaseFactor    = errors.New("ease factor must be between 1.3 and 2.5")
	ErrInvalidRepetitions   = errors.New("repetitions cannot be negative")
	ErrInvalidReviewCounts  = errors.New("correct reviews cannot exceed total reviews")
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")
)

// Default scheduling values for newly linked cards.
const (
	DefaultEaseFactor   = 2.5
	DefaultIntervalDays = 1
	MinEaseFactor       = 1.3
	MaxEaseFactor       = 2.5
)

// ReviewStats tracks a user's spaced repetition state for a specific card.
// It is mutated only by the srs scheduler's outcome application; the
// TotalReviews/CorrectReviews counters are maintained by the review
// service when it persists a result, never by the scheduler itself.
type ReviewStats struct {
	UserID         uuid.UUID `json:"user_id"`
	CardID         uuid.UUID `json:"card_id"`
	EaseFactor     float64   `json:"ease_factor"`     // Interval growth rate, clamped to [1.3, 2.5]
	IntervalDays   int       `json:"interval_days"`   // Days until the next scheduled review, >= 1
	Repetitions    int       `json:"repetitions"`     // Consecutive correct answers since the last lapse
	LastReviewedAt time.Time `json:"last_reviewed_at"` // Zero when the card has never been reviewed
	NextReviewAt   time.Time `json:"next_review_at"`
	TotalReviews   int       `json:"total_reviews"`
	CorrectReviews int       `json:"correct_reviews"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewReviewStats creates review statistics for a user and card with
// default values. New cards are due immediately.
func NewReviewStats(userID, cardID uuid.UUID, now time.Time) (*ReviewStats, error) {
	stats := &ReviewStats{
		UserID:         userID,
		CardID:         cardID,
		EaseFactor:     DefaultEaseFactor,
		IntervalDays:   DefaultIntervalDays,
		Repetitions:    0,
		LastReviewedAt: time.Time{},
		NextReviewAt:   now,
		TotalReviews:   0,
		CorrectReviews: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := stats.Validate(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Validate checks if the ReviewStats has valid data.
// Returns an error if any field fails validation.
func (s *ReviewStats) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStatsUserID
	}

	if s.CardID == uuid.Nil {
		return ErrEmptyStatsCardID
	}

	if s.IntervalDays < 1 {
		return ErrInvalidInterval
	}

	if s.EaseFactor < MinEaseFactor || s.EaseFactor > MaxEaseFactor {
		return ErrInvalidEaseFactor
	}

	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	if s.TotalReviews < 0 || s.CorrectReviews < 0 || s.CorrectReviews > s.TotalReviews {
		return ErrInvalidReviewCounts
	}

	return nil
}

// IsDue reports whether the card is due for review at the given time.
// A card whose next review time equals now exactly is due.
func (s *ReviewStats) IsDue(now time.Time) bool {
	return !now.Before(s.NextReviewAt)
}

// IsNew reports whether the card has never been reviewed.
func (s *ReviewStats) IsNew() bool {
	return s.TotalReviews == 0
}

// RetentionRate returns the percentage of reviews answered correctly,
// or 0 for a card that has never been reviewed.
func (s *ReviewStats) RetentionRate() float64 {
	if s.TotalReviews == 0 {
		return 0
	}
	return 100 * float64(s.CorrectReviews) / float64(s.TotalReviews)
}

// IsValidReviewOutcome checks if the given outcome is one of the two
// supported grades.
func IsValidReviewOutcome(outcome ReviewOutcome) bool {
	switch outcome {
	case ReviewOutcomeCorrect, ReviewOutcomeWrong:
		return true
	default:
		return false
	}
}
