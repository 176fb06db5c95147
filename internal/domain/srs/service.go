// Package srs implements the spaced repetition scheduling algorithm that
// decides when a notecard is next due for review. The algorithm is a pure
// function family over domain.ReviewStats: no I/O, no shared mutable
// state, safe for any number of concurrent callers.
package srs

import (
	"errors"
	"time"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// Common errors
var (
	ErrNilStats       = errors.New("review stats cannot be nil")
	ErrInvalidOutcome = errors.New("invalid review outcome")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
)

// Service defines the interface for scheduling operations.
type Service interface {
	// CalculateNextReview computes new stats based on a review outcome.
	// The returned stats are a new value; the input is never modified.
	// The TotalReviews/CorrectReviews counters are NOT incremented here;
	// the caller increments them when persisting the result.
	CalculateNextReview(
		stats *domain.ReviewStats,
		outcome domain.ReviewOutcome,
		now time.Time,
	) (*domain.ReviewStats, error)

	// PostponeReview pushes the next review time forward by a number of
	// days without altering the rest of the schedule.
	PostponeReview(
		stats *domain.ReviewStats,
		days int,
		now time.Time,
	) (*domain.ReviewStats, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface.
func (s *defaultService) CalculateNextReview(
	stats *domain.ReviewStats,
	outcome domain.ReviewOutcome,
	now time.Time,
) (*domain.ReviewStats, error) {
	if stats == nil {
		return nil, ErrNilStats
	}

	if !domain.IsValidReviewOutcome(outcome) {
		return nil, ErrInvalidOutcome
	}

	return calculateNextStats(stats, outcome, now, s.params), nil
}

// PostponeReview implements the Service interface.
func (s *defaultService) PostponeReview(
	stats *domain.ReviewStats,
	days int,
	now time.Time,
) (*domain.ReviewStats, error) {
	if stats == nil {
		return nil, ErrNilStats
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	newStats := &domain.ReviewStats{
		UserID:         stats.UserID,
		CardID:         stats.CardID,
		EaseFactor:     stats.EaseFactor,
		IntervalDays:   stats.IntervalDays,
		Repetitions:    stats.Repetitions,
		LastReviewedAt: stats.LastReviewedAt,
		NextReviewAt:   stats.NextReviewAt.AddDate(0, 0, days),
		TotalReviews:   stats.TotalReviews,
		CorrectReviews: stats.CorrectReviews,
		CreatedAt:      stats.CreatedAt,
		UpdatedAt:      now,
	}

	return newStats, nil
}
