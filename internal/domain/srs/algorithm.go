package srs

import (
	"math"
	"time"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// calculateNewEaseFactor determines the new ease factor for a review outcome.
//
// A correct answer nudges the ease factor up by params.CorrectEaseBonus; a
// wrong answer drops it by params.WrongEasePenalty. The result is always
// clamped to [params.MinEaseFactor, params.MaxEaseFactor].
func calculateNewEaseFactor(
	currentEF float64,
	outcome domain.ReviewOutcome,
	params *Params,
) float64 {
	var newEF float64
	if outcome == domain.ReviewOutcomeCorrect {
		newEF = currentEF + params.CorrectEaseBonus
	} else {
		newEF = currentEF - params.WrongEasePenalty
	}

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the new interval in days.
//
// A wrong answer resets the interval to params.LapseIntervalDays. For
// correct answers the schedule is two-phase: the first two consecutive
// correct answers use fixed bootstrap intervals (1 day, then 6 days by
// default); from the third onwards the interval grows multiplicatively as
// round(currentInterval * currentEF), using the pre-review ease factor.
//
// newRepetitions is the consecutive-correct count AFTER the current answer
// has been applied (so the first correct answer arrives here as 1).
func calculateNewInterval(
	currentInterval int,
	newRepetitions int,
	currentEF float64,
	outcome domain.ReviewOutcome,
	params *Params,
) int {
	if outcome == domain.ReviewOutcomeWrong {
		return params.LapseIntervalDays
	}

	switch newRepetitions {
	case 1:
		return params.FirstCorrectIntervalDays
	case 2:
		return params.SecondCorrectIntervalDays
	default:
		return int(math.Round(float64(currentInterval) * currentEF))
	}
}

// calculateNextStats creates a new ReviewStats with updated scheduling
// fields based on the review outcome.
//
// The update is immutable: the input stats are never modified. The next
// review date is calendar-day addition of the new interval onto the
// caller-supplied now, so the scheduler and its caller always agree on
// what "now" means.
//
// TotalReviews and CorrectReviews are deliberately copied through
// unchanged: incrementing them is the persisting caller's responsibility,
// not the scheduler's.
func calculateNextStats(
	stats *domain.ReviewStats,
	outcome domain.ReviewOutcome,
	now time.Time,
	params *Params,
) *domain.ReviewStats {
	newStats := &domain.ReviewStats{
		UserID:         stats.UserID,
		CardID:         stats.CardID,
		EaseFactor:     stats.EaseFactor,
		IntervalDays:   stats.IntervalDays,
		Repetitions:    stats.Repetitions,
		LastReviewedAt: stats.LastReviewedAt,
		NextReviewAt:   stats.NextReviewAt,
		TotalReviews:   stats.TotalReviews,
		CorrectReviews: stats.CorrectReviews,
		CreatedAt:      stats.CreatedAt,
		UpdatedAt:      now,
	}

	if outcome == domain.ReviewOutcomeCorrect {
		newStats.Repetitions = stats.Repetitions + 1
	} else {
		newStats.Repetitions = 0
	}

	// Interval uses the pre-review ease factor; the ease factor update
	// below only affects subsequent reviews.
	newStats.IntervalDays = calculateNewInterval(
		stats.IntervalDays,
		newStats.Repetitions,
		stats.EaseFactor,
		outcome,
		params,
	)
	newStats.EaseFactor = calculateNewEaseFactor(stats.EaseFactor, outcome, params)

	newStats.LastReviewedAt = now
	newStats.NextReviewAt = now.AddDate(0, 0, newStats.IntervalDays)

	return newStats
}
