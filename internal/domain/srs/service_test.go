package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

func TestCalculateNextReviewValidation(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Now().UTC()

	t.Run("nil stats", func(t *testing.T) {
		t.Parallel()
		result, err := svc.CalculateNextReview(nil, domain.ReviewOutcomeCorrect, now)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNilStats)
	})

	t.Run("invalid outcome", func(t *testing.T) {
		t.Parallel()
		stats, err := domain.NewReviewStats(uuid.New(), uuid.New(), now)
		require.NoError(t, err)

		result, err := svc.CalculateNextReview(stats, domain.ReviewOutcome("partial"), now)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInvalidOutcome)
	})

	t.Run("valid inputs produce valid stats", func(t *testing.T) {
		t.Parallel()
		stats, err := domain.NewReviewStats(uuid.New(), uuid.New(), now)
		require.NoError(t, err)

		result, err := svc.CalculateNextReview(stats, domain.ReviewOutcomeCorrect, now)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NoError(t, result.Validate())
		assert.NotSame(t, stats, result)
	})
}

func TestCalculateNextReviewLongRun(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Now().UTC()

	stats, err := domain.NewReviewStats(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	// A long streak of wrong answers must never push the stats outside
	// their invariants.
	for i := 0; i < 20; i++ {
		stats, err = svc.CalculateNextReview(stats, domain.ReviewOutcomeWrong, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.EaseFactor, 1.3)
		assert.Equal(t, 1, stats.IntervalDays)
		assert.Equal(t, 0, stats.Repetitions)
	}

	// And a long correct streak stays clamped at the ceiling while the
	// interval keeps growing.
	prevInterval := 0
	for i := 0; i < 10; i++ {
		stats, err = svc.CalculateNextReview(stats, domain.ReviewOutcomeCorrect, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, stats.EaseFactor, 2.5)
		assert.Greater(t, stats.IntervalDays, 0)
		if i >= 2 {
			assert.Greater(t, stats.IntervalDays, prevInterval)
		}
		prevInterval = stats.IntervalDays
	}
}

func TestPostponeReview(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	stats, err := domain.NewReviewStats(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	t.Run("pushes next review forward", func(t *testing.T) {
		t.Parallel()
		result, err := svc.PostponeReview(stats, 3, now)
		require.NoError(t, err)
		assert.Equal(t, stats.NextReviewAt.AddDate(0, 0, 3), result.NextReviewAt)
		assert.Equal(t, stats.IntervalDays, result.IntervalDays)
		assert.Equal(t, stats.EaseFactor, result.EaseFactor)
		assert.Equal(t, stats.Repetitions, result.Repetitions)
	})

	t.Run("rejects days below one", func(t *testing.T) {
		t.Parallel()
		result, err := svc.PostponeReview(stats, 0, now)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInvalidDays)
	})

	t.Run("rejects nil stats", func(t *testing.T) {
		t.Parallel()
		result, err := svc.PostponeReview(nil, 1, now)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrNilStats)
	})
}
