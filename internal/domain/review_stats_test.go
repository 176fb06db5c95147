package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewReviewStats(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	now := time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)

	stats, err := NewReviewStats(userID, cardID, now)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if stats.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, stats.UserID)
	}

	if stats.CardID != cardID {
		t.Errorf("Expected card ID %s, got %s", cardID, stats.CardID)
	}

	if stats.EaseFactor != 2.5 {
		t.Errorf("Expected ease factor 2.5, got %f", stats.EaseFactor)
	}

	if stats.IntervalDays != 1 {
		t.Errorf("Expected interval 1, got %d", stats.IntervalDays)
	}

	if stats.Repetitions != 0 {
		t.Errorf("Expected repetitions 0, got %d", stats.Repetitions)
	}

	if !stats.LastReviewedAt.IsZero() {
		t.Errorf("Expected zero LastReviewedAt, got %v", stats.LastReviewedAt)
	}

	// New cards are due immediately
	if !stats.NextReviewAt.Equal(now) {
		t.Errorf("Expected NextReviewAt %v, got %v", now, stats.NextReviewAt)
	}

	if stats.TotalReviews != 0 || stats.CorrectReviews != 0 {
		t.Errorf("Expected zero review counters, got %d/%d",
			stats.CorrectReviews, stats.TotalReviews)
	}
}

func TestNewReviewStatsValidation(t *testing.T) {
	now := time.Now().UTC()

	if _, err := NewReviewStats(uuid.Nil, uuid.New(), now); err != ErrEmptyStatsUserID {
		t.Errorf("Expected ErrEmptyStatsUserID, got %v", err)
	}

	if _, err := NewReviewStats(uuid.New(), uuid.Nil, now); err != ErrEmptyStatsCardID {
		t.Errorf("Expected ErrEmptyStatsCardID, got %v", err)
	}
}

func TestReviewStatsValidate(t *testing.T) {
	now := time.Now().UTC()

	valid := func() *ReviewStats {
		stats, err := NewReviewStats(uuid.New(), uuid.New(), now)
		if err != nil {
			t.Fatalf("Failed to create stats: %v", err)
		}
		return stats
	}

	testCases := []struct {
		name     string
		mutate   func(*ReviewStats)
		expected error
	}{
		{
			name:     "interval below one",
			mutate:   func(s *ReviewStats) { s.IntervalDays = 0 },
			expected: ErrInvalidInterval,
		},
		{
			name:     "ease factor below floor",
			mutate:   func(s *ReviewStats) { s.EaseFactor = 1.2 },
			expected: ErrInvalidEaseFactor,
		},
		{
			name:     "ease factor above ceiling",
			mutate:   func(s *ReviewStats) { s.EaseFactor = 2.6 },
			expected: ErrInvalidEaseFactor,
		},
		{
			name:     "negative repetitions",
			mutate:   func(s *ReviewStats) { s.Repetitions = -1 },
			expected: ErrInvalidRepetitions,
		},
		{
			name: "correct exceeding total",
			mutate: func(s *ReviewStats) {
				s.TotalReviews = 2
				s.CorrectReviews = 3
			},
			expected: ErrInvalidReviewCounts,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stats := valid()
			tc.mutate(stats)
			if err := stats.Validate(); err != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestReviewStatsIsDue(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name       string
		nextReview time.Time
		expected   bool
	}{
		{
			name:       "past review date is due",
			nextReview: now.Add(-time.Hour),
			expected:   true,
		},
		{
			name:       "exact tie counts as due",
			nextReview: now,
			expected:   true,
		},
		{
			name:       "future review date is not due",
			nextReview: now.Add(time.Second),
			expected:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stats := &ReviewStats{NextReviewAt: tc.nextReview}
			if got := stats.IsDue(now); got != tc.expected {
				t.Errorf("Expected IsDue=%v, got %v", tc.expected, got)
			}
		})
	}
}

func TestReviewStatsIsNew(t *testing.T) {
	stats := &ReviewStats{TotalReviews: 0}
	if !stats.IsNew() {
		t.Error("Expected card with zero reviews to be new")
	}

	stats.TotalReviews = 1
	if stats.IsNew() {
		t.Error("Expected card with reviews not to be new")
	}
}

func TestReviewStatsRetentionRate(t *testing.T) {
	testCases := []struct {
		name     string
		total    int
		correct  int
		expected float64
	}{
		{name: "never reviewed", total: 0, correct: 0, expected: 0},
		{name: "all correct", total: 4, correct: 4, expected: 100},
		{name: "three quarters", total: 4, correct: 3, expected: 75},
		{name: "none correct", total: 5, correct: 0, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stats := &ReviewStats{TotalReviews: tc.total, CorrectReviews: tc.correct}
			if got := stats.RetentionRate(); got != tc.expected {
				t.Errorf("Expected retention rate %f, got %f", tc.expected, got)
			}
		})
	}
}

func TestIsValidReviewOutcome(t *testing.T) {
	if !IsValidReviewOutcome(ReviewOutcomeCorrect) {
		t.Error("Expected correct to be valid")
	}
	if !IsValidReviewOutcome(ReviewOutcomeWrong) {
		t.Error("Expected wrong to be valid")
	}
	if IsValidReviewOutcome(ReviewOutcome("hard")) {
		t.Error("Expected partial-credit grades to be invalid")
	}
	if IsValidReviewOutcome(ReviewOutcome("")) {
		t.Error("Expected empty outcome to be invalid")
	}
}
