package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/domain/srs"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/store"
)

// Verify interface compliance at compile time
var _ CardReviewService = (*cardReviewServiceImpl)(nil)

// txRunner executes fn inside a transaction. Extracted so tests can run
// the workflow without a live database.
type txRunner func(ctx context.Context, fn func(tx *sql.Tx) error) error

// cardReviewServiceImpl implements the CardReviewService interface.
type cardReviewServiceImpl struct {
	cardStore  store.CardStore
	statsStore store.ReviewStatsStore
	scheduler  srs.Service
	runTx      txRunner
	nowFunc    func() time.Time // Injectable for testing
	logger     *slog.Logger
}

// NewCardReviewService creates a new CardReviewService implementation.
// The db handle is used to open transactions for answer submission.
func NewCardReviewService(
	db *sql.DB,
	cardStore store.CardStore,
	statsStore store.ReviewStatsStore,
	scheduler srs.Service,
	logger *slog.Logger,
) CardReviewService {
	if db == nil {
		panic("db cannot be nil")
	}
	return newCardReviewService(
		func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return store.RunInTransaction(ctx, db, fn)
		},
		cardStore,
		statsStore,
		scheduler,
		logger,
	)
}

func newCardReviewService(
	runTx txRunner,
	cardStore store.CardStore,
	statsStore store.ReviewStatsStore,
	scheduler srs.Service,
	logger *slog.Logger,
) *cardReviewServiceImpl {
	if cardStore == nil {
		panic("cardStore cannot be nil")
	}
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cardReviewServiceImpl{
		cardStore:  cardStore,
		statsStore: statsStore,
		scheduler:  scheduler,
		runTx:      runTx,
		nowFunc:    func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "card_review_service")),
	}
}

// GetNextCard implements CardReviewService.GetNextCard.
func (s *cardReviewServiceImpl) GetNextCard(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cardStore.GetNextDue(ctx, userID, s.nowFunc())
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Debug("no cards due for review", slog.String("user_id", userID.String()))
			return nil, ErrNoCardsDue
		}

		log.Error("failed to get next review card",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get next review card: %w", err)
	}

	log.Debug("retrieved next review card",
		slog.String("user_id", userID.String()),
		slog.String("card_id", card.ID.String()))
	return card, nil
}

// SubmitAnswer implements CardReviewService.SubmitAnswer.
func (s *cardReviewServiceImpl) SubmitAnswer(
	ctx context.Context,
	userID uuid.UUID,
	cardID uuid.UUID,
	answer ReviewAnswer,
) (*domain.ReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing review answer",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("outcome", string(answer.Outcome)))

	if !domain.IsValidReviewOutcome(answer.Outcome) {
		log.Warn("invalid review outcome",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("outcome", string(answer.Outcome)))
		return nil, ErrInvalidAnswer
	}

	now := s.nowFunc()

	var updatedStats *domain.ReviewStats
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		cardStore := s.cardStore.WithTx(tx)
		statsStore := s.statsStore.WithTx(tx)

		card, err := s.loadOwnedCard(ctx, cardStore, userID, cardID)
		if err != nil {
			return err
		}

		// Lock the stats row for the duration of the transaction so two
		// concurrent submissions for the same card serialize.
		firstReview := false
		stats, err := statsStore.GetForUpdate(ctx, userID, card.ID)
		if err != nil {
			if !errors.Is(err, store.ErrReviewStatsNotFound) {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			firstReview = true
			stats, err = domain.NewReviewStats(userID, card.ID, now)
			if err != nil {
				return fmt.Errorf("failed to create new stats: %w", err)
			}
		}

		newStats, err := s.scheduler.CalculateNextReview(stats, answer.Outcome, now)
		if err != nil {
			return fmt.Errorf("failed to calculate next review: %w", err)
		}

		// The scheduler leaves the counters untouched; the workflow owns them.
		newStats.TotalReviews++
		if answer.Outcome == domain.ReviewOutcomeCorrect {
			newStats.CorrectReviews++
		}

		if firstReview {
			if err := statsStore.Create(ctx, newStats); err != nil {
				return fmt.Errorf("failed to create stats: %w", err)
			}
		} else {
			if err := statsStore.Update(ctx, newStats); err != nil {
				return fmt.Errorf("failed to update stats: %w", err)
			}
		}

		updatedStats = newStats
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrCardNotOwned) {
			return nil, err
		}

		log.Error("failed to submit answer",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to submit answer: %w", err)
	}

	log.Debug("processed review answer",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("outcome", string(answer.Outcome)),
		slog.Float64("ease_factor", updatedStats.EaseFactor),
		slog.Int("interval_days", updatedStats.IntervalDays),
		slog.Time("next_review_at", updatedStats.NextReviewAt))

	return updatedStats, nil
}

// Postpone implements CardReviewService.Postpone.
func (s *cardReviewServiceImpl) Postpone(
	ctx context.Context,
	userID uuid.UUID,
	cardID uuid.UUID,
	days int,
) (*domain.ReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.nowFunc()

	var updatedStats *domain.ReviewStats
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		cardStore := s.cardStore.WithTx(tx)
		statsStore := s.statsStore.WithTx(tx)

		card, err := s.loadOwnedCard(ctx, cardStore, userID, cardID)
		if err != nil {
			return err
		}

		stats, err := statsStore.GetForUpdate(ctx, userID, card.ID)
		if err != nil {
			if errors.Is(err, store.ErrReviewStatsNotFound) {
				return ErrStatsNotFound
			}
			return fmt.Errorf("failed to get stats: %w", err)
		}

		newStats, err := s.scheduler.PostponeReview(stats, days, now)
		if err != nil {
			if errors.Is(err, srs.ErrInvalidDays) {
				return ErrInvalidAnswer
			}
			return fmt.Errorf("failed to postpone review: %w", err)
		}

		if err := statsStore.Update(ctx, newStats); err != nil {
			return fmt.Errorf("failed to update stats: %w", err)
		}

		updatedStats = newStats
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrCardNotFound) ||
			errors.Is(err, ErrCardNotOwned) ||
			errors.Is(err, ErrStatsNotFound) ||
			errors.Is(err, ErrInvalidAnswer) {
			return nil, err
		}

		log.Error("failed to postpone review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to postpone review: %w", err)
	}

	log.Debug("postponed review",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("days", days),
		slog.Time("next_review_at", updatedStats.NextReviewAt))

	return updatedStats, nil
}

// loadOwnedCard fetches a card and verifies the user owns it.
func (s *cardReviewServiceImpl) loadOwnedCard(
	ctx context.Context,
	cardStore store.CardStore,
	userID, cardID uuid.UUID,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := cardStore.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Warn("card not found for review",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	if card.UserID != userID {
		log.Warn("user does not own card",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()),
			slog.String("owner_id", card.UserID.String()))
		return nil, ErrCardNotOwned
	}

	return card, nil
}
