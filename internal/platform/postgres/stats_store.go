package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/store"
)

// PostgresReviewStatsStore implements the store.ReviewStatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStatsStore creates a new PostgreSQL implementation of
// the ReviewStatsStore interface. The connection or transaction is
// initialized and managed by the caller. If logger is nil, a default
// logger is used.
func NewPostgresReviewStatsStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_stats_store")),
	}
}

// Ensure PostgresReviewStatsStore implements store.ReviewStatsStore interface
var _ store.ReviewStatsStore = (*PostgresReviewStatsStore)(nil)

// WithTx implements store.ReviewStatsStore.WithTx
func (s *PostgresReviewStatsStore) WithTx(tx *sql.Tx) store.ReviewStatsStore {
	return &PostgresReviewStatsStore{
		db:     tx,
		logger: s.logger,
	}
}

const statsColumns = `user_id, card_id, ease_factor, interval_days, repetitions,
	last_reviewed_at, next_review_at, total_reviews, correct_reviews,
	created_at, updated_at`

// Create implements store.ReviewStatsStore.Create
// Returns store.ErrInvalidEntity if the user or card does not exist.
func (s *PostgresReviewStatsStore) Create(ctx context.Context, stats *domain.ReviewStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stats.Validate(); err != nil {
		log.Warn("review stats validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", stats.CardID.String()))
		return err
	}

	query := `
		INSERT INTO review_stats (` + statsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		stats.UserID,
		stats.CardID,
		stats.EaseFactor,
		stats.IntervalDays,
		stats.Repetitions,
		nullableTime(stats.LastReviewedAt),
		stats.NextReviewAt,
		stats.TotalReviews,
		stats.CorrectReviews,
		stats.CreatedAt,
		stats.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: referenced user or card not found",
				store.ErrInvalidEntity)
		}
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}

		log.Error("failed to create review stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()),
			slog.String("card_id", stats.CardID.String()))
		return err
	}

	return nil
}

// Get implements store.ReviewStatsStore.Get
// Returns store.ErrReviewStatsNotFound if the entry does not exist.
func (s *PostgresReviewStatsStore) Get(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.ReviewStats, error) {
	query := `
		SELECT ` + statsColumns + `
		FROM review_stats
		WHERE user_id = $1 AND card_id = $2
	`
	return s.scanOne(ctx, query, userID, cardID)
}

// GetForUpdate implements store.ReviewStatsStore.GetForUpdate
// It takes a row-level lock; use inside a transaction when the row will
// be updated. Returns store.ErrReviewStatsNotFound if the entry does not exist.
func (s *PostgresReviewStatsStore) GetForUpdate(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.ReviewStats, error) {
	query := `
		SELECT ` + statsColumns + `
		FROM review_stats
		WHERE user_id = $1 AND card_id = $2
		FOR UPDATE
	`
	return s.scanOne(ctx, query, userID, cardID)
}

// Update implements store.ReviewStatsStore.Update
// Returns store.ErrReviewStatsNotFound if the entry does not exist.
func (s *PostgresReviewStatsStore) Update(ctx context.Context, stats *domain.ReviewStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stats.Validate(); err != nil {
		log.Warn("review stats validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", stats.CardID.String()))
		return err
	}

	query := `
		UPDATE review_stats
		SET ease_factor = $1, interval_days = $2, repetitions = $3,
			last_reviewed_at = $4, next_review_at = $5,
			total_reviews = $6, correct_reviews = $7, updated_at = $8
		WHERE user_id = $9 AND card_id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		stats.EaseFactor,
		stats.IntervalDays,
		stats.Repetitions,
		nullableTime(stats.LastReviewedAt),
		stats.NextReviewAt,
		stats.TotalReviews,
		stats.CorrectReviews,
		stats.UpdatedAt,
		stats.UserID,
		stats.CardID,
	)

	if err != nil {
		log.Error("failed to update review stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()),
			slog.String("card_id", stats.CardID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return store.ErrReviewStatsNotFound
	}

	log.Debug("review stats updated",
		slog.String("card_id", stats.CardID.String()),
		slog.Int("interval_days", stats.IntervalDays),
		slog.Float64("ease_factor", stats.EaseFactor))
	return nil
}

// scanOne runs a single-row stats query and maps the result.
func (s *PostgresReviewStatsStore) scanOne(
	ctx context.Context,
	query string,
	userID, cardID uuid.UUID,
) (*domain.ReviewStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var stats domain.ReviewStats
	var lastReviewed sql.NullTime

	err := s.db.QueryRowContext(ctx, query, userID, cardID).Scan(
		&stats.UserID,
		&stats.CardID,
		&stats.EaseFactor,
		&stats.IntervalDays,
		&stats.Repetitions,
		&lastReviewed,
		&stats.NextReviewAt,
		&stats.TotalReviews,
		&stats.CorrectReviews,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStatsNotFound
		}
		log.Error("failed to get review stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	if lastReviewed.Valid {
		stats.LastReviewedAt = lastReviewed.Time
	}

	return &stats, nil
}

// nullableTime maps the zero time (never reviewed) to SQL NULL.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
