package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// ReviewStatsStore defines the interface for review statistics persistence.
type ReviewStatsStore interface {
	// Create saves a new review stats entry. It handles domain validation
	// internally. Returns ErrInvalidEntity if the user or card does not exist.
	Create(ctx context.Context, stats *domain.ReviewStats) error

	// Get retrieves review stats by the combination of user ID and card ID.
	// Returns ErrReviewStatsNotFound if the entry does not exist.
	// No row locking; do not use when you plan to update the row inside a
	// transaction that needs concurrency protection.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewStats, error)

	// GetForUpdate retrieves review stats with a row-level lock
	// (SELECT ... FOR UPDATE). Use inside a transaction when the row will
	// be updated. Returns ErrReviewStatsNotFound if the entry does not exist.
	GetForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewStats, error)

	// Update modifies an existing stats entry identified by its user and
	// card IDs. Returns ErrReviewStatsNotFound if the entry does not exist.
	Update(ctx context.Context, stats *domain.ReviewStats) error

	// WithTx returns a ReviewStatsStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ReviewStatsStore
}
