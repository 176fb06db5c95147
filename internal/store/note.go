package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// NoteStore defines the interface for note data persistence.
type NoteStore interface {
	// Create saves a new note. It handles domain validation internally.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// ListByUser retrieves a user's notes ordered by most recently updated.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error)

	// UpdateContent replaces a note's title and content. This is the
	// persistence target of the autosave coordinator.
	// Returns ErrNoteNotFound if the note does not exist.
	UpdateContent(ctx context.Context, id uuid.UUID, title, content string) error

	// Delete removes a note and, via cascade, its cards and their stats.
	// Returns ErrNoteNotFound if the note does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CardStore defines the interface for notecard data persistence.
type CardStore interface {
	// Create saves a new card. It handles domain validation internally.
	// Returns ErrInvalidEntity if the owning user or note does not exist.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetNextDue retrieves the user's card with the earliest next review
	// time at or before now, joined through its review stats. The caller
	// supplies now so all due checks share one time source.
	// Returns ErrCardNotFound if no cards are due.
	GetNextDue(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Card, error)

	// ListByNote retrieves all cards linked to a note.
	ListByNote(ctx context.Context, noteID uuid.UUID) ([]*domain.Card, error)

	// Delete removes a card and, via cascade, its stats.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}
