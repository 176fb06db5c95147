// Package generation defines the boundary between the application core
// and the language model that drafts notecards from note text.
package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/domain"
)

// Generator defines the interface for generating notecards from text.
// Implementations live in the platform layer; the application core only
// depends on this boundary.
type Generator interface {
	// GenerateCards drafts notecards from the given note text. The
	// returned cards are bound to the note and user but not yet
	// persisted; the caller decides which drafts to keep.
	GenerateCards(
		ctx context.Context,
		noteText string,
		userID, noteID uuid.UUID,
	) ([]*domain.Card, error)
}
