package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Note-specific validation errors
var (
	// ErrNoteIDEmpty is returned when a note ID is empty or nil.
	ErrNoteIDEmpty = errors.New("note ID cannot be empty")

	// ErrNoteUserIDEmpty is returned when a note's user ID is empty or nil.
	ErrNoteUserIDEmpty = errors.New("note user ID cannot be empty")

	// ErrNoteTitleTooLong is returned when a note's title exceeds the maximum length.
	ErrNoteTitleTooLong = errors.New("note title cannot exceed 500 characters")
)

// maxNoteTitleLength bounds titles so they stay indexable.
const maxNoteTitleLength = 500

// Note represents a single rich-text note owned by a user. Content is the
// serialized editor document; this layer treats it as opaque text and only
// decides when it is persisted, never what it means.
type Note struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNote creates a new Note with the given owner, title, and content.
// It generates a new UUID for the note ID and sets the timestamps.
// Returns an error if validation fails.
func NewNote(userID uuid.UUID, title, content string) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
// An empty title and empty content are both allowed; an untitled blank
// note is the normal state right after creation in the editor.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNoteIDEmpty
	}

	if n.UserID == uuid.Nil {
		return ErrNoteUserIDEmpty
	}

	if len(n.Title) > maxNoteTitleLength {
		return ErrNoteTitleTooLong
	}

	return nil
}
