package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewNote(t *testing.T) {
	userID := uuid.New()

	note, err := NewNote(userID, "Reading list", "- The Go Programming Language")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if note.ID == uuid.Nil {
		t.Error("Expected a generated note ID")
	}
	if note.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, note.UserID)
	}
	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestNewNoteAllowsEmptyTitleAndContent(t *testing.T) {
	// A freshly created note in the editor starts blank
	note, err := NewNote(uuid.New(), "", "")
	if err != nil {
		t.Fatalf("Expected blank note to be valid, got %v", err)
	}
	if err := note.Validate(); err != nil {
		t.Errorf("Expected blank note to validate, got %v", err)
	}
}

func TestNoteValidate(t *testing.T) {
	note, err := NewNote(uuid.New(), "Title", "content")
	if err != nil {
		t.Fatalf("Failed to create note: %v", err)
	}

	note.UserID = uuid.Nil
	if err := note.Validate(); err != ErrNoteUserIDEmpty {
		t.Errorf("Expected ErrNoteUserIDEmpty, got %v", err)
	}

	note.UserID = uuid.New()
	note.ID = uuid.Nil
	if err := note.Validate(); err != ErrNoteIDEmpty {
		t.Errorf("Expected ErrNoteIDEmpty, got %v", err)
	}

	note.ID = uuid.New()
	note.Title = strings.Repeat("a", maxNoteTitleLength+1)
	if err := note.Validate(); err != ErrNoteTitleTooLong {
		t.Errorf("Expected ErrNoteTitleTooLong, got %v", err)
	}
}

func TestNewCard(t *testing.T) {
	userID := uuid.New()
	noteID := uuid.New()

	card, err := NewCard(userID, noteID, "What is a goroutine?", "A lightweight thread managed by the Go runtime.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.UserID != userID || card.NoteID != noteID {
		t.Error("Expected owner and note references to be preserved")
	}
}

func TestCardValidate(t *testing.T) {
	testCases := []struct {
		name     string
		front    string
		back     string
		expected error
	}{
		{name: "empty front", front: "", back: "back", expected: ErrCardFrontEmpty},
		{name: "empty back", front: "front", back: "", expected: ErrCardBackEmpty},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCard(uuid.New(), uuid.New(), tc.front, tc.back)
			if err != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
		})
	}

	if _, err := NewCard(uuid.Nil, uuid.New(), "f", "b"); err != ErrCardUserIDEmpty {
		t.Errorf("Expected ErrCardUserIDEmpty, got %v", err)
	}
	if _, err := NewCard(uuid.New(), uuid.Nil, "f", "b"); err != ErrCardNoteIDEmpty {
		t.Errorf("Expected ErrCardNoteIDEmpty, got %v", err)
	}
}
