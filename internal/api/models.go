package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token
// refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateNoteRequest defines the payload for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title"   validate:"max=500"`
	Content string `json:"content"`
}

// NoteResponse represents the response data for a note.
type NoteResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftEditRequest defines the payload for pushing a draft edit.
type DraftEditRequest struct {
	Content string `json:"content"`
}

// DraftStateResponse represents the draft session's current state.
type DraftStateResponse struct {
	NoteID      string     `json:"note_id"`
	Content     string     `json:"content"`
	Dirty       bool       `json:"dirty"`
	Saving      bool       `json:"saving"`
	LastSavedAt *time.Time `json:"last_saved_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// CardResponse represents the response data for a card.
type CardResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NoteID    string    `json:"note_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitAnswerRequest represents the request body for submitting a card
// review answer.
type SubmitAnswerRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=correct wrong"`
}

// PostponeRequest represents the request body for postponing a card.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1"`
}

// ReviewStatsResponse represents the response data for review statistics.
type ReviewStatsResponse struct {
	UserID         string    `json:"user_id"`
	CardID         string    `json:"card_id"`
	EaseFactor     float64   `json:"ease_factor"`
	IntervalDays   int       `json:"interval_days"`
	Repetitions    int       `json:"repetitions"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	NextReviewAt   time.Time `json:"next_review_at"`
	TotalReviews   int       `json:"total_reviews"`
	CorrectReviews int       `json:"correct_reviews"`
	RetentionRate  float64   `json:"retention_rate"`
}
