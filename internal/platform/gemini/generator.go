// Package gemini implements the generation.Generator boundary using
// Google's Gemini API.
package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/noteleaf/noteleaf-api/internal/config"
	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/generation"
)

//go:embed prompt.tmpl
var promptTemplateText string

// Retry policy for transient API failures.
const (
	maxRetries       = 3
	baseRetryDelay   = 2 * time.Second
	responseMIMEType = "application/json"
)

// promptData is the template input for prompt rendering.
type promptData struct {
	NoteText string
}

// responseSchema mirrors the JSON structure the model is instructed to
// return.
type responseSchema struct {
	Cards []cardSchema `json:"cards"`
}

type cardSchema struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// modelCaller sends one prompt to the model and returns the raw response
// text. Extracted so tests can run the generator without network access.
type modelCaller func(ctx context.Context, prompt string) (string, error)

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger         *slog.Logger
	promptTemplate *template.Template
	callModel      modelCaller
	model          string
}

// Ensure Generator implements the generation boundary
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed card generator.
func NewGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.GenerationConfig,
) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	g, err := newGenerator(logger, cfg.ModelName, nil)
	if err != nil {
		return nil, err
	}
	g.callModel = func(ctx context.Context, prompt string) (string, error) {
		return callGemini(ctx, client, g.model, prompt)
	}
	return g, nil
}

// newGenerator wires everything except the API client. Tests supply their
// own modelCaller.
func newGenerator(logger *slog.Logger, model string, call modelCaller) (*Generator, error) {
	tmpl, err := template.New("notecards").Parse(promptTemplateText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		promptTemplate: tmpl,
		callModel:      call,
		model:          model,
	}, nil
}

// callGemini performs one real API round trip.
func callGemini(
	ctx context.Context,
	client *genai.Client,
	model, prompt string,
) (string, error) {
	resp, err := client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: responseMIMEType},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	return resp.Text(), nil
}

// GenerateCards implements generation.Generator.
func (g *Generator) GenerateCards(
	ctx context.Context,
	noteText string,
	userID, noteID uuid.UUID,
) ([]*domain.Card, error) {
	prompt, err := g.createPrompt(noteText)
	if err != nil {
		return nil, err
	}

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response, userID, noteID)
}

// createPrompt renders the prompt template with the note text.
func (g *Generator) createPrompt(noteText string) (string, error) {
	if noteText == "" {
		return "", generation.ErrEmptyNoteText
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{NoteText: noteText}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry calls the model with exponential backoff on transient
// failures. Permanent errors (blocked content, malformed responses) are
// returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		g.logger.DebugContext(ctx, "calling model",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
			slog.String("model", g.model))

		text, err := g.callModel(ctx, prompt)
		if err == nil {
			var parsed responseSchema
			if jsonErr := json.Unmarshal([]byte(text), &parsed); jsonErr != nil {
				return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
					generation.ErrInvalidResponse, jsonErr)
			}
			return &parsed, nil
		}

		if errors.Is(err, generation.ErrContentBlocked) ||
			errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		lastErr = err
		g.logger.Warn("model call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if attempt == maxRetries {
			break
		}

		// Exponential backoff with jitter: base * 2^attempt * [0.5, 1.0)
		backoff := float64(baseRetryDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: exceeded %d attempts: %v",
		generation.ErrTransientFailure, maxRetries+1, lastErr)
}

// parseResponse converts the model's response into domain cards. A single
// malformed card rejects the whole batch; partial drafts are worse than a
// clean retry.
func (g *Generator) parseResponse(
	ctx context.Context,
	response *responseSchema,
	userID, noteID uuid.UUID,
) ([]*domain.Card, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: response is nil", generation.ErrInvalidResponse)
	}
	if len(response.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	cards := make([]*domain.Card, 0, len(response.Cards))
	for i, schema := range response.Cards {
		if schema.Front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side",
				generation.ErrInvalidResponse, i)
		}
		if schema.Back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side",
				generation.ErrInvalidResponse, i)
		}

		card, err := domain.NewCard(userID, noteID, schema.Front, schema.Back)
		if err != nil {
			return nil, fmt.Errorf("failed to create card: %w", err)
		}
		cards = append(cards, card)
	}

	g.logger.InfoContext(ctx, "drafted cards from note",
		slog.Int("card_count", len(cards)),
		slog.String("note_id", noteID.String()))

	return cards, nil
}
