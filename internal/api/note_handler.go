package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/api/shared"
	"github.com/noteleaf/noteleaf-api/internal/autosave"
	"github.com/noteleaf/noteleaf-api/internal/domain"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/service/editor"
	"github.com/noteleaf/noteleaf-api/internal/store"
)

// NoteHandler handles note CRUD and draft session HTTP requests.
type NoteHandler struct {
	noteStore store.NoteStore
	drafts    *editor.DraftManager
	logger    *slog.Logger
}

// NewNoteHandler creates a new NoteHandler with the given dependencies.
func NewNoteHandler(
	noteStore store.NoteStore,
	drafts *editor.DraftManager,
	log *slog.Logger,
) *NoteHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NoteHandler{
		noteStore: noteStore,
		drafts:    drafts,
		logger:    log.With(slog.String("component", "note_handler")),
	}
}

// CreateNote handles POST /notes requests.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			SanitizeValidationError(err), err)
		return
	}

	note, err := domain.NewNote(userID, req.Title, req.Content)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid note data", err)
		return
	}

	if err := h.noteStore.Create(r.Context(), note); err != nil {
		log.Error("failed to create note", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, noteToResponse(note))
}

// ListNotes handles GET /notes requests with optional limit/offset
// query parameters.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := parseQueryInt(r, "limit", 50)
	offset := parseQueryInt(r, "offset", 0)

	notes, err := h.noteStore.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list notes", err)
		return
	}

	responses := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, noteToResponse(note))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetNote handles GET /notes/{id} requests.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	note, ok := h.loadOwnedNote(w, r, userID)
	if !ok {
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// DeleteNote handles DELETE /notes/{id} requests. Cards linked to the
// note and their stats go with it.
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	note, ok := h.loadOwnedNote(w, r, userID)
	if !ok {
		return
	}

	if err := h.noteStore.Delete(r.Context(), note.ID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// OpenDraft handles POST /notes/{id}/draft requests. It starts (or
// returns) the autosaving draft session for the note.
func (h *NoteHandler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	session, err := h.drafts.Open(r.Context(), userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, draftToResponse(noteID, session.State()))
}

// EditDraft handles PUT /notes/{id}/draft requests. The edit is
// acknowledged immediately; the save happens after the debounce window.
func (h *NoteHandler) EditDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	var req DraftEditRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	session, err := h.drafts.Get(userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	session.Edit(req.Content)
	shared.RespondWithJSON(w, r, http.StatusAccepted, draftToResponse(noteID, session.State()))
}

// GetDraft handles GET /notes/{id}/draft requests.
func (h *NoteHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	session, err := h.drafts.Get(userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, draftToResponse(noteID, session.State()))
}

// SaveDraft handles POST /notes/{id}/draft/save requests, committing the
// draft ahead of any pending autosave timer.
func (h *NoteHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	session, err := h.drafts.Get(userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	if err := session.Flush(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to save draft", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, draftToResponse(noteID, session.State()))
}

// ReloadDraft handles POST /notes/{id}/draft/reload requests, discarding
// local edits and rebasing the draft on the persisted note.
func (h *NoteHandler) ReloadDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	if err := h.drafts.Reload(r.Context(), userID, noteID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	session, err := h.drafts.Get(userID, noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, draftToResponse(noteID, session.State()))
}

// CloseDraft handles DELETE /notes/{id}/draft requests. The draft is
// flushed before the session is torn down.
func (h *NoteHandler) CloseDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(w, r)
	if !ok {
		return
	}

	if err := h.drafts.Close(r.Context(), userID, noteID); err != nil {
		if errors.Is(err, editor.ErrSessionNotFound) || errors.Is(err, editor.ErrNoteNotOwned) {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
				GetSafeErrorMessage(err), err)
			return
		}
		// The session is gone either way; surface the failed final flush.
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to save draft before closing", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadOwnedNote fetches the note from the URL and verifies ownership.
// On failure it writes the error response and returns ok=false.
func (h *NoteHandler) loadOwnedNote(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
) (*domain.Note, bool) {
	noteID, ok := parseNoteID(w, r)
	if !ok {
		return nil, false
	}

	note, err := h.noteStore.GetByID(r.Context(), noteID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err),
			GetSafeErrorMessage(err), err)
		return nil, false
	}

	if note.UserID != userID {
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not own this note")
		return nil, false
	}

	return note, true
}

// requireUserID extracts the authenticated user ID from the context. On
// failure it writes a 401 and returns ok=false.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// parseNoteID extracts and parses the {id} URL parameter. On failure it
// writes a 400 and returns ok=false.
func parseNoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Note ID is required")
		return uuid.Nil, false
	}
	noteID, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid note ID format")
		return uuid.Nil, false
	}
	return noteID, true
}

// parseQueryInt reads an integer query parameter, falling back to def on
// absence or garbage.
func parseQueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// noteToResponse converts a domain.Note to a NoteResponse.
func noteToResponse(note *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID.String(),
		UserID:    note.UserID.String(),
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// draftToResponse converts an autosave snapshot to a DraftStateResponse.
func draftToResponse(noteID uuid.UUID, state autosave.State) DraftStateResponse {
	resp := DraftStateResponse{
		NoteID:  noteID.String(),
		Content: state.Value,
		Dirty:   state.Dirty,
		Saving:  state.Saving,
	}
	if !state.LastSavedAt.IsZero() {
		t := state.LastSavedAt
		resp.LastSavedAt = &t
	}
	if state.LastError != nil {
		resp.LastError = state.LastError.Error()
	}
	return resp
}
