// Package editor manages draft sessions for note editing. Each open note
// gets an autosave coordinator that debounces edits into the note store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noteleaf/noteleaf-api/internal/autosave"
	"github.com/noteleaf/noteleaf-api/internal/config"
	"github.com/noteleaf/noteleaf-api/internal/platform/logger"
	"github.com/noteleaf/noteleaf-api/internal/store"
)

// Common editor service errors
var (
	// ErrNoteNotFound indicates the note does not exist.
	ErrNoteNotFound = errors.New("note not found")

	// ErrNoteNotOwned indicates the user does not own the note.
	ErrNoteNotOwned = errors.New("unauthorized access: note not owned by user")

	// ErrSessionNotFound indicates no draft session is open for the note.
	ErrSessionNotFound = errors.New("no draft session open for note")
)

// DraftSession is one open note buffer. Edits flow into the autosave
// coordinator, which debounces them into the note store. Sessions are
// safe for concurrent use.
type DraftSession struct {
	noteID uuid.UUID
	userID uuid.UUID
	coord  *autosave.Coordinator

	mu    sync.Mutex
	title string
}

// NoteID returns the note this session edits.
func (s *DraftSession) NoteID() uuid.UUID { return s.noteID }

// Edit replaces the draft content. The save is scheduled, not immediate;
// rapid successive edits collapse into one write.
func (s *DraftSession) Edit(content string) {
	s.coord.SetValue(content)
}

// Flush commits the draft now, ahead of any pending timer. Returns the
// persistence error, if any; failed edits are kept for retry.
func (s *DraftSession) Flush(ctx context.Context) error {
	return s.coord.Save(ctx)
}

// State returns the draft's current read model: content, dirtiness,
// whether a save is in flight, and the last save result.
func (s *DraftSession) State() autosave.State {
	return s.coord.Snapshot()
}

// reload discards local edits and rebases the draft on the given content.
// Any in-flight save result from before the reload is discarded on settle.
func (s *DraftSession) reload(title, content string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	s.coord.Reset(content)
}

func (s *DraftSession) currentTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// DraftManager tracks the open draft sessions, one per note. It owns the
// coordinators' lifecycles: sessions are created on open, flushed and
// torn down on close.
type DraftManager struct {
	notes  store.NoteStore
	delay  time.Duration
	onEdit bool
	opts   []autosave.Option
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*DraftSession
}

// NewDraftManager creates a draft manager. The autosave cadence comes from
// cfg; extra coordinator options (used by tests to control timing) are
// applied after the config-derived ones.
func NewDraftManager(
	notes store.NoteStore,
	cfg config.AutosaveConfig,
	log *slog.Logger,
	opts ...autosave.Option,
) *DraftManager {
	if notes == nil {
		panic("notes cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &DraftManager{
		notes:    notes,
		delay:    time.Duration(cfg.DebounceMilliseconds) * time.Millisecond,
		onEdit:   cfg.SaveOnChange,
		opts:     opts,
		logger:   log.With(slog.String("component", "draft_manager")),
		sessions: make(map[uuid.UUID]*DraftSession),
	}
}

// Open starts (or returns) the draft session for a note. The note is
// loaded so the draft starts from the persisted content, and ownership is
// verified before any session state is created.
func (m *DraftManager) Open(
	ctx context.Context,
	userID, noteID uuid.UUID,
) (*DraftSession, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	note, err := m.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to load note: %w", err)
	}

	if note.UserID != userID {
		log.Warn("user does not own note",
			slog.String("user_id", userID.String()),
			slog.String("note_id", noteID.String()),
			slog.String("owner_id", note.UserID.String()))
		return nil, ErrNoteNotOwned
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[noteID]; ok {
		if existing.userID != userID {
			return nil, ErrNoteNotOwned
		}
		return existing, nil
	}

	session := &DraftSession{
		noteID: noteID,
		userID: userID,
		title:  note.Title,
	}

	options := []autosave.Option{
		autosave.WithDebounce(m.delay),
		autosave.WithLogger(m.logger),
	}
	if m.onEdit {
		options = append(options, autosave.WithSaveOnChange())
	}
	options = append(options, m.opts...)

	// The persist target is fixed for the session's lifetime; a stale
	// save can never land on a different note.
	session.coord = autosave.New(note.Content, func(ctx context.Context, content string) error {
		return m.notes.UpdateContent(ctx, noteID, session.currentTitle(), content)
	}, options...)

	m.sessions[noteID] = session

	log.Debug("draft session opened",
		slog.String("user_id", userID.String()),
		slog.String("note_id", noteID.String()))
	return session, nil
}

// Get returns the open session for a note.
// Returns ErrSessionNotFound if the note has no open draft, and
// ErrNoteNotOwned if the session belongs to a different user.
func (m *DraftManager) Get(userID, noteID uuid.UUID) (*DraftSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[noteID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.userID != userID {
		return nil, ErrNoteNotOwned
	}
	return session, nil
}

// Reload discards the draft's local edits and rebases it on the note's
// persisted content. An in-flight save from before the reload cannot
// resurface the discarded edits.
func (m *DraftManager) Reload(ctx context.Context, userID, noteID uuid.UUID) error {
	session, err := m.Get(userID, noteID)
	if err != nil {
		return err
	}

	note, err := m.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to load note: %w", err)
	}

	session.reload(note.Title, note.Content)
	return nil
}

// Close flushes and tears down the draft session for a note. The flush
// error is returned but the session is removed regardless; a dead backend
// must not pin sessions open forever.
func (m *DraftManager) Close(ctx context.Context, userID, noteID uuid.UUID) error {
	session, err := m.Get(userID, noteID)
	if err != nil {
		return err
	}

	flushErr := session.Flush(ctx)
	session.coord.Close()

	m.mu.Lock()
	delete(m.sessions, noteID)
	m.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, m.logger)
	log.Debug("draft session closed",
		slog.String("note_id", noteID.String()),
		slog.Bool("flush_failed", flushErr != nil))

	return flushErr
}

// CloseAll flushes and tears down every open session. Used during server
// shutdown. The first flush error is returned; all sessions are torn down
// regardless.
func (m *DraftManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*DraftSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uuid.UUID]*DraftSession)
	m.mu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		s.coord.Close()
	}
	return firstErr
}
