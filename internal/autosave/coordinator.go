package autosave

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last edit before an
// automatic commit fires.
const DefaultDebounce = 2500 * time.Millisecond

// ErrClosed is returned by operations on a closed coordinator.
var ErrClosed = errors.New("autosave: coordinator is closed")

// PersistFunc persists a snapshot of the buffer. It is the coordinator's
// only side-effecting dependency; a non-nil error marks the attempt as
// failed and leaves the buffer dirty for retry.
type PersistFunc func(ctx context.Context, value string) error

// DirtyFunc reports whether the pending value differs from the committed
// value enough to warrant a save.
type DirtyFunc func(pending, committed string) bool

// ScheduleFunc runs fn after d and returns a cancel function. The default
// is time.AfterFunc; tests inject their own to control timing.
type ScheduleFunc func(d time.Duration, fn func()) (cancel func())

// DefaultDirty is the default dirtiness predicate: trimmed-string inequality.
func DefaultDirty(pending, committed string) bool {
	return strings.TrimSpace(pending) != strings.TrimSpace(committed)
}

// State is the coordinator's read model. Dirty is recomputed from the
// current pending/committed pair on every snapshot, never cached.
type State struct {
	Value       string
	Dirty       bool
	Saving      bool
	LastSavedAt time.Time
	LastError   error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce sets the quiet period before an automatic commit.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

// WithSaveOnChange commits on every dirty edit instead of debouncing.
func WithSaveOnChange() Option {
	return func(c *Coordinator) { c.saveOnChange = true }
}

// WithIsDirty replaces the dirtiness predicate. The predicate may be
// asymmetric; it is re-run on every evaluation, so whatever it reports at
// the time of the check wins.
func WithIsDirty(fn DirtyFunc) Option {
	return func(c *Coordinator) { c.isDirty = fn }
}

// WithSchedule replaces the timer scheduler.
func WithSchedule(fn ScheduleFunc) Option {
	return func(c *Coordinator) { c.schedule = fn }
}

// WithClock replaces the time source used for LastSavedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger attaches a logger for save failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger.With(slog.String("component", "autosave"))
	}
}

// Coordinator tracks one editable buffer. All state transitions happen
// under the mutex; the persistence call itself runs outside it so edits
// keep flowing while a save is in flight.
type Coordinator struct {
	persist      PersistFunc
	isDirty      DirtyFunc
	schedule     ScheduleFunc
	now          func() time.Time
	delay        time.Duration
	saveOnChange bool
	logger       *slog.Logger

	mu          sync.Mutex
	pending     string
	committed   string
	saving      bool
	closed      bool
	lastErr     error
	lastSavedAt time.Time

	// timerCancel is non-nil while a debounce timer is live; timerGen
	// invalidates fires from timers cancelled after their callback was
	// already scheduled. epoch invalidates in-flight persist results
	// across identity switches.
	timerCancel func()
	timerGen    uint64
	epoch       uint64
}

// New creates a coordinator for a buffer whose current persisted content
// is initial. persist must not be nil.
func New(initial string, persist PersistFunc, opts ...Option) *Coordinator {
	if persist == nil {
		panic("persist cannot be nil")
	}

	c := &Coordinator{
		persist:   persist,
		isDirty:   DefaultDirty,
		schedule:  afterFunc,
		now:       func() time.Time { return time.Now().UTC() },
		delay:     DefaultDebounce,
		pending:   initial,
		committed: initial,
		logger:    slog.Default().With(slog.String("component", "autosave")),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// afterFunc is the default ScheduleFunc.
func afterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// SetValue replaces the pending value and runs the scheduling rule:
// clean buffers cancel any live timer, dirty buffers (re)arm the debounce
// timer — or commit immediately in save-on-change mode. Setting a value
// never starts a second persistence call while one is in flight; the
// in-flight call's settle step picks the edit up instead.
func (c *Coordinator) SetValue(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending = value
	c.evaluateLocked()
}

// Save commits the pending value now. It is a no-op when the buffer is
// clean or another save is already in flight (the in-flight settle will
// re-evaluate against the newest pending value). The debounce timer is
// cancelled either way. Returns the persistence error, if any; on failure
// the pending value is kept so the edits survive for retry.
func (c *Coordinator) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.saving {
		c.mu.Unlock()
		return nil
	}
	c.cancelTimerLocked()
	c.mu.Unlock()

	return c.commit(ctx)
}

// Reset switches the coordinator to a new buffer identity: any pending
// timer is cancelled, pending and committed are both set to the new
// initial value, and any still-in-flight persist result is discarded on
// settle. A stale timer or settle from the previous identity can no
// longer commit anything.
func (c *Coordinator) Reset(initial string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.cancelTimerLocked()
	c.epoch++
	c.pending = initial
	c.committed = initial
	c.lastErr = nil
}

// Close cancels any pending timer and rejects further operations.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelTimerLocked()
	c.epoch++
	c.closed = true
}

// Snapshot returns the current read model.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Value:       c.pending,
		Dirty:       c.isDirty(c.pending, c.committed),
		Saving:      c.saving,
		LastSavedAt: c.lastSavedAt,
		LastError:   c.lastErr,
	}
}

// LastError returns the error from the most recent persistence attempt,
// or nil if it succeeded.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// evaluateLocked runs the scheduling rule. Caller holds the mutex.
func (c *Coordinator) evaluateLocked() {
	if c.closed || c.saving {
		// A manual or in-flight save suppresses automatic scheduling;
		// the settle step re-evaluates once it completes.
		return
	}

	if !c.isDirty(c.pending, c.committed) {
		c.cancelTimerLocked()
		return
	}

	delay := c.delay
	if c.saveOnChange {
		delay = 0
	}
	c.restartTimerLocked(delay)
}

// restartTimerLocked arms the single debounce timer, replacing any live
// one. Caller holds the mutex.
func (c *Coordinator) restartTimerLocked(delay time.Duration) {
	c.cancelTimerLocked()

	gen := c.timerGen
	c.timerCancel = c.schedule(delay, func() {
		c.onTimerFire(gen)
	})
}

// cancelTimerLocked stops the live timer and invalidates callbacks that
// may already be scheduled. Caller holds the mutex.
func (c *Coordinator) cancelTimerLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
	c.timerGen++
}

// onTimerFire is the debounce timer callback.
func (c *Coordinator) onTimerFire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		// Cancelled after the callback was scheduled
		c.mu.Unlock()
		return
	}
	c.timerCancel = nil
	c.mu.Unlock()

	if err := c.commit(context.Background()); err != nil {
		c.logger.Warn("automatic save failed", slog.String("error", err.Error()))
	}
}

// commit performs one persistence attempt. The pending value is
// snapshotted under the lock, the persistence call runs outside it, and
// the settle step runs under the lock again: on success the snapshot
// becomes the committed value, on failure the committed value is left
// unchanged and the error is recorded. Either way the saving flag is
// cleared and dirtiness is re-evaluated against the CURRENT pending
// value, scheduling a follow-up commit if edits arrived mid-flight or the
// attempt failed.
func (c *Coordinator) commit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.saving {
		c.mu.Unlock()
		return nil
	}
	if !c.isDirty(c.pending, c.committed) {
		c.cancelTimerLocked()
		c.mu.Unlock()
		return nil
	}

	c.cancelTimerLocked()
	snapshot := c.pending
	epoch := c.epoch
	c.saving = true
	c.mu.Unlock()

	err := c.persist(ctx, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.saving = false

	if epoch == c.epoch {
		if err != nil {
			c.lastErr = err
		} else {
			c.committed = snapshot
			c.lastSavedAt = c.now()
			c.lastErr = nil
		}
	}
	// On an epoch mismatch the identity switched while the call was in
	// flight; the result belongs to the previous buffer and must not
	// touch committed or the error state. Scheduling below still runs
	// for the current identity.

	// Follow-up commits always go through the debounce timer, including
	// in save-on-change mode: retrying a failing backend in a tight loop
	// helps nobody.
	if !c.closed && c.isDirty(c.pending, c.committed) {
		c.restartTimerLocked(c.delay)
	}

	return err
}
