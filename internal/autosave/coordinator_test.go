package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduler replaces time.AfterFunc so tests control exactly when the
// debounce timer fires.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay     time.Duration
	fn        func()
	cancelled bool
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return func() {
		s.mu.Lock()
		t.cancelled = true
		s.mu.Unlock()
	}
}

// live returns the number of timers scheduled but not cancelled.
func (s *fakeScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// fireLast runs the callback of the most recently scheduled timer,
// regardless of cancellation — the coordinator's generation check must
// make late fires of cancelled timers harmless.
func (s *fakeScheduler) fireLast(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	require.NotEmpty(t, s.timers, "no timer scheduled")
	fn := s.timers[len(s.timers)-1].fn
	s.mu.Unlock()
	fn()
}

func (s *fakeScheduler) lastDelay(t *testing.T) time.Duration {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.timers, "no timer scheduled")
	return s.timers[len(s.timers)-1].delay
}

// recordingPersist records every persisted value and returns queued errors.
type recordingPersist struct {
	mu     sync.Mutex
	values []string
	errs   []error
}

func (p *recordingPersist) fn(ctx context.Context, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, value)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return err
	}
	return nil
}

func (p *recordingPersist) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.values...)
}

func newTestCoordinator(initial string, persist PersistFunc, opts ...Option) (*Coordinator, *fakeScheduler) {
	sched := &fakeScheduler{}
	opts = append([]Option{WithSchedule(sched.Schedule)}, opts...)
	return New(initial, persist, opts...), sched
}

func TestSetValueCleanDoesNothing(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("hello", persist.fn)

	// Equal after trim is not dirty
	c.SetValue("  hello  ")

	assert.Equal(t, 0, sched.live(), "clean edit must not schedule a commit")
	assert.False(t, c.Snapshot().Dirty)
	assert.Empty(t, persist.calls())
}

func TestDebounceCommitsLastValueOnce(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("v0", persist.fn)

	// Three rapid edits within the quiet period
	c.SetValue("v1")
	c.SetValue("v2")
	c.SetValue("v3")

	assert.Equal(t, 1, sched.live(), "only the last timer may be live")
	assert.Equal(t, DefaultDebounce, sched.lastDelay(t))

	sched.fireLast(t)

	assert.Equal(t, []string{"v3"}, persist.calls())
	state := c.Snapshot()
	assert.False(t, state.Dirty)
	assert.False(t, state.Saving)
	assert.NoError(t, state.LastError)
}

func TestDebounceCommitsValuePendingAtFireTime(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("v0", persist.fn)

	c.SetValue("v1")
	// The edit that armed the timer is not necessarily the edit that gets
	// committed; firing picks up whatever is pending.
	c.SetValue("v2")
	sched.fireLast(t)

	assert.Equal(t, []string{"v2"}, persist.calls())
}

func TestEditBackToCommittedCancelsTimer(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("v0", persist.fn)

	c.SetValue("v1")
	require.Equal(t, 1, sched.live())

	c.SetValue("v0")
	assert.Equal(t, 0, sched.live(), "reverting to the committed value must cancel the timer")

	// A late fire of the cancelled timer must be ignored
	sched.fireLast(t)
	assert.Empty(t, persist.calls())
}

func TestManualSaveCancelsTimerAndCommitsOnce(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("v0", persist.fn)

	c.SetValue("v1")
	require.Equal(t, 1, sched.live())

	require.NoError(t, c.Save(context.Background()))

	assert.Equal(t, []string{"v1"}, persist.calls())
	assert.Equal(t, 0, sched.live())

	// The superseded timer firing late must not commit again
	sched.fireLast(t)
	assert.Equal(t, []string{"v1"}, persist.calls())
}

func TestManualSaveWhenCleanIsNoop(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, _ := newTestCoordinator("v0", persist.fn)

	require.NoError(t, c.Save(context.Background()))
	assert.Empty(t, persist.calls())
}

func TestPersistFailureKeepsEditsAndReportsError(t *testing.T) {
	t.Parallel()
	saveErr := errors.New("backend unavailable")
	persist := &recordingPersist{errs: []error{saveErr}}
	c, sched := newTestCoordinator("v0", persist.fn)

	c.SetValue("v1")
	err := c.Save(context.Background())
	assert.ErrorIs(t, err, saveErr)

	state := c.Snapshot()
	assert.True(t, state.Dirty, "failed save must leave the buffer dirty")
	assert.Equal(t, "v1", state.Value, "failed save must not revert the pending value")
	assert.ErrorIs(t, state.LastError, saveErr)
	assert.False(t, state.Saving)

	// A failure schedules a retry through the debounce timer
	assert.Equal(t, 1, sched.live())

	// Manual retry succeeds with the same pending value
	require.NoError(t, c.Save(context.Background()))
	assert.Equal(t, []string{"v1", "v1"}, persist.calls())
	assert.False(t, c.Snapshot().Dirty)
	assert.NoError(t, c.LastError())
}

func TestSaveOnChangeCommitsImmediately(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("v0", persist.fn, WithSaveOnChange())

	c.SetValue("v1")
	require.Equal(t, 1, sched.live())
	assert.Equal(t, time.Duration(0), sched.lastDelay(t), "save-on-change commits without a quiet period")

	sched.fireLast(t)
	assert.Equal(t, []string{"v1"}, persist.calls())
}

func TestEditDuringInFlightSaveIsNotLost(t *testing.T) {
	t.Parallel()
	started := make(chan string)
	release := make(chan error)
	blocking := func(ctx context.Context, value string) error {
		started <- value
		return <-release
	}
	c, sched := newTestCoordinator("v0", blocking)

	c.SetValue("v1")

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background()) }()

	// Wait until the persist call is in flight
	sent := <-started
	assert.Equal(t, "v1", sent)
	assert.True(t, c.Snapshot().Saving)

	// An edit during the in-flight call must not start a second call
	c.SetValue("v2")
	assert.Equal(t, 0, sched.live(), "no timer may be armed while a save is in flight")

	// A second manual save during the in-flight call is a no-op
	require.NoError(t, c.Save(context.Background()))

	release <- nil
	require.NoError(t, <-done)

	// The settle step committed the snapshot, noticed the newer pending
	// value, and armed a follow-up timer.
	state := c.Snapshot()
	assert.True(t, state.Dirty)
	assert.Equal(t, "v2", state.Value)
	assert.False(t, state.Saving)
	require.Equal(t, 1, sched.live())

	// Firing the follow-up commits the newer value
	go sched.fireLast(t)
	assert.Equal(t, "v2", <-started)
	release <- nil
}

func TestResetCancelsTimerAndDropsInFlightResult(t *testing.T) {
	t.Parallel()
	started := make(chan string)
	release := make(chan error)
	blocking := func(ctx context.Context, value string) error {
		started <- value
		return <-release
	}
	c, sched := newTestCoordinator("old note", blocking)

	c.SetValue("old note edited")
	require.Equal(t, 1, sched.live())

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background()) }()
	<-started

	// Identity switch while the save is in flight
	c.Reset("new note")

	release <- nil
	require.NoError(t, <-done)

	state := c.Snapshot()
	assert.Equal(t, "new note", state.Value)
	assert.False(t, state.Dirty, "in-flight result from the old identity must not dirty the new one")
	assert.Equal(t, 0, sched.live())

	// A stale timer from before the reset must not commit across identities
	sched.fireLast(t)
	assert.False(t, c.Snapshot().Dirty)
}

func TestResetCancelsStaleTimer(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("old", persist.fn)

	c.SetValue("old edited")
	require.Equal(t, 1, sched.live())

	c.Reset("new")
	assert.Equal(t, 0, sched.live())

	sched.fireLast(t)
	assert.Empty(t, persist.calls(), "stale timer fired after identity switch must not persist")
}

func TestCloseStopsEverything(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, sched := newTestCoordinator("v0", persist.fn)

	c.SetValue("v1")
	c.Close()

	assert.Equal(t, 0, sched.live())
	assert.ErrorIs(t, c.Save(context.Background()), ErrClosed)

	c.SetValue("v2")
	assert.Equal(t, 0, sched.live())

	sched.fireLast(t)
	assert.Empty(t, persist.calls())
}

func TestCustomDirtyPredicate(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	// Only growth counts as dirty
	growsOnly := func(pending, committed string) bool {
		return len(pending) > len(committed)
	}
	c, sched := newTestCoordinator("abc", persist.fn, WithIsDirty(growsOnly))

	c.SetValue("ab")
	assert.Equal(t, 0, sched.live(), "shrinkage is clean under this predicate")

	c.SetValue("abcd")
	assert.Equal(t, 1, sched.live())
}

func TestSnapshotRecomputesDirty(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	c, _ := newTestCoordinator("v0", persist.fn)

	assert.False(t, c.Snapshot().Dirty)
	c.SetValue("v1")
	assert.True(t, c.Snapshot().Dirty)
	c.SetValue("v0")
	assert.False(t, c.Snapshot().Dirty)
}

func TestLastSavedAtUsesInjectedClock(t *testing.T) {
	t.Parallel()
	persist := &recordingPersist{}
	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	c, _ := newTestCoordinator("v0", persist.fn, WithClock(func() time.Time { return fixed }))

	c.SetValue("v1")
	require.NoError(t, c.Save(context.Background()))

	assert.Equal(t, fixed, c.Snapshot().LastSavedAt)
}
