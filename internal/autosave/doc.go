// Package autosave provides a per-buffer save coordinator: it holds the
// pending (in-memory) value and the last committed value for one editable
// buffer, and decides when to hand the pending value to an injected
// persistence callback.
//
// Edits are committed on a trailing-edge debounce: a quiet period after
// the last edit triggers exactly one persistence call carrying whatever is
// pending at fire time. Manual saves cancel the timer and commit
// synchronously. At most one persistence call is ever in flight per
// coordinator; edits arriving mid-flight are picked up by a re-evaluation
// when the call settles, so no edit is lost and no two calls overlap.
//
// All timing is injectable (timer scheduler and clock), keeping the
// coordinator deterministic under test.
package autosave
