// Package domain contains the core entities of the Noteleaf application:
// users, notes, notecards, and the per-card review statistics driving the
// spaced repetition scheduler. Entities validate themselves; persistence
// and scheduling policy live elsewhere.
package domain
