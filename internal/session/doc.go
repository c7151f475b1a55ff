// Package session defines the meeting session record, its status lifecycle,
// and SQLite-backed persistence.
//
// A session moves through uploading, transcribing, analyzing, and completed;
// error is reachable from any non-terminal status and, like completed, is
// terminal. Raw diarized segments are written exactly once and never mutated;
// the rendered transcript, summary, and action items are derived artifacts
// that change only when the speaker mapping changes.
package session
