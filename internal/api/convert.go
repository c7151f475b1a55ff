package api

import (
	"time"

	"scribed/internal/session"
)

// FromSession converts a session record to its API representation.
func FromSession(sess *session.Session) SessionView {
	if sess == nil {
		return SessionView{}
	}

	view := SessionView{
		ID:            sess.ID,
		Title:         sess.Title,
		Filename:      sess.Filename,
		AudioLocation: sess.AudioLocation,
		Status:        string(sess.Status),
		JobRef:        sess.JobRef,
		Transcript:    sess.Transcript,
		Summary:       sess.Summary,
		ActionItems:   sess.ActionItems,
		ErrorMessage:  sess.ErrorMessage,
		CreatedAt:     FormatTime(sess.CreatedAt),
		UpdatedAt:     FormatTime(sess.UpdatedAt),
	}
	if len(sess.SpeakerMapping) > 0 {
		view.SpeakerMapping = make(map[string]string, len(sess.SpeakerMapping))
		for label, name := range sess.SpeakerMapping {
			view.SpeakerMapping[label] = name
		}
	}
	return view
}

// FromSessions converts a slice of session records into API DTOs.
func FromSessions(sessions []*session.Session) []SessionView {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, FromSession(sess))
	}
	return out
}

// MergeStats produces a string-keyed representation of session stats.
func MergeStats(stats map[session.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
