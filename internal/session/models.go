package session

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a session.
type Status string

const (
	StatusUploading    Status = "uploading"
	StatusTranscribing Status = "transcribing"
	StatusAnalyzing    Status = "analyzing"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

var allStatuses = []Status{
	StatusUploading,
	StatusTranscribing,
	StatusAnalyzing,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// phaseRank orders the forward phases. Error sits outside the ordering; it is
// reachable from anywhere and terminal.
var phaseRank = map[Status]int{
	StatusUploading:    0,
	StatusTranscribing: 1,
	StatusAnalyzing:    2,
	StatusCompleted:    3,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step: one phase forward, or into error from any non-terminal status.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	from, okFrom := phaseRank[s]
	to, okTo := phaseRank[next]
	return okFrom && okTo && to == from+1
}

// Segment is one diarized span of the transcription: an anonymous speaker
// label and the text attributed to it.
type Segment struct {
	SpeakerLabel string `json:"speaker_label"`
	Text         string `json:"text"`
}

// Session represents a meeting recording persisted in SQLite.
type Session struct {
	ID             string
	Title          string
	Filename       string
	AudioLocation  string
	Status         Status
	JobRef         string
	RawSegments    []Segment
	SpeakerMapping map[string]string
	Transcript     string
	Summary        string
	ActionItems    string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.RawSegments != nil {
		cp.RawSegments = make([]Segment, len(s.RawSegments))
		copy(cp.RawSegments, s.RawSegments)
	}
	if s.SpeakerMapping != nil {
		cp.SpeakerMapping = make(map[string]string, len(s.SpeakerMapping))
		for label, name := range s.SpeakerMapping {
			cp.SpeakerMapping[label] = name
		}
	}
	return &cp
}

// SpeakerLabels returns the distinct raw speaker labels in first-appearance order.
func (s *Session) SpeakerLabels() []string {
	if s == nil || len(s.RawSegments) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, 4)
	labels := make([]string, 0, 4)
	for _, segment := range s.RawSegments {
		label := segment.SpeakerLabel
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// SetFailed marks the session as errored with the given message.
func (s *Session) SetFailed(message string) {
	s.Status = StatusError
	s.ErrorMessage = message
}

// RenderTranscript renders segments as "speaker: text" lines, substituting the
// mapped display name where one exists and leaving raw labels otherwise.
func RenderTranscript(segments []Segment, mapping map[string]string) string {
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for i, segment := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := segment.SpeakerLabel
		if name, ok := mapping[label]; ok && strings.TrimSpace(name) != "" {
			label = name
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(segment.Text)
	}
	return b.String()
}
