package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SessionView describes a session in a transport-friendly format.
type SessionView struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Filename       string            `json:"filename"`
	AudioLocation  string            `json:"audioLocation"`
	Status         string            `json:"status"`
	JobRef         string            `json:"jobRef,omitempty"`
	Transcript     string            `json:"transcript,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	ActionItems    string            `json:"actionItems,omitempty"`
	SpeakerMapping map[string]string `json:"speakerMapping,omitempty"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	UpdatedAt      string            `json:"updatedAt,omitempty"`
}

// SpeakersView reports a session's raw speaker labels and current mapping.
type SpeakersView struct {
	SessionID string            `json:"sessionId"`
	Labels    []string          `json:"labels"`
	Mapping   map[string]string `json:"mapping,omitempty"`
}

// SessionListResponse wraps a collection of sessions for API responses.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions"`
}

// StatusResponse aggregates daemon runtime information for API consumers.
type StatusResponse struct {
	Running bool           `json:"running"`
	PID     int            `json:"pid"`
	DBPath  string         `json:"dbPath"`
	Counts  map[string]int `json:"counts"`
}

// CreateSessionRequest carries caller input for registering a new session.
type CreateSessionRequest struct {
	Title         string `json:"title"`
	Filename      string `json:"filename"`
	AudioLocation string `json:"audioLocation"`
}

// ApplyMappingRequest carries label-to-name assignments.
type ApplyMappingRequest struct {
	Mapping map[string]string `json:"mapping"`
}
