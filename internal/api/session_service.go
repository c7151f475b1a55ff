package api

import (
	"context"
	"path"
	"strings"

	"scribed/internal/remap"
	"scribed/internal/services"
	"scribed/internal/session"
	"scribed/internal/textutil"
)

// SessionStore abstracts session persistence interactions needed by the service.
type SessionStore interface {
	Create(ctx context.Context, params session.NewSessionParams) (*session.Session, error)
	GetByID(ctx context.Context, id string) (*session.Session, error)
	List(ctx context.Context, statuses ...session.Status) ([]*session.Session, error)
	Remove(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (map[session.Status]int, error)
}

// Advancer moves a session one lifecycle step forward.
type Advancer interface {
	Advance(ctx context.Context, id string) (*session.Session, error)
}

// SpeakerMapper reports and updates speaker display names.
type SpeakerMapper interface {
	ListLabels(ctx context.Context, id string) (*remap.LabelsView, error)
	ApplyMapping(ctx context.Context, id string, mapping map[string]string) (*session.Session, error)
}

// SessionService exposes session operations returning API DTOs.
type SessionService struct {
	store     SessionStore
	processor Advancer
	remapper  SpeakerMapper
}

// NewSessionService constructs a SessionService around the provided collaborators.
func NewSessionService(store SessionStore, processor Advancer, remapper SpeakerMapper) *SessionService {
	return &SessionService{store: store, processor: processor, remapper: remapper}
}

// Create registers a new session. The title falls back to one derived from the
// filename, and the audio location defaults to the audio directory key for the
// uploaded file.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*SessionView, error) {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "create session", "filename required", nil)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = textutil.TitleFromFilename(filename)
	}
	audioLocation := strings.TrimSpace(req.AudioLocation)
	if audioLocation == "" {
		audioLocation = path.Join("audio", filename)
	}

	sess, err := s.store.Create(ctx, session.NewSessionParams{
		Title:         title,
		Filename:      filename,
		AudioLocation: audioLocation,
	})
	if err != nil {
		return nil, err
	}
	view := FromSession(sess)
	return &view, nil
}

// Get fetches a single session.
func (s *SessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "get session", "unknown session "+id, nil)
	}
	view := FromSession(sess)
	return &view, nil
}

// List returns sessions filtered by status, newest first.
func (s *SessionService) List(ctx context.Context, statuses ...session.Status) ([]SessionView, error) {
	sessions, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromSessions(sessions), nil
}

// Advance moves the session one lifecycle step forward and returns the
// resulting record.
func (s *SessionService) Advance(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.processor.Advance(ctx, id)
	if err != nil {
		return nil, err
	}
	view := FromSession(sess)
	return &view, nil
}

// Speakers reports the raw labels and current mapping for a session.
func (s *SessionService) Speakers(ctx context.Context, id string) (*SpeakersView, error) {
	result, err := s.remapper.ListLabels(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SpeakersView{SessionID: id, Labels: result.Labels, Mapping: result.Mapping}, nil
}

// ApplyMapping merges speaker display names into the session and returns the
// updated record.
func (s *SessionService) ApplyMapping(ctx context.Context, id string, req ApplyMappingRequest) (*SessionView, error) {
	if len(req.Mapping) == 0 {
		return nil, services.Wrap(services.ErrValidation, "api", "apply mapping", "mapping required", nil)
	}
	sess, err := s.remapper.ApplyMapping(ctx, id, req.Mapping)
	if err != nil {
		return nil, err
	}
	view := FromSession(sess)
	return &view, nil
}

// Delete removes a session regardless of its status.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return services.Wrap(services.ErrNotFound, "api", "delete session", "unknown session "+id, nil)
	}
	return nil
}

// Stats returns session counts keyed by status string.
func (s *SessionService) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeStats(stats), nil
}
