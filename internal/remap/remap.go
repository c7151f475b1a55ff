// Package remap manages speaker display names for transcribed sessions.
// Applying a mapping is a purely textual operation over stored artifacts; it
// never calls external services and can be repeated safely.
package remap

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"scribed/internal/logging"
	"scribed/internal/services"
	"scribed/internal/session"
)

// Remapper applies and reports speaker mappings.
type Remapper struct {
	store  *session.Store
	logger *slog.Logger
}

// New constructs a Remapper backed by the supplied store.
func New(store *session.Store, logger *slog.Logger) *Remapper {
	return &Remapper{
		store:  store,
		logger: logging.NewComponentLogger(logger, "remap"),
	}
}

// LabelsView reports the raw labels present in a session's transcription and
// the display names currently assigned to them.
type LabelsView struct {
	Labels  []string
	Mapping map[string]string
}

// ListLabels returns the distinct raw speaker labels for a session along with
// its current mapping. The session must have a stored transcription.
func (r *Remapper) ListLabels(ctx context.Context, id string) (*LabelsView, error) {
	sess, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "remap", "list labels", "unknown session "+id, nil)
	}
	if len(sess.RawSegments) == 0 {
		return nil, services.Wrap(services.ErrInvalidState, "remap", "list labels", "session has no transcription yet", nil)
	}

	mapping := make(map[string]string, len(sess.SpeakerMapping))
	for label, name := range sess.SpeakerMapping {
		mapping[label] = name
	}
	return &LabelsView{Labels: sess.SpeakerLabels(), Mapping: mapping}, nil
}

// ApplyMapping merges the supplied label-to-name assignments into the
// session's mapping and re-derives every text artifact. Labels must exist in
// the stored transcription; an empty name clears the assignment for its
// label. Completed sessions additionally have the new names substituted into
// the summary and action items.
func (r *Remapper) ApplyMapping(ctx context.Context, id string, mapping map[string]string) (*session.Session, error) {
	ctx = services.WithSessionID(ctx, id)
	ctx = services.WithOperation(ctx, "apply_mapping")
	log := logging.WithContext(ctx, r.logger)

	unlock := r.store.LockSession(id)
	defer unlock()

	sess, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "remap", "apply mapping", "unknown session "+id, nil)
	}
	if len(sess.RawSegments) == 0 {
		return nil, services.Wrap(services.ErrInvalidState, "remap", "apply mapping", "session has no transcription yet", nil)
	}

	known := make(map[string]struct{})
	for _, label := range sess.SpeakerLabels() {
		known[label] = struct{}{}
	}
	for label := range mapping {
		if _, ok := known[label]; !ok {
			return nil, services.Wrap(services.ErrValidation, "remap", "apply mapping", "unknown speaker label "+label, nil)
		}
	}

	merged := make(map[string]string, len(sess.SpeakerMapping)+len(mapping))
	for label, name := range sess.SpeakerMapping {
		merged[label] = name
	}
	for label, name := range mapping {
		name = strings.TrimSpace(name)
		if name == "" {
			delete(merged, label)
			continue
		}
		merged[label] = name
	}
	if len(merged) == 0 {
		merged = nil
	}

	sess.SpeakerMapping = merged
	sess.Transcript = session.RenderTranscript(sess.RawSegments, merged)
	if sess.Status == session.StatusCompleted {
		sess.Summary = substituteLabels(sess.Summary, merged)
		sess.ActionItems = substituteLabels(sess.ActionItems, merged)
	}

	if err := r.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	log.Info("speaker mapping applied", logging.Int("labels", len(mapping)))
	return sess, nil
}

// substituteLabels rewrites raw speaker labels to display names in free-form
// text. The "label:" form is replaced first so attribution lines keep their
// punctuation, then bare mentions. Longer labels go first so that a label
// which prefixes another is not clobbered.
func substituteLabels(text string, mapping map[string]string) string {
	if text == "" || len(mapping) == 0 {
		return text
	}
	labels := make([]string, 0, len(mapping))
	for label := range mapping {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) > len(labels[j])
		}
		return labels[i] < labels[j]
	})
	for _, label := range labels {
		name := mapping[label]
		text = strings.ReplaceAll(text, label+":", name+":")
		text = strings.ReplaceAll(text, label, name)
	}
	return text
}
