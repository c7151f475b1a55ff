// Package processor drives sessions through the transcription lifecycle. Each
// Advance call performs at most one external service interaction and at most
// one status transition, so callers can poll it safely at any cadence.
package processor

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"scribed/internal/logging"
	"scribed/internal/services"
	"scribed/internal/services/transcribe"
	"scribed/internal/session"
)

// TranscriptionClient is the subset of the speech-to-text API the processor
// needs.
type TranscriptionClient interface {
	Submit(ctx context.Context, audioLocation string) (string, error)
	Poll(ctx context.Context, jobRef string) (transcribe.PollResult, error)
}

// AnalysisClient produces summaries and action items from transcripts.
type AnalysisClient interface {
	Summarize(ctx context.Context, transcript string) (string, error)
	ExtractActionItems(ctx context.Context, transcript string) (string, error)
}

// Processor advances sessions one lifecycle step at a time.
type Processor struct {
	store       *session.Store
	transcriber TranscriptionClient
	analyzer    AnalysisClient
	logger      *slog.Logger
}

// New constructs a Processor backed by the supplied store and service clients.
func New(store *session.Store, transcriber TranscriptionClient, analyzer AnalysisClient, logger *slog.Logger) *Processor {
	return &Processor{
		store:       store,
		transcriber: transcriber,
		analyzer:    analyzer,
		logger:      logging.NewComponentLogger(logger, "processor"),
	}
}

// Advance moves the session one step forward. Terminal sessions are returned
// unchanged. External service failures are absorbed into the session record
// (status error with a message) rather than returned as errors; the returned
// error reports infrastructure faults only, such as an unknown session or a
// failed store write. Concurrent Advance calls for the same session serialize
// on a per-session lock.
func (p *Processor) Advance(ctx context.Context, id string) (*session.Session, error) {
	ctx = services.WithSessionID(ctx, id)
	ctx = services.WithOperation(ctx, "advance")
	ctx = services.WithRequestID(ctx, uuid.NewString())
	log := logging.WithContext(ctx, p.logger)

	unlock := p.store.LockSession(id)
	defer unlock()

	sess, err := p.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "processor", "advance", "unknown session "+id, nil)
	}

	switch sess.Status {
	case session.StatusUploading:
		return p.startTranscription(ctx, log, sess)
	case session.StatusTranscribing:
		return p.checkTranscription(ctx, log, sess)
	case session.StatusAnalyzing:
		return p.runAnalysis(ctx, log, sess)
	case session.StatusCompleted, session.StatusError:
		return sess, nil
	default:
		return nil, services.Wrap(services.ErrInvalidState, "processor", "advance", "unknown status "+string(sess.Status), nil)
	}
}

func (p *Processor) startTranscription(ctx context.Context, log *slog.Logger, sess *session.Session) (*session.Session, error) {
	jobRef, err := p.transcriber.Submit(ctx, sess.AudioLocation)
	if err != nil {
		log.Error("transcription submit failed",
			logging.Error(services.Wrap(services.ErrSubmission, "processor", "submit", "start transcription job", err)))
		return p.fail(ctx, sess, err.Error())
	}

	if err := transition(sess, session.StatusTranscribing); err != nil {
		return nil, err
	}
	sess.JobRef = jobRef
	if err := p.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	log.Info("transcription job submitted",
		logging.String("job_ref", jobRef),
		logging.String(logging.FieldStatus, string(sess.Status)))
	return sess, nil
}

func (p *Processor) checkTranscription(ctx context.Context, log *slog.Logger, sess *session.Session) (*session.Session, error) {
	result, err := p.transcriber.Poll(ctx, sess.JobRef)
	if err != nil {
		log.Error("transcription poll failed",
			logging.Error(services.Wrap(services.ErrTranscription, "processor", "poll", "check transcription job", err)))
		return p.fail(ctx, sess, err.Error())
	}

	switch result.Status {
	case transcribe.JobRunning:
		log.Debug("transcription still running", logging.String("job_ref", sess.JobRef))
		return sess, nil
	case transcribe.JobFailed:
		log.Warn("transcription job failed", logging.String("reason", result.FailureReason))
		return p.fail(ctx, sess, result.FailureReason)
	case transcribe.JobSucceeded:
		segments := make([]session.Segment, len(result.Segments))
		for i, seg := range result.Segments {
			segments[i] = session.Segment{SpeakerLabel: seg.SpeakerLabel, Text: seg.Text}
		}
		if err := transition(sess, session.StatusAnalyzing); err != nil {
			return nil, err
		}
		sess.RawSegments = segments
		sess.Transcript = session.RenderTranscript(segments, sess.SpeakerMapping)
		if err := p.store.Update(ctx, sess); err != nil {
			return nil, err
		}
		log.Info("transcription complete",
			logging.Int("segments", len(segments)),
			logging.String(logging.FieldStatus, string(sess.Status)))
		return sess, nil
	default:
		return p.fail(ctx, sess, "unknown transcription job status")
	}
}

func (p *Processor) runAnalysis(ctx context.Context, log *slog.Logger, sess *session.Session) (*session.Session, error) {
	summary, err := p.analyzer.Summarize(ctx, sess.Transcript)
	if err != nil {
		log.Error("summary generation failed",
			logging.Error(services.Wrap(services.ErrAnalysis, "processor", "summarize", "generate summary", err)))
		return p.fail(ctx, sess, err.Error())
	}
	actionItems, err := p.analyzer.ExtractActionItems(ctx, sess.Transcript)
	if err != nil {
		log.Error("action item extraction failed",
			logging.Error(services.Wrap(services.ErrAnalysis, "processor", "action_items", "extract action items", err)))
		return p.fail(ctx, sess, err.Error())
	}

	if err := transition(sess, session.StatusCompleted); err != nil {
		return nil, err
	}
	sess.Summary = summary
	sess.ActionItems = actionItems
	if err := p.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	log.Info("session analysis complete", logging.String(logging.FieldStatus, string(sess.Status)))
	return sess, nil
}

// transition applies the next lifecycle status, enforcing the legal-step rules
// encoded on Status.
func transition(sess *session.Session, next session.Status) error {
	if !sess.Status.CanTransition(next) {
		return services.Wrap(services.ErrInvalidState, "processor", "transition",
			string(sess.Status)+" -> "+string(next), nil)
	}
	sess.Status = next
	return nil
}

func (p *Processor) fail(ctx context.Context, sess *session.Session, message string) (*session.Session, error) {
	sess.SetFailed(message)
	if err := p.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
