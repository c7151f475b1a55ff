package poller_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"scribed/internal/poller"
	"scribed/internal/session"
	"scribed/internal/testsupport"
)

type recordingAdvancer struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingAdvancer) Advance(ctx context.Context, id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil, nil
}

func (r *recordingAdvancer) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

func TestPollerAdvancesActiveSessions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.SessionPollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	active := testsupport.NewSession(t, store, "Active", "a.mp3")
	done := testsupport.NewSession(t, store, "Done", "b.mp3")
	done.Status = session.StatusCompleted
	if err := store.Update(context.Background(), done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	advancer := &recordingAdvancer{}
	p := poller.New(cfg, store, advancer, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(advancer.seen()) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	seen := advancer.seen()
	if len(seen) == 0 {
		t.Fatal("poller never advanced the active session")
	}
	for _, id := range seen {
		if id != active.ID {
			t.Fatalf("poller advanced unexpected session %s", id)
		}
	}
}

func TestPollerStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.SessionPollInterval = 60
	store := testsupport.MustOpenStore(t, cfg)

	p := poller.New(cfg, store, &recordingAdvancer{}, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	if err := p.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.SessionPollInterval = 60
	store := testsupport.MustOpenStore(t, cfg)

	p := poller.New(cfg, store, &recordingAdvancer{}, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	p.Stop()
	p.Stop()
}
