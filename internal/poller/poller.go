// Package poller drives active sessions forward on a fixed interval so the
// daemon makes progress without client-issued process requests.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"scribed/internal/config"
	"scribed/internal/logging"
	"scribed/internal/session"
)

// Advancer moves a session one lifecycle step forward.
type Advancer interface {
	Advance(ctx context.Context, id string) (*session.Session, error)
}

// Poller periodically lists non-terminal sessions and advances each one.
type Poller struct {
	store     *session.Store
	processor Advancer
	logger    *slog.Logger
	interval  time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a Poller using the workflow settings from cfg.
func New(cfg *config.Config, store *session.Store, processor Advancer, logger *slog.Logger) *Poller {
	return &Poller{
		store:     store,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "poller"),
		interval:  time.Duration(cfg.Workflow.SessionPollInterval) * time.Second,
	}
}

// Start begins background polling. It returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("poller already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	go p.run(runCtx)
	return nil
}

// Stop terminates background polling and waits for completion.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// sweep advances every active session once. Per-session failures are logged
// and do not stop the sweep; the session record carries its own error state.
func (p *Poller) sweep(ctx context.Context) {
	sessions, err := p.store.ListActive(ctx)
	if err != nil {
		p.logger.Error("failed to list active sessions", logging.Error(err))
		return
	}
	for _, sess := range sessions {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.processor.Advance(ctx, sess.ID); err != nil {
			p.logger.Error("session advance failed",
				logging.String(logging.FieldSessionID, sess.ID),
				logging.Error(err))
		}
	}
}
