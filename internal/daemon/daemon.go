// Package daemon wires the session store, processor, poller, and HTTP API into
// a single-instance background service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"scribed/internal/api"
	"scribed/internal/config"
	"scribed/internal/logging"
	"scribed/internal/poller"
	"scribed/internal/session"
)

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *session.Store
	svc    *api.SessionService
	poller *poller.Poller

	lockPath string
	lock     *flock.Flock

	apiServer *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DBPath       string
	LockFilePath string
	Counts       map[session.Status]int
}

// New constructs a daemon with initialized dependencies. The poller may be nil
// when background polling is disabled.
func New(cfg *config.Config, store *session.Store, svc *api.SessionService, p *poller.Poller, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || svc == nil {
		return nil, errors.New("daemon requires config, store, and session service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "scribed.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		svc:      svc,
		poller:   p,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiServer = server
	return d, nil
}

// Start acquires the daemon lock and launches the poller and HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scribed instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.poller != nil {
		if err := d.poller.Start(runCtx); err != nil {
			d.releaseLock()
			cancel()
			d.cancel = nil
			return fmt.Errorf("start poller: %w", err)
		}
	}
	if d.apiServer != nil {
		if err := d.apiServer.start(runCtx); err != nil {
			if d.poller != nil {
				d.poller.Stop()
			}
			d.releaseLock()
			cancel()
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("scribed daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.poller != nil {
		d.poller.Stop()
	}
	if d.apiServer != nil {
		d.apiServer.stop()
	}
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("scribed daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information including session counts.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.Counts = counts
	} else {
		d.logger.Warn("failed to gather session stats", logging.Error(err))
	}
	return status
}

// APIAddr returns the bound API address once the server is listening, for
// tests that start on an ephemeral port.
func (d *Daemon) APIAddr() string {
	if d.apiServer == nil {
		return ""
	}
	return d.apiServer.addr()
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}
