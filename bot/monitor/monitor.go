package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flexbet/FlexCodeBot-Go/bot"
)

var (
	ErrAlreadyRunning = errors.New("monitor: already running")
	ErrNotRunning     = errors.New("monitor: not running")
	ErrNoSessions     = errors.New("monitor: no sessions configured")
)

// Monitor owns the transport sessions and their poll loops. Start and Stop
// are safe to call from the ops API while the loops are running.
type Monitor struct {
	log      bot.Logger
	sessions []*Session

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// New builds a monitor over the given sessions.
func New(log bot.Logger, sessions ...*Session) (*Monitor, error) {
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	return &Monitor{log: log, sessions: sessions}, nil
}

// Start validates credentials, warms dedup state and launches the poll
// loops. The caller's ctx bounds only the startup work: the loops run on
// their own context so an expired API request cannot tear them down.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrAlreadyRunning
	}

	for _, s := range m.sessions {
		if err := s.Validate(ctx); err != nil {
			return fmt.Errorf("monitor: validate %s credentials: %w", s.Name(), err)
		}
	}
	for _, s := range m.sessions {
		if err := s.Warm(ctx); err != nil && m.log != nil {
			m.log.Warn("warm dedup state failed", "transport", s.Name(), "err", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	g, runCtx := errgroup.WithContext(runCtx)
	for _, s := range m.sessions {
		sess := s
		g.Go(func() error { return sess.RunMentions(runCtx) })
		g.Go(func() error { return sess.RunDMs(runCtx) })
		sess.markUp(true)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && m.log != nil {
			m.log.Error("session loops exited", "err", err)
		}
	}()

	m.cancel = cancel
	m.done = done
	m.running = true
	m.startedAt = time.Now()
	if m.log != nil {
		m.log.Info("monitoring started", "sessions", len(m.sessions))
	}
	return nil
}

// Stop cancels the poll loops and waits for them to drain, bounded by ctx.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	cancel()
	for _, s := range m.sessions {
		s.markUp(false)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	if m.log != nil {
		m.log.Info("monitoring stopped")
	}
	return nil
}

// Running reports whether the poll loops are live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status snapshots the monitor and every session.
func (m *Monitor) Status() bot.Status {
	m.mu.Lock()
	running := m.running
	startedAt := m.startedAt
	m.mu.Unlock()

	transports := make(map[string]bot.SessionStats, len(m.sessions))
	for _, s := range m.sessions {
		transports[s.Name()] = s.Stats()
	}
	return bot.Status{
		Running:    running,
		StartedAt:  startedAt,
		Transports: transports,
	}
}
