package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskmaster/gateway/usecase/board"
)

// SessionFactory builds a board session bound to one user identity.
type SessionFactory func(userID string) *board.Session

// ManagerConfig controls session retention.
type ManagerConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// SessionManager caches one live board session per authenticated user
// and evicts sessions that have been idle past the TTL. A session
// holds the user's watch and overlay; evicting it is equivalent to the
// user leaving the page.
type SessionManager struct {
	factory SessionFactory
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ManagerConfig

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session  *board.Session
	lastSeen time.Time
}

func NewSessionManager(factory SessionFactory, cfg ManagerConfig, logger *zap.Logger) *SessionManager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &SessionManager{
		factory:  factory,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		sessions: make(map[string]*sessionEntry),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.SweepInterval.Seconds()))
	_, _ = m.cron.AddFunc(schedule, m.sweep)

	return m
}

// Start launches the idle-session sweeper.
func (m *SessionManager) Start() {
	m.cron.Start()
	m.logger.Info("session manager started",
		zap.Duration("idle_ttl", m.cfg.IdleTTL),
		zap.Duration("sweep_interval", m.cfg.SweepInterval))
}

// Stop halts the sweeper and closes every live session.
func (m *SessionManager) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	m.CloseAll()
	m.logger.Info("session manager stopped")
}

// Acquire returns the live session for the user, establishing a fresh
// one (and its watch) on first use. Every call refreshes the idle
// timestamp.
func (m *SessionManager) Acquire(ctx context.Context, userID string) (*board.Session, error) {
	m.mu.Lock()
	if entry, ok := m.sessions[userID]; ok {
		entry.lastSeen = time.Now()
		s := entry.session
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	session := m.factory(userID)
	if err := session.Start(ctx); err != nil {
		session.Close()
		return nil, err
	}

	m.mu.Lock()
	if entry, ok := m.sessions[userID]; ok {
		// Lost a race with a concurrent first request; keep theirs.
		entry.lastSeen = time.Now()
		s := entry.session
		m.mu.Unlock()
		session.Close()
		return s, nil
	}
	m.sessions[userID] = &sessionEntry{session: session, lastSeen: time.Now()}
	m.mu.Unlock()

	m.logger.Info("board session opened", zap.String("user_id", userID))
	return session, nil
}

// Drop closes and removes one user's session (sign-out / identity
// switch). The next Acquire starts from a clean overlay.
func (m *SessionManager) Drop(userID string) {
	m.mu.Lock()
	entry, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		entry.session.Close()
		m.logger.Info("board session dropped", zap.String("user_id", userID))
	}
}

// Count reports the number of live sessions for the monitor.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll tears down every session.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for uid, entry := range m.sessions {
		entries = append(entries, entry)
		delete(m.sessions, uid)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.session.Close()
	}
}

func (m *SessionManager) sweep() {
	cutoff := time.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var idle []*sessionEntry
	for uid, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry)
			delete(m.sessions, uid)
		}
	}
	m.mu.Unlock()

	for _, entry := range idle {
		uid := entry.session.UserID()
		entry.session.Close()
		m.logger.Info("idle board session evicted", zap.String("user_id", uid))
	}
}
