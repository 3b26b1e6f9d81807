// Package monitor tracks document-store connectivity and board-session
// counts for the health endpoint.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskmaster/gateway/repository"
)

// SessionCounter reports how many board sessions are currently live.
type SessionCounter interface {
	Count() int
}

type Monitor struct {
	store    repository.HealthChecker
	driver   string
	sessions SessionCounter

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(store repository.HealthChecker, driver string, sessions SessionCounter, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		driver:   driver,
		sessions: sessions,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	status := Status{
		Store:     m.checkStore(),
		Driver:    m.driver,
		LastCheck: time.Now(),
	}
	if m.sessions != nil {
		status.Sessions = m.sessions.Count()
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) checkStore() bool {
	if m.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.store.Ping(ctx); err != nil {
		m.logger.Warn("store ping failed", zap.Error(err))
		return false
	}
	return true
}
