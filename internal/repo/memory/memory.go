package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/statuspage/internal/domain"
	"github.com/hamed0406/statuspage/internal/repo"
)

var _ repo.SignalStore = (*Store)(nil)

// Store keeps signals in insertion order. Used when no database is configured.
type Store struct {
	mu      sync.RWMutex
	signals []domain.Signal
	last    time.Time

	// Now is the store clock; swap it in tests.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		signals: make([]domain.Signal, 0, 128),
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Store) Insert(ctx context.Context, s domain.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.Now()
	if ts.Before(m.last) {
		ts = m.last // wall clock stepped back
	}
	m.last = ts
	s.Received = ts
	m.signals = append(m.signals, s)
	return nil
}

func (m *Store) QueryRecent(ctx context.Context, url string, limit int) ([]domain.Signal, error) {
	out := make([]domain.Signal, 0)
	if limit <= 0 {
		return out, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.signals) - 1; i >= 0 && len(out) < limit; i-- {
		if m.signals[i].URL == url {
			out = append(out, m.signals[i])
		}
	}
	return out, nil
}

func (m *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Store) Close() {}

// Len is the number of stored rows across all URLs.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.signals)
}
