package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
)

// MemoryStore keeps sessions in process memory. Sessions idle for longer
// than ttl are dropped on access and by Sweep.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Session
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Session),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *MemoryStore) expired(s Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if m.expired(s, m.now()) {
		delete(m.items, id)
		return nil, common.ErrNotFound
	}

	if s.Pending != nil {
		p := *s.Pending
		s.Pending = &p
	}
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *s
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = m.now()
	}
	if s.Pending != nil {
		p := *s.Pending
		stored.Pending = &p
	}
	m.items[s.ID] = stored
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.items {
		if m.expired(s, now) {
			delete(m.items, id)
			removed++
		}
	}
	return removed
}

// Len is the number of sessions held, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
