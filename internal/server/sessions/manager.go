package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs turns against a Store. Turns of one session id never
// overlap; different ids proceed in parallel.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*lockEntry

	now func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[string]*lockEntry),
		now:   time.Now,
	}
}

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Do loads the session (a fresh one if none is stored), passes it to fn and
// saves the result. Nothing is saved when fn fails.
func (m *Manager) Do(ctx context.Context, id string, fn func(ctx context.Context, s *Session) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	sess, err := m.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: load session: %v", common.ErrStore, err)
		}
		sess = &Session{ID: id}
	}

	if err := fn(ctx, sess); err != nil {
		return err
	}

	sess.ID = id
	sess.UpdatedAt = m.now()
	if err := m.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("%w: save session: %v", common.ErrStore, err)
	}
	return nil
}
