package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/dbx"
	"github.com/dmitrijs2005/ermil/internal/server/models"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/markers"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// callLog records collaborator calls in order across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeAccounts struct {
	mu        sync.Mutex
	byName    map[string]*models.Account
	nextID    int
	getErr    error
	createErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byName: map[string]*models.Account{}}
}

func (f *fakeAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byName[a.UserName]; ok {
		return nil, common.ErrConflict
	}
	f.nextID++
	stored := *a
	stored.ID = fmt.Sprintf("acc-%d", f.nextID)
	stored.CreatedAt = time.Now()
	f.byName[a.UserName] = &stored
	out := stored
	return &out, nil
}

func (f *fakeAccounts) GetByUserName(ctx context.Context, name string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byName[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *a
	return &out, nil
}

type fakeMarkers struct {
	mu   sync.Mutex
	rows map[string]*models.Marker
	log  *callLog
	seq  int

	createErr error
	deleteErr error
	listErr   error
	getErr    error
}

func newFakeMarkers(log *callLog) *fakeMarkers {
	return &fakeMarkers{rows: map[string]*models.Marker{}, log: log}
}

func (f *fakeMarkers) put(m models.Marker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Unix(int64(f.seq), 0)
	}
	f.rows[m.ID] = &m
}

func (f *fakeMarkers) get(id string) (models.Marker, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok {
		return models.Marker{}, false
	}
	return *m, true
}

func (f *fakeMarkers) CreatePending(ctx context.Context, m *models.Marker) error {
	f.log.add("store.create_pending %s", m.ID)
	if f.createErr != nil {
		return f.createErr
	}
	m.Status = models.MarkerPending
	m.CreatedAt = time.Now()
	f.put(*m)
	return nil
}

func (f *fakeMarkers) Activate(ctx context.Context, id, ownerID, description string) error {
	f.log.add("store.activate %s", id)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok || m.OwnerID != ownerID || m.Status != models.MarkerPending {
		return common.ErrNotFound
	}
	m.Description = description
	m.Status = models.MarkerActive
	return nil
}

func (f *fakeMarkers) GetByID(ctx context.Context, id string) (*models.Marker, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.get(id)
	if !ok || m.Status != models.MarkerActive {
		return nil, common.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMarkers) Delete(ctx context.Context, id string) error {
	f.log.add("store.delete %s", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeMarkers) DeletePending(ctx context.Context, id string) error {
	f.log.add("store.delete_pending %s", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok || m.Status != models.MarkerPending {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeMarkers) selectWhere(pred func(*models.Marker) bool) []*models.Marker {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Marker
	for _, m := range f.rows {
		if pred(m) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeMarkers) ListByOwner(ctx context.Context, ownerID string) ([]*models.Marker, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.selectWhere(func(m *models.Marker) bool {
		return m.OwnerID == ownerID && m.Status == models.MarkerActive
	}), nil
}

func (f *fakeMarkers) ListPendingBefore(ctx context.Context, ownerID string, before time.Time) ([]*models.Marker, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.selectWhere(func(m *models.Marker) bool {
		return m.OwnerID == ownerID && m.Status == models.MarkerPending && m.CreatedAt.Before(before)
	}), nil
}

type fakeRepoManager struct {
	a *fakeAccounts
	m markers.Repository
}

func (r *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (r *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository     { return r.a }
func (r *fakeRepoManager) Markers(db dbx.DBTX) markers.Repository       { return r.m }

type fakeRenderer struct {
	log *callLog
	err error
}

func (f *fakeRenderer) Render(ctx context.Context, lat, lon string) ([]byte, error) {
	f.log.add("render %s,%s", lon, lat)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PNG " + lon + "," + lat), nil
}

type fakeHost struct {
	log       *callLog
	seq       int
	uploadErr error
	deleteErr error
	deleted   []string
}

func (f *fakeHost) Upload(ctx context.Context, image []byte) (string, error) {
	f.log.add("upload")
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.seq++
	return fmt.Sprintf("img-%d", f.seq), nil
}

func (f *fakeHost) Delete(ctx context.Context, id string) error {
	f.log.add("image.delete %s", id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type countingEvents struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingEvents) MarkerEvent(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[event]++
}

var (
	errClient    = providers.StatusError("test", "op", 400, "bad")
	errTransient = providers.StatusError("test", "op", 503, "down")
	errNotFound  = providers.StatusError("test", "op", 404, "gone")
)
