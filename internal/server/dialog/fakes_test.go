package dialog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/server/auth"
	"github.com/dmitrijs2005/ermil/internal/server/models"
	"github.com/dmitrijs2005/ermil/internal/server/services"
)

type fakeAuth struct {
	accounts map[string]string // name -> password
	revoked  map[string]bool
	calls       []string
	loginErr    error
	registerErr error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{accounts: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeAuth) Register(ctx context.Context, name, password string) (*models.Account, error) {
	f.calls = append(f.calls, "register "+name)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if _, ok := f.accounts[name]; ok {
		return nil, common.ErrConflict
	}
	f.accounts[name] = password
	return &models.Account{ID: "id-" + name, UserName: name}, nil
}

func (f *fakeAuth) Login(ctx context.Context, name, password string) (*models.Account, error) {
	f.calls = append(f.calls, "login "+name)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	pw, ok := f.accounts[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	if pw != password {
		return nil, common.ErrWrongPassword
	}
	return &models.Account{ID: "id-" + name, UserName: name}, nil
}

func (f *fakeAuth) IssueIdentity(a *models.Account) (string, error) {
	return "tok:" + a.ID + ":" + a.UserName, nil
}

func (f *fakeAuth) Identify(token string) (auth.Identity, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "tok" || f.revoked[token] {
		return auth.Identity{}, common.ErrInvalidToken
	}
	return auth.Identity{AccountID: parts[1], UserName: parts[2]}, nil
}

type fakeMarkers struct {
	calls   []string
	active  map[string]models.Marker
	order   []string
	pending map[string]services.Pending
	seq     int

	beginErr    error
	completeErr error
	deleteErr   error
	listErr     error
	showErr     error
}

func newFakeMarkers() *fakeMarkers {
	return &fakeMarkers{active: map[string]models.Marker{}, pending: map[string]services.Pending{}}
}

func (f *fakeMarkers) BeginCreate(ctx context.Context, accountID, coordinates string) (*services.Pending, error) {
	f.calls = append(f.calls, "begin "+coordinates)
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.seq++
	p := services.Pending{ImageID: fmt.Sprintf("img-%d", f.seq), Coordinates: strings.Join(strings.Fields(coordinates), " ")}
	f.pending[p.ImageID] = p
	return &p, nil
}

func (f *fakeMarkers) CompleteCreate(ctx context.Context, accountID string, p services.Pending, description string) (*models.Marker, error) {
	f.calls = append(f.calls, "complete "+p.ImageID)
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if _, ok := f.pending[p.ImageID]; !ok {
		return nil, common.ErrNotFound
	}
	delete(f.pending, p.ImageID)
	m := models.Marker{ID: p.ImageID, OwnerID: accountID, Coordinates: p.Coordinates, Description: description, Status: models.MarkerActive}
	f.active[m.ID] = m
	f.order = append(f.order, m.ID)
	return &m, nil
}

func (f *fakeMarkers) Abandon(ctx context.Context, p services.Pending) error {
	f.calls = append(f.calls, "abandon "+p.ImageID)
	delete(f.pending, p.ImageID)
	return nil
}

func (f *fakeMarkers) Show(ctx context.Context, accountID, id string) (*models.Marker, error) {
	f.calls = append(f.calls, "show "+id)
	if f.showErr != nil {
		return nil, f.showErr
	}
	m, ok := f.active[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if m.OwnerID != accountID {
		return nil, common.ErrForbidden
	}
	return &m, nil
}

func (f *fakeMarkers) Delete(ctx context.Context, accountID, id string) error {
	f.calls = append(f.calls, "delete "+id)
	m, ok := f.active[id]
	if !ok {
		return common.ErrNotFound
	}
	if m.OwnerID != accountID {
		return common.ErrForbidden
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.active, id)
	return nil
}

func (f *fakeMarkers) List(ctx context.Context, accountID string) ([]string, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []string
	for _, id := range f.order {
		if m, ok := f.active[id]; ok && m.OwnerID == accountID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeMarkers) Reconcile(ctx context.Context, accountID string) (int, error) {
	f.calls = append(f.calls, "reconcile "+accountID)
	return 0, nil
}

func modelsMarker(id, owner string) models.Marker {
	return models.Marker{ID: id, OwnerID: owner, Coordinates: "1 2", Description: "d", Status: models.MarkerActive}
}
