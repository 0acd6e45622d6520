package markers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ermil/internal/server/models"
)

// Repository is the marker half of the Store. Lookups by id and owner only
// see active markers; pending ones are reachable through Activate,
// DeletePending and ListPendingBefore.
type Repository interface {
	CreatePending(ctx context.Context, marker *models.Marker) error
	Activate(ctx context.Context, id, ownerID, description string) error
	GetByID(ctx context.Context, id string) (*models.Marker, error)
	Delete(ctx context.Context, id string) error
	DeletePending(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Marker, error)
	ListPendingBefore(ctx context.Context, ownerID string, before time.Time) ([]*models.Marker, error)
}
