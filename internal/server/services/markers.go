package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/logging"
	"github.com/dmitrijs2005/ermil/internal/server/config"
	"github.com/dmitrijs2005/ermil/internal/server/models"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/repomanager"
)

// MapRenderer produces a map image centred on a point.
type MapRenderer interface {
	Render(ctx context.Context, lat, lon string) ([]byte, error)
}

// ImageHost stores images and hands out the ids BigImage cards use.
type ImageHost interface {
	Upload(ctx context.Context, image []byte) (string, error)
	Delete(ctx context.Context, id string) error
}

// EventRecorder counts marker lifecycle events.
type EventRecorder interface {
	MarkerEvent(event string)
}

// Pending is a marker whose image is hosted and whose record is stored as
// pending, waiting for a description.
type Pending struct {
	ImageID     string `json:"image_id"`
	Coordinates string `json:"coordinates"`
}

type MarkerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	renderer    MapRenderer
	host        ImageHost
	pendingTTL  time.Duration
	events      EventRecorder
	log         logging.Logger
	now         func() time.Time
}

func NewMarkerService(db *sql.DB, m repomanager.RepositoryManager, renderer MapRenderer, host ImageHost,
	cfg *config.Config, events EventRecorder, log logging.Logger) *MarkerService {
	return &MarkerService{
		db:          db,
		repomanager: m,
		renderer:    renderer,
		host:        host,
		pendingTTL:  cfg.PendingTTL,
		events:      events,
		log:         log.With("module", "markers"),
		now:         time.Now,
	}
}

func (s *MarkerService) event(name string) {
	if s.events != nil {
		s.events.MarkerEvent(name)
	}
}

// BeginCreate renders the map for "<lat> <lon>", uploads it and stores a
// pending record. When the record cannot be stored the uploaded image is
// removed again.
func (s *MarkerService) BeginCreate(ctx context.Context, accountID, coordinates string) (*Pending, error) {
	parts := strings.Fields(coordinates)
	if len(parts) != 2 {
		return nil, common.ErrValidation
	}
	lat, lon := parts[0], parts[1]

	image, err := s.renderer.Render(ctx, lat, lon)
	if err != nil {
		s.log.Warn(ctx, "map render failed", "lat", lat, "lon", lon, "error", err)
		return nil, err
	}

	imageID, err := s.host.Upload(ctx, image)
	if err != nil {
		s.log.Warn(ctx, "image upload failed", "error", err)
		return nil, err
	}

	marker := &models.Marker{ID: imageID, OwnerID: accountID, Coordinates: lat + " " + lon}
	if err := s.repomanager.Markers(s.db).CreatePending(ctx, marker); err != nil {
		s.log.Error(ctx, "pending marker not stored", "image_id", imageID, "error", err)
		if derr := s.deleteImage(ctx, imageID); derr != nil {
			s.log.Error(ctx, "orphaned image", "image_id", imageID, "error", derr)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	return &Pending{ImageID: imageID, Coordinates: marker.Coordinates}, nil
}

// CompleteCreate activates the pending marker with its description. If the
// pending record has been reclaimed meanwhile the result is common.ErrNotFound.
// Completing a marker that is already active for the same account returns
// the stored marker.
func (s *MarkerService) CompleteCreate(ctx context.Context, accountID string, p Pending, description string) (*models.Marker, error) {
	description = strings.TrimSpace(description)
	if description == "" || p.ImageID == "" {
		return nil, common.ErrValidation
	}

	repo := s.repomanager.Markers(s.db)

	err := repo.Activate(ctx, p.ImageID, accountID, description)
	if errors.Is(err, common.ErrNotFound) {
		return s.completed(ctx, accountID, p.ImageID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.event("created")
	s.log.Info(ctx, "marker created", "marker_id", p.ImageID, "account_id", accountID)

	return &models.Marker{
		ID:          p.ImageID,
		OwnerID:     accountID,
		Coordinates: p.Coordinates,
		Description: description,
		Status:      models.MarkerActive,
	}, nil
}

// completed looks up a marker whose activation matched nothing. It is
// found when an earlier turn activated it but the session was not saved.
func (s *MarkerService) completed(ctx context.Context, accountID, id string) (*models.Marker, error) {
	m, err := s.repomanager.Markers(s.db).GetByID(ctx, id)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return nil, common.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	case m.OwnerID != accountID:
		return nil, common.ErrNotFound
	}

	s.log.Info(ctx, "marker already active", "marker_id", id, "account_id", accountID)
	return m, nil
}

// Abandon drops an unfinished creation: image first, then the record. A
// marker that has been activated meanwhile is left intact.
func (s *MarkerService) Abandon(ctx context.Context, p Pending) error {
	if p.ImageID == "" {
		return nil
	}

	dropped, err := s.abandon(ctx, p.ImageID)
	if err != nil {
		return err
	}

	if dropped {
		s.event("abandoned")
	}
	return nil
}

// abandon removes a pending marker and its image. It reports false and
// touches nothing when the marker is active.
func (s *MarkerService) abandon(ctx context.Context, id string) (bool, error) {
	repo := s.repomanager.Markers(s.db)

	_, err := repo.GetByID(ctx, id)
	switch {
	case err == nil:
		s.log.Info(ctx, "marker is active, not abandoned", "marker_id", id)
		return false, nil
	case !errors.Is(err, common.ErrNotFound):
		return false, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	if err := s.deleteImage(ctx, id); err != nil {
		return false, err
	}

	if err := repo.DeletePending(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	return true, nil
}

func (s *MarkerService) Show(ctx context.Context, accountID, id string) (*models.Marker, error) {
	m, err := s.repomanager.Markers(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	if m.OwnerID != accountID {
		return nil, common.ErrForbidden
	}

	return m, nil
}

// Delete removes the hosted image and then the record. If the image cannot
// be removed the record is left untouched so the marker stays consistent.
func (s *MarkerService) Delete(ctx context.Context, accountID, id string) error {
	if _, err := s.Show(ctx, accountID, id); err != nil {
		return err
	}

	if err := s.deleteImage(ctx, id); err != nil {
		s.log.Warn(ctx, "image delete failed, marker kept", "marker_id", id, "error", err)
		return err
	}

	if err := s.repomanager.Markers(s.db).Delete(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.event("deleted")
	s.log.Info(ctx, "marker deleted", "marker_id", id, "account_id", accountID)
	return nil
}

// List returns the ids of the account's markers, oldest first.
func (s *MarkerService) List(ctx context.Context, accountID string) ([]string, error) {
	markers, err := s.repomanager.Markers(s.db).ListByOwner(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	ids := make([]string, 0, len(markers))
	for _, m := range markers {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Reconcile abandons the account's pending markers older than the pending
// TTL. It returns how many were reclaimed; individual failures are logged
// and left for the next run.
func (s *MarkerService) Reconcile(ctx context.Context, accountID string) (int, error) {
	stale, err := s.repomanager.Markers(s.db).ListPendingBefore(ctx, accountID, s.now().Add(-s.pendingTTL))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	reclaimed := 0
	for _, m := range stale {
		dropped, err := s.abandon(ctx, m.ID)
		if err != nil {
			s.log.Warn(ctx, "pending marker not reclaimed", "marker_id", m.ID, "error", err)
			continue
		}
		if !dropped {
			continue
		}
		s.event("reclaimed")
		reclaimed++
	}

	if reclaimed > 0 {
		s.log.Info(ctx, "pending markers reclaimed", "account_id", accountID, "count", reclaimed)
	}
	return reclaimed, nil
}

// deleteImage treats an image the host no longer has as deleted.
func (s *MarkerService) deleteImage(ctx context.Context, id string) error {
	err := s.host.Delete(ctx, id)
	if err != nil && providers.IsNotFound(err) {
		return nil
	}
	return err
}
