// Package markers stores map markers in PostgreSQL.
package markers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/dmitrijs2005/ermil/internal/dbx"
	"github.com/dmitrijs2005/ermil/internal/server/models"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreatePending(ctx context.Context, marker *models.Marker) error {

	query :=
		`INSERT INTO markers (id, owner_id, coordinates, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, marker.ID, marker.OwnerID, marker.Coordinates).Scan(&marker.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	marker.Status = models.MarkerPending
	return nil
}

// Activate attaches the description to a pending marker of ownerID and
// makes it visible. Anything else matching nothing is common.ErrNotFound.
func (r *PostgresRepository) Activate(ctx context.Context, id, ownerID, description string) error {

	query :=
		`UPDATE markers SET description = $1, status = 'active'
		 WHERE id = $2 AND owner_id = $3 AND status = 'pending'
		 `

	res, err := r.db.ExecContext(ctx, query, description, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Marker, error) {
	query :=
		`SELECT id, owner_id, coordinates, description, status, created_at FROM markers
		 WHERE id = $1 AND status = 'active'
		 `

	m := &models.Marker{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&m.ID, &m.OwnerID, &m.Coordinates, &m.Description, &m.Status, &m.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM markers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

// DeletePending removes a marker only while it is still pending, so an
// activated marker is never dropped by cleanup.
func (r *PostgresRepository) DeletePending(ctx context.Context, id string) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM markers WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Marker, error) {
	query :=
		`SELECT id, owner_id, coordinates, description, status, created_at FROM markers
		 WHERE owner_id = $1 AND status = 'active'
		 ORDER BY created_at, id
		 `
	return r.query(ctx, query, ownerID)
}

func (r *PostgresRepository) ListPendingBefore(ctx context.Context, ownerID string, before time.Time) ([]*models.Marker, error) {
	query :=
		`SELECT id, owner_id, coordinates, description, status, created_at FROM markers
		 WHERE owner_id = $1 AND status = 'pending' AND created_at < $2
		 ORDER BY created_at, id
		 `
	return r.query(ctx, query, ownerID, before)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Marker, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Marker
	for rows.Next() {
		m := &models.Marker{}
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Coordinates, &m.Description, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
