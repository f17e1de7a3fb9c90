package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduport/center-api/internal/models"
)

// CenterRepository manages persistence for centers.
type CenterRepository struct {
	db *sqlx.DB
}

// NewCenterRepository constructs a CenterRepository.
func NewCenterRepository(db *sqlx.DB) *CenterRepository {
	return &CenterRepository{db: db}
}

// List returns centers matching the filter. An empty scopeID means
// unrestricted (admin) visibility.
func (r *CenterRepository) List(ctx context.Context, filter models.CenterFilter, scopeID string) ([]models.Center, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if scopeID != "" {
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)+1))
		args = append(args, scopeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT id, name, code, address, phone, email, status, created_at, updated_at
        FROM centers WHERE %s ORDER BY created_at DESC`, strings.Join(conditions, " AND "))
	var centers []models.Center
	if err := r.db.SelectContext(ctx, &centers, query, args...); err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	return centers, nil
}

// FindByID fetches a center by ID.
func (r *CenterRepository) FindByID(ctx context.Context, id string) (*models.Center, error) {
	const query = `SELECT id, name, code, address, phone, email, status, created_at, updated_at
        FROM centers WHERE id = $1`
	var center models.Center
	if err := r.db.GetContext(ctx, &center, query, id); err != nil {
		return nil, err
	}
	return &center, nil
}

// Create inserts a new center.
func (r *CenterRepository) Create(ctx context.Context, center *models.Center) error {
	if center.ID == "" {
		center.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	center.CreatedAt = now
	center.UpdatedAt = now
	const query = `INSERT INTO centers (id, name, code, address, phone, email, status, created_at, updated_at)
        VALUES (:id, :name, :code, :address, :phone, :email, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("create center: %w", err)
	}
	return nil
}

// Update modifies an existing center.
func (r *CenterRepository) Update(ctx context.Context, center *models.Center) error {
	center.UpdatedAt = time.Now().UTC()
	const query = `UPDATE centers SET name = :name, code = :code, address = :address, phone = :phone,
        email = :email, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, center); err != nil {
		return fmt.Errorf("update center: %w", err)
	}
	return nil
}

// UpdateStatus transitions a center's lifecycle status.
func (r *CenterRepository) UpdateStatus(ctx context.Context, id string, status models.CenterStatus) error {
	const query = `UPDATE centers SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update center status: %w", err)
	}
	return nil
}

// HasRestrictedDependents reports whether financial or academic records
// (payments, certificates) reference the center. Deletion is blocked while
// any exist; students and classes cascade instead.
func (r *CenterRepository) HasRestrictedDependents(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM payments WHERE center_id = $1)
        OR EXISTS (SELECT 1 FROM certificates WHERE center_id = $1)`
	var restricted bool
	if err := r.db.GetContext(ctx, &restricted, query, id); err != nil {
		return false, fmt.Errorf("check center dependents: %w", err)
	}
	return restricted, nil
}

// Delete removes a center and its cascading dependents.
func (r *CenterRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM centers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete center: %w", err)
	}
	return nil
}
