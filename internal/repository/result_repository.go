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

// ResultRepository manages persistence for result publication rows.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultColumns = `id, session_id, class_id, center_id, status, published_at, created_at, updated_at`

// List returns result rows, restricted to a center when centerID is
// non-empty.
func (r *ResultRepository) List(ctx context.Context, centerID string) ([]models.Result, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if centerID != "" {
		conditions = append(conditions, fmt.Sprintf("center_id = $%d", len(args)+1))
		args = append(args, centerID)
	}
	query := fmt.Sprintf(`SELECT %s FROM results WHERE %s ORDER BY created_at DESC`,
		resultColumns, strings.Join(conditions, " AND "))
	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// FindByID fetches a result row by ID.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE id = $1`, resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindBySessionClass fetches the publication row for a (session, class)
// pair.
func (r *ResultRepository) FindBySessionClass(ctx context.Context, sessionID, classID string) (*models.Result, error) {
	query := fmt.Sprintf(`SELECT %s FROM results WHERE session_id = $1 AND class_id = $2`, resultColumns)
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, sessionID, classID); err != nil {
		return nil, err
	}
	return &result, nil
}

// Upsert publishes results for a (session, class, center) triple. A second
// publish for the same triple updates status and published_at in place.
func (r *ResultRepository) Upsert(ctx context.Context, result *models.Result) (*models.Result, error) {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now
	const query = `INSERT INTO results (id, session_id, class_id, center_id, status, published_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (session_id, class_id, center_id)
        DO UPDATE SET status = EXCLUDED.status, published_at = EXCLUDED.published_at, updated_at = EXCLUDED.updated_at
        RETURNING id, session_id, class_id, center_id, status, published_at, created_at, updated_at`
	var stored models.Result
	if err := r.db.GetContext(ctx, &stored, query,
		result.ID, result.SessionID, result.ClassID, result.CenterID,
		result.Status, result.PublishedAt, result.CreatedAt, result.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert result: %w", err)
	}
	return &stored, nil
}

// Delete removes a result row.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM results WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}
