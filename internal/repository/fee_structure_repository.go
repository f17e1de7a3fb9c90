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

// FeeStructureRepository manages persistence for fee structures.
type FeeStructureRepository struct {
	db *sqlx.DB
}

// NewFeeStructureRepository constructs a FeeStructureRepository.
func NewFeeStructureRepository(db *sqlx.DB) *FeeStructureRepository {
	return &FeeStructureRepository{db: db}
}

const feeStructureColumns = `id, class_id, session_id, center_id, amount, frequency, due_date, created_at, updated_at`

// List returns fee structures matching the filter.
func (r *FeeStructureRepository) List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	query := fmt.Sprintf(`SELECT %s FROM fee_structures WHERE %s ORDER BY created_at DESC`,
		feeStructureColumns, strings.Join(conditions, " AND "))
	var fees []models.FeeStructure
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	return fees, nil
}

// FindByID fetches a fee structure by ID.
func (r *FeeStructureRepository) FindByID(ctx context.Context, id string) (*models.FeeStructure, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_structures WHERE id = $1`, feeStructureColumns)
	var fee models.FeeStructure
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create inserts a new fee structure.
func (r *FeeStructureRepository) Create(ctx context.Context, fee *models.FeeStructure) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	fee.CreatedAt = now
	fee.UpdatedAt = now
	const query = `INSERT INTO fee_structures (id, class_id, session_id, center_id, amount, frequency, due_date, created_at, updated_at)
        VALUES (:id, :class_id, :session_id, :center_id, :amount, :frequency, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee structure: %w", err)
	}
	return nil
}

// Update modifies an existing fee structure.
func (r *FeeStructureRepository) Update(ctx context.Context, fee *models.FeeStructure) error {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_structures SET amount = :amount, frequency = :frequency, due_date = :due_date,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee structure: %w", err)
	}
	return nil
}

// Delete removes a fee structure.
func (r *FeeStructureRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM fee_structures WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete fee structure: %w", err)
	}
	return nil
}
