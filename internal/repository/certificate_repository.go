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

// CertificateRepository manages persistence for certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `id, student_id, center_id, type, title, file_path, issued_at, created_at, updated_at`

// List returns certificates matching the filter.
func (r *CertificateRepository) List(ctx context.Context, filter models.CertificateFilter) ([]models.Certificate, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.CenterID != "" {
		conditions = append(conditions, fmt.Sprintf("center_id = $%d", len(args)+1))
		args = append(args, filter.CenterID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Type != nil && filter.Type.Valid() {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE %s ORDER BY issued_at DESC`,
		certificateColumns, strings.Join(conditions, " AND "))
	var certificates []models.Certificate
	if err := r.db.SelectContext(ctx, &certificates, query, args...); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certificates, nil
}

// FindByID fetches a certificate by ID.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := fmt.Sprintf(`SELECT %s FROM certificates WHERE id = $1`, certificateColumns)
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, id); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// Create inserts a new certificate row.
func (r *CertificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	if certificate.ID == "" {
		certificate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	certificate.CreatedAt = now
	certificate.UpdatedAt = now
	if certificate.IssuedAt.IsZero() {
		certificate.IssuedAt = now
	}
	const query = `INSERT INTO certificates (id, student_id, center_id, type, title, file_path, issued_at, created_at, updated_at)
        VALUES (:id, :student_id, :center_id, :type, :title, :file_path, :issued_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, certificate); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// SetFilePath records the rendered document location.
func (r *CertificateRepository) SetFilePath(ctx context.Context, id, filePath string) error {
	const query = `UPDATE certificates SET file_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("set certificate file path: %w", err)
	}
	return nil
}

// Delete removes a certificate row.
func (r *CertificateRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM certificates WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return nil
}
