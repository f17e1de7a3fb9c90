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

// MarkRepository manages persistence for marks.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs a MarkRepository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

const markColumns = `id, student_id, subject_id, session_id, exam_type, marks_obtained, center_id, created_at, updated_at`

// List returns marks matching the filter.
func (r *MarkRepository) List(ctx context.Context, filter models.MarkFilter) ([]models.Mark, error) {
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
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	query := fmt.Sprintf(`SELECT %s FROM marks WHERE %s ORDER BY created_at DESC`,
		markColumns, strings.Join(conditions, " AND "))
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// FindByID fetches a mark by ID.
func (r *MarkRepository) FindByID(ctx context.Context, id string) (*models.Mark, error) {
	query := fmt.Sprintf(`SELECT %s FROM marks WHERE id = $1`, markColumns)
	var mark models.Mark
	if err := r.db.GetContext(ctx, &mark, query, id); err != nil {
		return nil, err
	}
	return &mark, nil
}

// Create inserts a new mark. A duplicate exam component surfaces as a
// unique violation from the store.
func (r *MarkRepository) Create(ctx context.Context, mark *models.Mark) error {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	mark.CreatedAt = now
	mark.UpdatedAt = now
	const query = `INSERT INTO marks (id, student_id, subject_id, session_id, exam_type, marks_obtained, center_id, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :session_id, :exam_type, :marks_obtained, :center_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("create mark: %w", err)
	}
	return nil
}

// BulkInsert writes a batch inside one transaction, all-or-nothing.
func (r *MarkRepository) BulkInsert(ctx context.Context, marks []models.Mark) error {
	if len(marks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk marks: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO marks (id, student_id, subject_id, session_id, exam_type, marks_obtained, center_id, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :session_id, :exam_type, :marks_obtained, :center_id, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range marks {
		mark := &marks[i]
		if mark.ID == "" {
			mark.ID = uuid.NewString()
		}
		mark.CreatedAt = now
		mark.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, mark); err != nil {
			return fmt.Errorf("bulk insert marks: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk marks: %w", err)
	}
	committed = true
	return nil
}

// Update modifies an existing mark.
func (r *MarkRepository) Update(ctx context.Context, mark *models.Mark) error {
	mark.UpdatedAt = time.Now().UTC()
	const query = `UPDATE marks SET exam_type = :exam_type, marks_obtained = :marks_obtained, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, mark); err != nil {
		return fmt.Errorf("update mark: %w", err)
	}
	return nil
}

// Delete removes a mark.
func (r *MarkRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM marks WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete mark: %w", err)
	}
	return nil
}

// ListByStudentWithSubjects joins marks with their subjects for result
// computation. max_marks is NULL when the subject row is missing.
func (r *MarkRepository) ListByStudentWithSubjects(ctx context.Context, studentID, centerID string) ([]models.MarkWithSubject, error) {
	conditions := []string{"m.student_id = $1"}
	args := []interface{}{studentID}
	if centerID != "" {
		conditions = append(conditions, "m.center_id = $2")
		args = append(args, centerID)
	}
	query := fmt.Sprintf(`SELECT m.id, m.student_id, m.subject_id, m.session_id, m.exam_type, m.marks_obtained,
        m.center_id, m.created_at, m.updated_at, s.name AS subject_name, s.max_marks
        FROM marks m LEFT JOIN subjects s ON s.id = m.subject_id
        WHERE %s ORDER BY m.created_at ASC`, strings.Join(conditions, " AND "))
	var marks []models.MarkWithSubject
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return marks, nil
}
