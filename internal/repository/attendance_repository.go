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

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, student_id, session_id, class_id, center_id, date, status, remarks, recorded_by, created_at, updated_at`

func attendanceConditions(filter models.AttendanceFilter) ([]string, []interface{}) {
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
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, *filter.Date)
	}
	if filter.Status != nil && filter.Status.Valid() {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	return conditions, args
}

// List returns a page of attendance rows ordered by date descending.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	conditions, args := attendanceConditions(filter)
	whereClause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE %s ORDER BY date DESC LIMIT %d OFFSET %d`,
		attendanceColumns, whereClause, size, offset)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendances WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendances: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a single attendance record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE id = $1`, attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a single attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO attendances (id, student_id, session_id, class_id, center_id, date, status, remarks, recorded_by, created_at, updated_at)
        VALUES (:id, :student_id, :session_id, :class_id, :center_id, :date, :status, :remarks, :recorded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// BulkInsert writes a batch inside one transaction. Any failure rolls the
// whole batch back; partial application is not allowed.
func (r *AttendanceRepository) BulkInsert(ctx context.Context, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendances (id, student_id, session_id, class_id, center_id, date, status, remarks, recorded_by, created_at, updated_at)
        VALUES (:id, :student_id, :session_id, :class_id, :center_id, :date, :status, :remarks, :recorded_by, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("bulk insert attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk attendance: %w", err)
	}
	committed = true
	return nil
}

// Update modifies an existing attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendances SET date = :date, status = :status, remarks = :remarks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance record.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendances WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// StudentSummary counts a student's attendance rows grouped by status.
// centerID restricts the count when non-empty.
func (r *AttendanceRepository) StudentSummary(ctx context.Context, studentID, centerID string) ([]models.AttendanceStatusCount, error) {
	conditions := []string{"student_id = $1"}
	args := []interface{}{studentID}
	if centerID != "" {
		conditions = append(conditions, "center_id = $2")
		args = append(args, centerID)
	}
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS count FROM attendances WHERE %s GROUP BY status`,
		strings.Join(conditions, " AND "))
	var counts []models.AttendanceStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("student attendance summary: %w", err)
	}
	return counts, nil
}

// ClassSummary counts a class's attendance rows grouped by date and status,
// most recent dates first.
func (r *AttendanceRepository) ClassSummary(ctx context.Context, classID, centerID string) ([]models.ClassAttendanceRow, error) {
	conditions := []string{"class_id = $1"}
	args := []interface{}{classID}
	if centerID != "" {
		conditions = append(conditions, "center_id = $2")
		args = append(args, centerID)
	}
	query := fmt.Sprintf(`SELECT date, status, COUNT(*) AS count FROM attendances WHERE %s
        GROUP BY date, status ORDER BY date DESC`, strings.Join(conditions, " AND "))
	var rows []models.ClassAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("class attendance summary: %w", err)
	}
	return rows, nil
}
