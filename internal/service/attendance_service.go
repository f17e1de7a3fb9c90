package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Create(ctx context.Context, record *models.Attendance) error
	BulkInsert(ctx context.Context, records []models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
	Delete(ctx context.Context, id string) error
	StudentSummary(ctx context.Context, studentID, centerID string) ([]models.AttendanceStatusCount, error)
	ClassSummary(ctx context.Context, classID, centerID string) ([]models.ClassAttendanceRow, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// CreateAttendanceRequest records one student for one day. The tenant, class
// and session columns are derived from the student, never from the payload.
type CreateAttendanceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks   *string   `json:"remarks"`
}

// BulkAttendanceRequest records many students at once. The batch is applied
// all-or-nothing.
type BulkAttendanceRequest struct {
	Records []CreateAttendanceRequest `json:"records" validate:"required,min=1,dive"`
}

// UpdateAttendanceRequest corrects a recorded entry.
type UpdateAttendanceRequest struct {
	Date    time.Time `json:"date" validate:"required"`
	Status  string    `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks *string   `json:"remarks"`
}

// AttendanceService handles daily attendance plus the per-student and
// per-class aggregations.
type AttendanceService struct {
	repo       attendanceRepository
	students   studentReader
	classes    classReader
	cache      *CacheService
	summaryTTL time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentReader, classes classReader, cache *CacheService, summaryTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, students: students, classes: classes, cache: cache, summaryTTL: summaryTTL, validator: validate, logger: logger}
}

// List returns a page of attendance records, newest date first.
func (s *AttendanceService) List(ctx context.Context, claims *models.JWTClaims, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, nil, err
	}
	filter.CenterID = centerID
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one attendance record.
func (s *AttendanceService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Attendance, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := authorizeRecord(claims, record.CenterID); err != nil {
		return nil, err
	}
	return record, nil
}

// Create records attendance for one student.
func (s *AttendanceService) Create(ctx context.Context, claims *models.JWTClaims, req CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	record, err := s.buildRecord(ctx, claims, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, mapStoreError(err, "attendance is already recorded for this student and date")
	}
	s.invalidateSummaries(ctx, record.StudentID, record.ClassID)
	return record, nil
}

// Bulk records attendance for many students in one transaction. Any failing
// row aborts the whole batch.
func (s *AttendanceService) Bulk(ctx context.Context, claims *models.JWTClaims, req BulkAttendanceRequest) ([]models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	records := make([]models.Attendance, 0, len(req.Records))
	for i, entry := range req.Records {
		record, err := s.buildRecord(ctx, claims, entry)
		if err != nil {
			return nil, indexFields(err, fmt.Sprintf("records[%d]", i))
		}
		records = append(records, *record)
	}
	if err := s.repo.BulkInsert(ctx, records); err != nil {
		return nil, mapStoreError(err, "attendance is already recorded for one or more students on this date")
	}
	for _, record := range records {
		s.invalidateSummaries(ctx, record.StudentID, record.ClassID)
	}
	return records, nil
}

// Update corrects an existing record. The derived columns are untouched.
func (s *AttendanceService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := authorizeRecord(claims, record.CenterID); err != nil {
		return nil, err
	}
	record.Date = req.Date
	record.Status = models.AttendanceStatus(req.Status)
	record.Remarks = req.Remarks
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, mapStoreError(err, "attendance is already recorded for this student and date")
	}
	s.invalidateSummaries(ctx, record.StudentID, record.ClassID)
	return record, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := authorizeRecord(claims, record.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	s.invalidateSummaries(ctx, record.StudentID, record.ClassID)
	return nil
}

// StudentSummary aggregates one student's attendance counts by status.
func (s *AttendanceService) StudentSummary(ctx context.Context, claims *models.JWTClaims, studentID string) (*models.StudentAttendanceSummary, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := authorizeRecord(claims, student.CenterID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("attendance:summary:student:%s", studentID)
	var summary models.StudentAttendanceSummary
	if hit, _ := s.cache.Get(ctx, key, &summary); hit {
		return &summary, nil
	}

	counts, err := s.repo.StudentSummary(ctx, studentID, student.CenterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	total := 0
	for _, row := range counts {
		total += row.Count
	}
	summary = models.StudentAttendanceSummary{StudentID: studentID, Summary: counts, Total: total}
	_ = s.cache.Set(ctx, key, summary, s.summaryTTL)
	return &summary, nil
}

// ClassSummary aggregates attendance counts per (date, status) for a class,
// newest date first.
func (s *AttendanceService) ClassSummary(ctx context.Context, claims *models.JWTClaims, classID string) ([]models.ClassAttendanceRow, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := authorizeRecord(claims, class.CenterID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("attendance:summary:class:%s", classID)
	var rows []models.ClassAttendanceRow
	if hit, _ := s.cache.Get(ctx, key, &rows); hit {
		return rows, nil
	}

	rows, err = s.repo.ClassSummary(ctx, classID, class.CenterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	_ = s.cache.Set(ctx, key, rows, s.summaryTTL)
	return rows, nil
}

// buildRecord resolves the student and derives the denormalized columns.
func (s *AttendanceService) buildRecord(ctx context.Context, claims *models.JWTClaims, req CreateAttendanceRequest) (*models.Attendance, error) {
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("validation failed", map[string][]string{
				"student_id": {"referenced student does not exist"},
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := authorizeRecord(claims, student.CenterID); err != nil {
		return nil, err
	}
	return &models.Attendance{
		StudentID:  student.ID,
		SessionID:  student.SessionID,
		ClassID:    student.ClassID,
		CenterID:   student.CenterID,
		Date:       req.Date,
		Status:     models.AttendanceStatus(req.Status),
		Remarks:    req.Remarks,
		RecordedBy: claims.UserID,
	}, nil
}

func (s *AttendanceService) invalidateSummaries(ctx context.Context, studentID, classID string) {
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("attendance:summary:student:%s", studentID))
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("attendance:summary:class:%s", classID))
}
