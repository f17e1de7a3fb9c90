package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type markRepository interface {
	List(ctx context.Context, filter models.MarkFilter) ([]models.Mark, error)
	FindByID(ctx context.Context, id string) (*models.Mark, error)
	Create(ctx context.Context, mark *models.Mark) error
	BulkInsert(ctx context.Context, marks []models.Mark) error
	Update(ctx context.Context, mark *models.Mark) error
	Delete(ctx context.Context, id string) error
	ListByStudentWithSubjects(ctx context.Context, studentID, centerID string) ([]models.MarkWithSubject, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateMarkRequest records marks for one exam component. The tenant column
// is derived from the student, never from the payload.
type CreateMarkRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	SubjectID     string  `json:"subject_id" validate:"required"`
	SessionID     string  `json:"session_id" validate:"required"`
	ExamType      string  `json:"exam_type" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
}

// BulkMarkRequest enters many marks at once, all-or-nothing.
type BulkMarkRequest struct {
	Marks []CreateMarkRequest `json:"marks" validate:"required,min=1,dive"`
}

// UpdateMarkRequest corrects an entered mark.
type UpdateMarkRequest struct {
	ExamType      string  `json:"exam_type" validate:"required"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
}

// MarkService handles exam mark entry and retrieval.
type MarkService struct {
	repo      markRepository
	students  studentReader
	subjects  subjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs the mark service.
func NewMarkService(repo markRepository, students studentReader, subjects subjectReader, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{repo: repo, students: students, subjects: subjects, validator: validate, logger: logger}
}

// List returns marks visible to the principal.
func (s *MarkService) List(ctx context.Context, claims *models.JWTClaims, filter models.MarkFilter) ([]models.Mark, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, err
	}
	filter.CenterID = centerID
	marks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}

// Get returns one mark.
func (s *MarkService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Mark, error) {
	mark, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mark not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark")
	}
	if err := authorizeRecord(claims, mark.CenterID); err != nil {
		return nil, err
	}
	return mark, nil
}

// ListByStudent returns a student's marks joined with subject names and max
// marks.
func (s *MarkService) ListByStudent(ctx context.Context, claims *models.JWTClaims, studentID string) ([]models.MarkWithSubject, error) {
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
	marks, err := s.repo.ListByStudentWithSubjects(ctx, studentID, student.CenterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}

// ListBySubject returns all marks entered for one subject.
func (s *MarkService) ListBySubject(ctx context.Context, claims *models.JWTClaims, subjectID string) ([]models.Mark, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := authorizeRecord(claims, subject.CenterID); err != nil {
		return nil, err
	}
	marks, err := s.repo.List(ctx, models.MarkFilter{SubjectID: subjectID, CenterID: subject.CenterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}

// Create enters a mark. A duplicate (student, subject, session, exam type)
// entry is a conflict.
func (s *MarkService) Create(ctx context.Context, claims *models.JWTClaims, req CreateMarkRequest) (*models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	mark, err := s.buildMark(ctx, claims, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, mark); err != nil {
		return nil, mapStoreError(err, "marks are already entered for this student, subject and exam")
	}
	return mark, nil
}

// Bulk enters many marks in one transaction. Any failing row aborts the
// whole batch.
func (s *MarkService) Bulk(ctx context.Context, claims *models.JWTClaims, req BulkMarkRequest) ([]models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	marks := make([]models.Mark, 0, len(req.Marks))
	for i, entry := range req.Marks {
		mark, err := s.buildMark(ctx, claims, entry)
		if err != nil {
			return nil, indexFields(err, fmt.Sprintf("marks[%d]", i))
		}
		marks = append(marks, *mark)
	}
	if err := s.repo.BulkInsert(ctx, marks); err != nil {
		return nil, mapStoreError(err, "marks are already entered for one or more students")
	}
	return marks, nil
}

// Update corrects a mark's exam type and obtained value.
func (s *MarkService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateMarkRequest) (*models.Mark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	mark, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mark not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark")
	}
	if err := authorizeRecord(claims, mark.CenterID); err != nil {
		return nil, err
	}
	mark.ExamType = req.ExamType
	mark.MarksObtained = req.MarksObtained
	if err := s.repo.Update(ctx, mark); err != nil {
		return nil, mapStoreError(err, "marks are already entered for this student, subject and exam")
	}
	return mark, nil
}

// Delete removes a mark.
func (s *MarkService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	mark, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mark not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark")
	}
	if err := authorizeRecord(claims, mark.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mark")
	}
	return nil
}

func (s *MarkService) buildMark(ctx context.Context, claims *models.JWTClaims, req CreateMarkRequest) (*models.Mark, error) {
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
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("validation failed", map[string][]string{
				"subject_id": {"referenced subject does not exist"},
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if req.MarksObtained > subject.MaxMarks {
		return nil, appErrors.Validation("validation failed", map[string][]string{
			"marks_obtained": {"cannot exceed the subject's max marks"},
		})
	}
	return &models.Mark{
		StudentID:     student.ID,
		SubjectID:     req.SubjectID,
		SessionID:     req.SessionID,
		ExamType:      req.ExamType,
		MarksObtained: req.MarksObtained,
		CenterID:      student.CenterID,
	}, nil
}
