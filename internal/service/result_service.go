package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type resultRepository interface {
	List(ctx context.Context, centerID string) ([]models.Result, error)
	FindByID(ctx context.Context, id string) (*models.Result, error)
	FindBySessionClass(ctx context.Context, sessionID, classID string) (*models.Result, error)
	Upsert(ctx context.Context, result *models.Result) (*models.Result, error)
	Delete(ctx context.Context, id string) error
}

type resultMarkReader interface {
	ListByStudentWithSubjects(ctx context.Context, studentID, centerID string) ([]models.MarkWithSubject, error)
}

// PublishResultRequest sets the publication status for a (session, class)
// pair. Re-submitting the same pair updates the existing row, so a pair can
// move back to draft without losing its record.
type PublishResultRequest struct {
	SessionID   string     `json:"session_id" validate:"required"`
	ClassID     string     `json:"class_id" validate:"required"`
	Status      string     `json:"status" validate:"required,oneof=draft published"`
	PublishedAt *time.Time `json:"published_at"`
}

// ResultService computes student results and tracks publication state.
type ResultService struct {
	repo      resultRepository
	marks     resultMarkReader
	students  studentReader
	classes   classReader
	cache     *CacheService
	resultTTL time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs the result service.
func NewResultService(repo resultRepository, marks resultMarkReader, students studentReader, classes classReader, cache *CacheService, resultTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{repo: repo, marks: marks, students: students, classes: classes, cache: cache, resultTTL: resultTTL, validator: validate, logger: logger}
}

// List returns publication rows visible to the principal.
func (s *ResultService) List(ctx context.Context, claims *models.JWTClaims, requestedCenter string) ([]models.Result, error) {
	centerID, err := effectiveCenter(claims, requestedCenter)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.List(ctx, centerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// Publish writes the requested publication status for a (session, class)
// pair. The write is an upsert, so re-submitting the same pair updates the
// status and timestamp instead of duplicating the row.
func (s *ResultService) Publish(ctx context.Context, claims *models.JWTClaims, req PublishResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("validation failed", map[string][]string{
				"class_id": {"referenced class does not exist"},
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := authorizeRecord(claims, class.CenterID); err != nil {
		return nil, err
	}

	publishedAt := req.PublishedAt
	if publishedAt == nil {
		now := time.Now().UTC()
		publishedAt = &now
	}
	result := &models.Result{
		SessionID:   req.SessionID,
		ClassID:     req.ClassID,
		CenterID:    class.CenterID,
		Status:      models.ResultStatus(req.Status),
		PublishedAt: publishedAt,
	}
	stored, err := s.repo.Upsert(ctx, result)
	if err != nil {
		return nil, mapStoreError(err, "result publication conflicts with an existing row")
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("result:status:%s:%s", req.SessionID, req.ClassID))
	return stored, nil
}

// Status reports whether results are published for a (session, class) pair.
// An absent row reads as an unpublished draft.
func (s *ResultService) Status(ctx context.Context, claims *models.JWTClaims, sessionID, classID string) (*models.ResultStatusInfo, error) {
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

	key := fmt.Sprintf("result:status:%s:%s", sessionID, classID)
	var info models.ResultStatusInfo
	if hit, _ := s.cache.Get(ctx, key, &info); hit {
		return &info, nil
	}

	result, err := s.repo.FindBySessionClass(ctx, sessionID, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			info = models.ResultStatusInfo{Published: false, Status: string(models.ResultStatusDraft)}
			return &info, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	info = models.ResultStatusInfo{
		Published:   result.Status == models.ResultStatusPublished,
		Status:      string(result.Status),
		PublishedAt: result.PublishedAt,
	}
	_ = s.cache.Set(ctx, key, info, s.resultTTL)
	return &info, nil
}

// StudentResult computes a student's aggregate result from their marks.
func (s *ResultService) StudentResult(ctx context.Context, claims *models.JWTClaims, studentID string) (*models.StudentResult, error) {
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

	marks, err := s.marks.ListByStudentWithSubjects(ctx, studentID, student.CenterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	result := ComputeStudentResult(studentID, marks)
	return &result, nil
}

// Unpublish removes the publication row for a (session, class) pair.
func (s *ResultService) Unpublish(ctx context.Context, claims *models.JWTClaims, sessionID, classID string) error {
	result, err := s.repo.FindBySessionClass(ctx, sessionID, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	if err := authorizeRecord(claims, result.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, result.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete result")
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("result:status:%s:%s", sessionID, classID))
	return nil
}

// ComputeStudentResult folds a student's marks into totals, a percentage
// rounded to two decimals, a letter grade and a pass/fail verdict. A student
// with no marks (or zero max marks) reads as 0% and grade F. Subjects missing
// a max marks record count as out of 100.
func ComputeStudentResult(studentID string, marks []models.MarkWithSubject) models.StudentResult {
	var total, totalMax float64
	for _, mark := range marks {
		total += mark.MarksObtained
		if mark.MaxMarks != nil {
			totalMax += *mark.MaxMarks
		} else {
			totalMax += 100
		}
	}
	percentage := 0.0
	if totalMax > 0 {
		percentage = math.Round(total/totalMax*100*100) / 100
	}
	return models.StudentResult{
		StudentID:     studentID,
		Marks:         marks,
		TotalMarks:    total,
		TotalMaxMarks: totalMax,
		Percentage:    percentage,
		Grade:         gradeFor(percentage),
		Result:        verdictFor(percentage),
	}
}

func gradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C+"
	case percentage >= 40:
		return "C"
	case percentage >= 35:
		return "D"
	default:
		return "F"
	}
}

func verdictFor(percentage float64) string {
	if percentage >= 35 {
		return "Pass"
	}
	return "Fail"
}
