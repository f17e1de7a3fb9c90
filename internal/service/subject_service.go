package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, centerID string, filter models.SubjectFilter) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// CreateSubjectRequest holds payload for creating subjects.
type CreateSubjectRequest struct {
	Name      string  `json:"name" validate:"required"`
	Code      string  `json:"code" validate:"required"`
	ClassID   string  `json:"class_id" validate:"required"`
	MaxMarks  float64 `json:"max_marks" validate:"required,gt=0"`
	PassMarks float64 `json:"pass_marks" validate:"gte=0,ltefield=MaxMarks"`
	CenterID  string  `json:"center_id"`
}

// UpdateSubjectRequest holds payload for updating subjects.
type UpdateSubjectRequest struct {
	Name      string  `json:"name" validate:"required"`
	Code      string  `json:"code" validate:"required"`
	MaxMarks  float64 `json:"max_marks" validate:"required,gt=0"`
	PassMarks float64 `json:"pass_marks" validate:"gte=0,ltefield=MaxMarks"`
}

// SubjectService handles subject use-cases.
type SubjectService struct {
	repo      subjectRepository
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.SchoolClass, error)
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, classes classReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns subjects visible to the principal.
func (s *SubjectService) List(ctx context.Context, claims *models.JWTClaims, requestedCenter string, filter models.SubjectFilter) ([]models.Subject, error) {
	centerID, err := effectiveCenter(claims, requestedCenter)
	if err != nil {
		return nil, err
	}
	subjects, err := s.repo.List(ctx, centerID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := authorizeRecord(claims, subject.CenterID); err != nil {
		return nil, err
	}
	return subject, nil
}

// Create registers a new subject attached to a class the principal can see.
func (s *SubjectService) Create(ctx context.Context, claims *models.JWTClaims, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	centerID, err := effectiveCenter(claims, req.CenterID)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("validation failed", map[string][]string{
				"class_id": {"referenced class does not exist"},
			})
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify class")
	}
	if err := authorizeRecord(claims, class.CenterID); err != nil {
		return nil, err
	}
	if centerID == "" {
		centerID = class.CenterID
	}
	subject := &models.Subject{
		Name:      req.Name,
		Code:      req.Code,
		ClassID:   req.ClassID,
		MaxMarks:  req.MaxMarks,
		PassMarks: req.PassMarks,
		CenterID:  centerID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, mapStoreError(err, "subject code is already in use for this class")
	}
	return subject, nil
}

// Update replaces a subject's mutable fields.
func (s *SubjectService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := authorizeRecord(claims, subject.CenterID); err != nil {
		return nil, err
	}
	subject.Name = req.Name
	subject.Code = req.Code
	subject.MaxMarks = req.MaxMarks
	subject.PassMarks = req.PassMarks
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, mapStoreError(err, "subject code is already in use for this class")
	}
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := authorizeRecord(claims, subject.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "subject is referenced by other records")
	}
	return nil
}
