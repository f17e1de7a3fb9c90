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

type classRepository interface {
	List(ctx context.Context, centerID, search string) ([]models.SchoolClass, error)
	FindByID(ctx context.Context, id string) (*models.SchoolClass, error)
	Create(ctx context.Context, class *models.SchoolClass) error
	Update(ctx context.Context, class *models.SchoolClass) error
	Delete(ctx context.Context, id string) error
}

// CreateClassRequest holds payload for creating classes.
type CreateClassRequest struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	CenterID string `json:"center_id"`
}

// UpdateClassRequest holds payload for updating classes.
type UpdateClassRequest struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required"`
}

// ClassService handles class use-cases.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns classes visible to the principal.
func (s *ClassService) List(ctx context.Context, claims *models.JWTClaims, requestedCenter, search string) ([]models.SchoolClass, error) {
	centerID, err := effectiveCenter(claims, requestedCenter)
	if err != nil {
		return nil, err
	}
	classes, err := s.repo.List(ctx, centerID, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.SchoolClass, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := authorizeRecord(claims, class.CenterID); err != nil {
		return nil, err
	}
	return class, nil
}

// Create registers a new class in the principal's center.
func (s *ClassService) Create(ctx context.Context, claims *models.JWTClaims, req CreateClassRequest) (*models.SchoolClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	centerID, err := effectiveCenter(claims, req.CenterID)
	if err != nil {
		return nil, err
	}
	if centerID == "" {
		return nil, appErrors.Validation("validation failed", map[string][]string{
			"center_id": {"this field is required"},
		})
	}
	class := &models.SchoolClass{
		Name:     req.Name,
		Code:     req.Code,
		CenterID: centerID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, mapStoreError(err, "class code is already in use")
	}
	return class, nil
}

// Update replaces a class's mutable fields.
func (s *ClassService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateClassRequest) (*models.SchoolClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := authorizeRecord(claims, class.CenterID); err != nil {
		return nil, err
	}
	class.Name = req.Name
	class.Code = req.Code
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, mapStoreError(err, "class code is already in use")
	}
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := authorizeRecord(claims, class.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "class is referenced by other records")
	}
	return nil
}
