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

type centerRepository interface {
	List(ctx context.Context, filter models.CenterFilter, scopeID string) ([]models.Center, error)
	FindByID(ctx context.Context, id string) (*models.Center, error)
	Create(ctx context.Context, center *models.Center) error
	Update(ctx context.Context, center *models.Center) error
	UpdateStatus(ctx context.Context, id string, status models.CenterStatus) error
	HasRestrictedDependents(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// CreateCenterRequest holds payload for registering a center.
type CreateCenterRequest struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Status  string `json:"status" validate:"omitempty,oneof=active pending suspended"`
}

// UpdateCenterRequest holds payload for updating a center.
type UpdateCenterRequest struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// UpdateCenterStatusRequest changes a center's lifecycle state.
type UpdateCenterStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active pending suspended"`
}

// CenterService handles center use-cases. Centers are the tenant roots, so
// every mutation here is admin-only; non-admins can only read their own.
type CenterService struct {
	repo      centerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCenterService constructs the center service.
func NewCenterService(repo centerRepository, validate *validator.Validate, logger *zap.Logger) *CenterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CenterService{repo: repo, validator: validate, logger: logger}
}

// List returns centers visible to the principal.
func (s *CenterService) List(ctx context.Context, claims *models.JWTClaims, filter models.CenterFilter) ([]models.Center, error) {
	scopeID, err := effectiveCenter(claims, "")
	if err != nil {
		return nil, err
	}
	centers, err := s.repo.List(ctx, filter, scopeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list centers")
	}
	return centers, nil
}

// Get returns one center. A non-admin asking for a foreign center gets 403.
func (s *CenterService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Center, error) {
	center, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load center")
	}
	if err := authorizeRecord(claims, center.ID); err != nil {
		return nil, err
	}
	return center, nil
}

// Create registers a new center. Admin only.
func (s *CenterService) Create(ctx context.Context, claims *models.JWTClaims, req CreateCenterRequest) (*models.Center, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	status := models.CenterStatusPending
	if req.Status != "" {
		status = models.CenterStatus(req.Status)
	}
	center := &models.Center{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Status:  status,
	}
	if err := s.repo.Create(ctx, center); err != nil {
		return nil, mapStoreError(err, "center code is already in use")
	}
	return center, nil
}

// Update replaces a center's mutable fields. Admin only.
func (s *CenterService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateCenterRequest) (*models.Center, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	center, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load center")
	}
	center.Name = req.Name
	center.Code = req.Code
	center.Address = req.Address
	center.Phone = req.Phone
	center.Email = req.Email
	if err := s.repo.Update(ctx, center); err != nil {
		return nil, mapStoreError(err, "center code is already in use")
	}
	return center, nil
}

// UpdateStatus transitions a center's lifecycle state. Admin only.
func (s *CenterService) UpdateStatus(ctx context.Context, claims *models.JWTClaims, id string, req UpdateCenterStatusRequest) (*models.Center, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	center, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load center")
	}
	status := models.CenterStatus(req.Status)
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update center status")
	}
	center.Status = status
	return center, nil
}

// Delete removes a center unless financially-relevant records reference it.
// Admin only.
func (s *CenterService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if err := requireAdmin(claims); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "center not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load center")
	}
	restricted, err := s.repo.HasRestrictedDependents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check center dependents")
	}
	if restricted {
		return appErrors.Clone(appErrors.ErrConflict, "center has payments or certificates and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "center is referenced by other records")
	}
	return nil
}
