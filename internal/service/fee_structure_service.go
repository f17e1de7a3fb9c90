package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type feeStructureRepository interface {
	List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, error)
	FindByID(ctx context.Context, id string) (*models.FeeStructure, error)
	Create(ctx context.Context, fee *models.FeeStructure) error
	Update(ctx context.Context, fee *models.FeeStructure) error
	Delete(ctx context.Context, id string) error
}

// CreateFeeStructureRequest defines a fee schedule for a class and session.
type CreateFeeStructureRequest struct {
	ClassID   string     `json:"class_id" validate:"required"`
	SessionID string     `json:"session_id" validate:"required"`
	Amount    float64    `json:"amount" validate:"required,gt=0"`
	Frequency string     `json:"frequency" validate:"required,oneof=monthly quarterly yearly one_time"`
	DueDate   *time.Time `json:"due_date"`
}

// UpdateFeeStructureRequest alters an existing fee schedule.
type UpdateFeeStructureRequest struct {
	Amount    float64    `json:"amount" validate:"required,gt=0"`
	Frequency string     `json:"frequency" validate:"required,oneof=monthly quarterly yearly one_time"`
	DueDate   *time.Time `json:"due_date"`
}

// FeeStructureService handles fee schedule use-cases.
type FeeStructureService struct {
	repo      feeStructureRepository
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeStructureService constructs the fee structure service.
func NewFeeStructureService(repo feeStructureRepository, classes classReader, validate *validator.Validate, logger *zap.Logger) *FeeStructureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeStructureService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns fee schedules visible to the principal.
func (s *FeeStructureService) List(ctx context.Context, claims *models.JWTClaims, filter models.FeeStructureFilter) ([]models.FeeStructure, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, err
	}
	filter.CenterID = centerID
	fees, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
	}
	return fees, nil
}

// Get returns one fee schedule.
func (s *FeeStructureService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.FeeStructure, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	if err := authorizeRecord(claims, fee.CenterID); err != nil {
		return nil, err
	}
	return fee, nil
}

// Create defines a fee schedule for a class the principal can see.
func (s *FeeStructureService) Create(ctx context.Context, claims *models.JWTClaims, req CreateFeeStructureRequest) (*models.FeeStructure, error) {
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
	fee := &models.FeeStructure{
		ClassID:   req.ClassID,
		SessionID: req.SessionID,
		CenterID:  class.CenterID,
		Amount:    req.Amount,
		Frequency: models.FeeFrequency(req.Frequency),
		DueDate:   req.DueDate,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, mapStoreError(err, "a fee structure already exists for this class and session")
	}
	return fee, nil
}

// Update alters a fee schedule.
func (s *FeeStructureService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	if err := authorizeRecord(claims, fee.CenterID); err != nil {
		return nil, err
	}
	fee.Amount = req.Amount
	fee.Frequency = models.FeeFrequency(req.Frequency)
	fee.DueDate = req.DueDate
	if err := s.repo.Update(ctx, fee); err != nil {
		return nil, mapStoreError(err, "a fee structure already exists for this class and session")
	}
	return fee, nil
}

// Delete removes a fee schedule.
func (s *FeeStructureService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	if err := authorizeRecord(claims, fee.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee structure")
	}
	return nil
}
