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

type sessionRepository interface {
	List(ctx context.Context, centerID string, status *models.SessionStatus) ([]models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

// CreateSessionRequest holds payload for creating academic sessions.
type CreateSessionRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Status    string    `json:"status" validate:"omitempty,oneof=active upcoming closed"`
	CenterID  string    `json:"center_id"`
}

// UpdateSessionRequest holds payload for updating academic sessions.
type UpdateSessionRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Status    string    `json:"status" validate:"required,oneof=active upcoming closed"`
}

// SessionService handles academic session use-cases.
type SessionService struct {
	repo      sessionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, validator: validate, logger: logger}
}

// List returns sessions visible to the principal.
func (s *SessionService) List(ctx context.Context, claims *models.JWTClaims, requestedCenter string, status *models.SessionStatus) ([]models.Session, error) {
	centerID, err := effectiveCenter(claims, requestedCenter)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.List(ctx, centerID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if err := authorizeRecord(claims, session.CenterID); err != nil {
		return nil, err
	}
	return session, nil
}

// Create registers a new session in the principal's center. Admins must name
// a center explicitly.
func (s *SessionService) Create(ctx context.Context, claims *models.JWTClaims, req CreateSessionRequest) (*models.Session, error) {
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
	status := models.SessionStatusUpcoming
	if req.Status != "" {
		status = models.SessionStatus(req.Status)
	}
	session := &models.Session{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    status,
		CenterID:  centerID,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, mapStoreError(err, "session already exists")
	}
	return session, nil
}

// Update replaces a session's mutable fields.
func (s *SessionService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if err := authorizeRecord(claims, session.CenterID); err != nil {
		return nil, err
	}
	session.Name = req.Name
	session.StartDate = req.StartDate
	session.EndDate = req.EndDate
	session.Status = models.SessionStatus(req.Status)
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, mapStoreError(err, "session already exists")
	}
	return session, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if err := authorizeRecord(claims, session.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "session is referenced by other records")
	}
	return nil
}
