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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
	TotalCompletedByStudent(ctx context.Context, studentID, centerID string) (float64, error)
}

// CreatePaymentRequest records a fee payment.
type CreatePaymentRequest struct {
	StudentID     string     `json:"student_id" validate:"required"`
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	PaymentMethod string     `json:"payment_method" validate:"required"`
	Status        string     `json:"status" validate:"omitempty,oneof=pending completed failed refunded"`
	SessionID     string     `json:"session_id" validate:"required"`
	PaidAt        *time.Time `json:"paid_at"`
}

// UpdatePaymentRequest alters a payment's status or method.
type UpdatePaymentRequest struct {
	Amount        float64    `json:"amount" validate:"required,gt=0"`
	PaymentMethod string     `json:"payment_method" validate:"required"`
	Status        string     `json:"status" validate:"required,oneof=pending completed failed refunded"`
	PaidAt        *time.Time `json:"paid_at"`
}

// PaymentService handles fee payments and the per-student payment summary.
type PaymentService struct {
	repo      paymentRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns payments visible to the principal.
func (s *PaymentService) List(ctx context.Context, claims *models.JWTClaims, filter models.PaymentFilter) ([]models.Payment, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, err
	}
	filter.CenterID = centerID
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := authorizeRecord(claims, payment.CenterID); err != nil {
		return nil, err
	}
	return payment, nil
}

// StudentSummary returns a student's payments with the completed total.
func (s *PaymentService) StudentSummary(ctx context.Context, claims *models.JWTClaims, studentID string) (*models.StudentPaymentSummary, error) {
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
	payments, err := s.repo.List(ctx, models.PaymentFilter{StudentID: studentID, CenterID: student.CenterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	total, err := s.repo.TotalCompletedByStudent(ctx, studentID, student.CenterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total payments")
	}
	return &models.StudentPaymentSummary{StudentID: studentID, Payments: payments, TotalPaid: total}, nil
}

// Create records a payment for a student in the principal's center.
func (s *PaymentService) Create(ctx context.Context, claims *models.JWTClaims, req CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
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
	status := models.PaymentStatusPending
	if req.Status != "" {
		status = models.PaymentStatus(req.Status)
	}
	paidAt := req.PaidAt
	if status == models.PaymentStatusCompleted && paidAt == nil {
		now := time.Now().UTC()
		paidAt = &now
	}
	payment := &models.Payment{
		StudentID:     student.ID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        status,
		SessionID:     req.SessionID,
		CenterID:      student.CenterID,
		PaidAt:        paidAt,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, mapStoreError(err, "payment already recorded")
	}
	return payment, nil
}

// Update alters a payment.
func (s *PaymentService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := authorizeRecord(claims, payment.CenterID); err != nil {
		return nil, err
	}
	payment.Amount = req.Amount
	payment.PaymentMethod = req.PaymentMethod
	payment.Status = models.PaymentStatus(req.Status)
	payment.PaidAt = req.PaidAt
	if payment.Status == models.PaymentStatusCompleted && payment.PaidAt == nil {
		now := time.Now().UTC()
		payment.PaidAt = &now
	}
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, mapStoreError(err, "payment already recorded")
	}
	return payment, nil
}

// Delete removes a payment.
func (s *PaymentService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := authorizeRecord(claims, payment.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}
