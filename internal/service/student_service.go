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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type profileMarkReader interface {
	List(ctx context.Context, filter models.MarkFilter) ([]models.Mark, error)
}

type profilePaymentReader interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

type profileCertificateReader interface {
	List(ctx context.Context, filter models.CertificateFilter) ([]models.Certificate, error)
}

// CreateStudentRequest holds payload for enrolling students.
type CreateStudentRequest struct {
	Name         string     `json:"name" validate:"required"`
	RollNumber   string     `json:"roll_number" validate:"required"`
	ClassID      string     `json:"class_id" validate:"required"`
	SessionID    string     `json:"session_id" validate:"required"`
	Gender       string     `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate    *time.Time `json:"birth_date"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	GuardianName string     `json:"guardian_name"`
	CenterID     string     `json:"center_id"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Name         string     `json:"name" validate:"required"`
	RollNumber   string     `json:"roll_number" validate:"required"`
	ClassID      string     `json:"class_id" validate:"required"`
	SessionID    string     `json:"session_id" validate:"required"`
	Gender       string     `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate    *time.Time `json:"birth_date"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	GuardianName string     `json:"guardian_name"`
}

// StudentService handles student use-cases including the aggregated profile.
type StudentService struct {
	repo         studentRepository
	marks        profileMarkReader
	payments     profilePaymentReader
	certificates profileCertificateReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, marks profileMarkReader, payments profilePaymentReader, certificates profileCertificateReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, marks: marks, payments: payments, certificates: certificates, validator: validate, logger: logger}
}

// List returns students visible to the principal.
func (s *StudentService) List(ctx context.Context, claims *models.JWTClaims, filter models.StudentFilter) ([]models.Student, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, err
	}
	filter.CenterID = centerID
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := authorizeRecord(claims, student.CenterID); err != nil {
		return nil, err
	}
	return student, nil
}

// Profile returns a student together with their marks, payments and issued
// certificates.
func (s *StudentService) Profile(ctx context.Context, claims *models.JWTClaims, id string) (*models.StudentProfile, error) {
	student, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	marks, err := s.marks.List(ctx, models.MarkFilter{StudentID: student.ID, CenterID: student.CenterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student marks")
	}
	payments, err := s.payments.List(ctx, models.PaymentFilter{StudentID: student.ID, CenterID: student.CenterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student payments")
	}
	certificates, err := s.certificates.List(ctx, models.CertificateFilter{StudentID: student.ID, CenterID: student.CenterID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student certificates")
	}

	return &models.StudentProfile{
		Student:      *student,
		Marks:        marks,
		Payments:     payments,
		Certificates: certificates,
	}, nil
}

// Create enrolls a new student in the principal's center.
func (s *StudentService) Create(ctx context.Context, claims *models.JWTClaims, req CreateStudentRequest) (*models.Student, error) {
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
	student := &models.Student{
		CenterID:     centerID,
		ClassID:      req.ClassID,
		SessionID:    req.SessionID,
		Name:         req.Name,
		RollNumber:   req.RollNumber,
		Gender:       req.Gender,
		BirthDate:    req.BirthDate,
		Address:      req.Address,
		Phone:        req.Phone,
		GuardianName: req.GuardianName,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, mapStoreError(err, "roll number is already used in this class and session")
	}
	return student, nil
}

// Update replaces a student's mutable fields.
func (s *StudentService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := authorizeRecord(claims, student.CenterID); err != nil {
		return nil, err
	}
	student.Name = req.Name
	student.RollNumber = req.RollNumber
	student.ClassID = req.ClassID
	student.SessionID = req.SessionID
	student.Gender = req.Gender
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.Phone = req.Phone
	student.GuardianName = req.GuardianName
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, mapStoreError(err, "roll number is already used in this class and session")
	}
	return student, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := authorizeRecord(claims, student.CenterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "student is referenced by other records")
	}
	return nil
}
