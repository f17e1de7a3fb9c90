package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/export"
	"github.com/eduport/center-api/pkg/jobs"
)

type certificateRepository interface {
	List(ctx context.Context, filter models.CertificateFilter) ([]models.Certificate, error)
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
	Create(ctx context.Context, certificate *models.Certificate) error
	SetFilePath(ctx context.Context, id, filePath string) error
	Delete(ctx context.Context, id string) error
}

type certificateStorage interface {
	Save(filename string, data []byte) (string, error)
	Exists(filename string) bool
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type certificateRenderer interface {
	Certificate(data export.CertificateData) ([]byte, error)
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CertificateJobType tags certificate render jobs on the queue.
const CertificateJobType = "certificate.render"

// CreateCertificateRequest issues a certificate for a student. The PDF is
// rendered by a background worker; file_path stays empty until it finishes.
type CreateCertificateRequest struct {
	StudentID string     `json:"student_id" validate:"required"`
	Type      string     `json:"type" validate:"required,oneof=completion excellence participation"`
	Title     string     `json:"title" validate:"required"`
	IssuedAt  *time.Time `json:"issued_at"`
}

// CertificateService issues certificates and renders their PDFs off the
// request path.
type CertificateService struct {
	repo      certificateRepository
	students  studentReader
	centers   centerReader
	classes   classReader
	sessions  sessionReader
	storage   certificateStorage
	renderer  certificateRenderer
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCertificateService constructs the certificate service.
func NewCertificateService(repo certificateRepository, students studentReader, centers centerReader, classes classReader, sessions sessionReader, storage certificateStorage, renderer certificateRenderer, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		repo:      repo,
		students:  students,
		centers:   centers,
		classes:   classes,
		sessions:  sessions,
		storage:   storage,
		renderer:  renderer,
		queue:     queue,
		validator: validate,
		logger:    logger,
	}
}

// SetQueue attaches the render queue. The queue's handler is this service's
// RenderJob, so the two are wired after construction.
func (s *CertificateService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// List returns certificates visible to the principal.
func (s *CertificateService) List(ctx context.Context, claims *models.JWTClaims, filter models.CertificateFilter) ([]models.Certificate, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, err
	}
	filter.CenterID = centerID
	certificates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certificates, nil
}

// Get returns one certificate.
func (s *CertificateService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Certificate, error) {
	certificate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if err := authorizeRecord(claims, certificate.CenterID); err != nil {
		return nil, err
	}
	return certificate, nil
}

// Create issues a certificate and queues the PDF render.
func (s *CertificateService) Create(ctx context.Context, claims *models.JWTClaims, req CreateCertificateRequest) (*models.Certificate, error) {
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

	certificate := &models.Certificate{
		StudentID: student.ID,
		CenterID:  student.CenterID,
		Type:      models.CertificateType(req.Type),
		Title:     req.Title,
	}
	if req.IssuedAt != nil {
		certificate.IssuedAt = *req.IssuedAt
	}
	if err := s.repo.Create(ctx, certificate); err != nil {
		return nil, mapStoreError(err, "certificate already issued")
	}

	if s.queue != nil {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    CertificateJobType,
			Payload: certificate.ID,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue certificate render", zap.String("certificate_id", certificate.ID), zap.Error(err))
		}
	}
	return certificate, nil
}

// Download streams the rendered PDF. A certificate whose render has not
// finished yet reports its file as missing.
func (s *CertificateService) Download(ctx context.Context, claims *models.JWTClaims, id string) (*models.Certificate, *os.File, error) {
	certificate, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, nil, err
	}
	if certificate.FilePath == "" || !s.storage.Exists(certificate.FilePath) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "certificate file is not ready")
	}
	file, err := s.storage.Open(certificate.FilePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate file")
	}
	return certificate, file, nil
}

// Delete removes a certificate and its rendered file.
func (s *CertificateService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	certificate, err := s.Get(ctx, claims, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete certificate")
	}
	if certificate.FilePath != "" {
		if err := s.storage.Delete(certificate.FilePath); err != nil {
			s.logger.Warn("failed to remove certificate file", zap.String("path", certificate.FilePath), zap.Error(err))
		}
	}
	return nil
}

// RenderJob is the queue handler that renders the PDF for a created
// certificate and records where it landed.
func (s *CertificateService) RenderJob(ctx context.Context, job jobs.Job) error {
	certificateID, ok := job.Payload.(string)
	if !ok || certificateID == "" {
		return fmt.Errorf("certificate render job %s carries no certificate id", job.ID)
	}

	certificate, err := s.repo.FindByID(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("load certificate %s: %w", certificateID, err)
	}
	student, err := s.students.FindByID(ctx, certificate.StudentID)
	if err != nil {
		return fmt.Errorf("load student %s: %w", certificate.StudentID, err)
	}

	data := export.CertificateData{
		Title:       certificate.Title,
		StudentName: student.Name,
		IssuedAt:    certificate.IssuedAt,
	}
	if center, err := s.centers.FindByID(ctx, certificate.CenterID); err == nil {
		data.CenterName = center.Name
	}
	if class, err := s.classes.FindByID(ctx, student.ClassID); err == nil {
		data.ClassName = class.Name
	}
	if session, err := s.sessions.FindByID(ctx, student.SessionID); err == nil {
		data.SessionName = session.Name
	}

	pdf, err := s.renderer.Certificate(data)
	if err != nil {
		return fmt.Errorf("render certificate %s: %w", certificateID, err)
	}
	filePath, err := s.storage.Save(fmt.Sprintf("certificates/%s.pdf", certificateID), pdf)
	if err != nil {
		return fmt.Errorf("store certificate %s: %w", certificateID, err)
	}
	if err := s.repo.SetFilePath(ctx, certificateID, filePath); err != nil {
		return fmt.Errorf("record certificate file %s: %w", certificateID, err)
	}
	s.logger.Info("certificate rendered", zap.String("certificate_id", certificateID), zap.String("path", filePath))
	return nil
}
