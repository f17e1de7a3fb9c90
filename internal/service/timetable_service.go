package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	Delete(ctx context.Context, id string) error
}

type blobStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Exists(filename string) bool
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// UploadTimetableRequest attaches a schedule document to a class/session.
type UploadTimetableRequest struct {
	ClassID   string `form:"class_id" validate:"required"`
	SessionID string `form:"session_id" validate:"required"`
	Title     string `form:"title" validate:"required"`
}

// TimetableService handles timetable uploads and downloads.
type TimetableService struct {
	repo      timetableRepository
	classes   classReader
	storage   blobStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(repo timetableRepository, classes classReader, storage blobStorage, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, classes: classes, storage: storage, validator: validate, logger: logger}
}

// List returns timetables visible to the principal.
func (s *TimetableService) List(ctx context.Context, claims *models.JWTClaims, filter models.TimetableFilter) ([]models.Timetable, error) {
	centerID, err := effectiveCenter(claims, filter.CenterID)
	if err != nil {
		return nil, err
	}
	filter.CenterID = centerID
	timetables, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Get returns one timetable record.
func (s *TimetableService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Timetable, error) {
	timetable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if err := authorizeRecord(claims, timetable.CenterID); err != nil {
		return nil, err
	}
	return timetable, nil
}

// Upload stores the document and records a timetable row pointing at it.
func (s *TimetableService) Upload(ctx context.Context, claims *models.JWTClaims, req UploadTimetableRequest, filename string, file io.Reader) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err)
	}
	if file == nil {
		return nil, appErrors.Validation("validation failed", map[string][]string{
			"file": {"this field is required"},
		})
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

	ext := strings.ToLower(filepath.Ext(filename))
	stored := fmt.Sprintf("timetables/%s%s", uuid.NewString(), ext)
	filePath, err := s.storage.SaveStream(stored, file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable file")
	}

	timetable := &models.Timetable{
		CenterID:   class.CenterID,
		ClassID:    req.ClassID,
		SessionID:  req.SessionID,
		Title:      req.Title,
		FilePath:   filePath,
		UploadedBy: claims.UserID,
	}
	if err := s.repo.Create(ctx, timetable); err != nil {
		if removeErr := s.storage.Delete(filePath); removeErr != nil {
			s.logger.Warn("failed to remove orphaned timetable file", zap.String("path", filePath), zap.Error(removeErr))
		}
		return nil, mapStoreError(err, "timetable already exists for this class and session")
	}
	return timetable, nil
}

// Download opens the stored document for streaming to the client.
func (s *TimetableService) Download(ctx context.Context, claims *models.JWTClaims, id string) (*models.Timetable, *os.File, error) {
	timetable, err := s.Get(ctx, claims, id)
	if err != nil {
		return nil, nil, err
	}
	if timetable.FilePath == "" || !s.storage.Exists(timetable.FilePath) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable file is missing")
	}
	file, err := s.storage.Open(timetable.FilePath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open timetable file")
	}
	return timetable, file, nil
}

// Delete removes the record and its stored document.
func (s *TimetableService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	timetable, err := s.Get(ctx, claims, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	if timetable.FilePath != "" {
		if err := s.storage.Delete(timetable.FilePath); err != nil {
			s.logger.Warn("failed to remove timetable file", zap.String("path", timetable.FilePath), zap.Error(err))
		}
	}
	return nil
}
