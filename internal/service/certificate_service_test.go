package service

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/export"
	"github.com/eduport/center-api/pkg/jobs"
)

type mockCertificateRepo struct {
	certificates map[string]models.Certificate
	filePaths    map[string]string
}

func (m *mockCertificateRepo) List(ctx context.Context, filter models.CertificateFilter) ([]models.Certificate, error) {
	out := make([]models.Certificate, 0, len(m.certificates))
	for _, c := range m.certificates {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCertificateRepo) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	if c, ok := m.certificates[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertificateRepo) Create(ctx context.Context, certificate *models.Certificate) error {
	if m.certificates == nil {
		m.certificates = make(map[string]models.Certificate)
	}
	if certificate.ID == "" {
		certificate.ID = "cert-1"
	}
	m.certificates[certificate.ID] = *certificate
	return nil
}

func (m *mockCertificateRepo) SetFilePath(ctx context.Context, id, filePath string) error {
	if m.filePaths == nil {
		m.filePaths = make(map[string]string)
	}
	m.filePaths[id] = filePath
	c := m.certificates[id]
	c.FilePath = filePath
	m.certificates[id] = c
	return nil
}

func (m *mockCertificateRepo) Delete(ctx context.Context, id string) error {
	delete(m.certificates, id)
	return nil
}

type mockCertStorage struct {
	files map[string][]byte
}

func (m *mockCertStorage) Save(filename string, data []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockCertStorage) Exists(filename string) bool {
	_, ok := m.files[filename]
	return ok
}

func (m *mockCertStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *mockCertStorage) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

type mockRenderer struct {
	last export.CertificateData
}

func (m *mockRenderer) Certificate(data export.CertificateData) ([]byte, error) {
	m.last = data
	return []byte("%PDF-1.4"), nil
}

type mockEnqueuer struct {
	jobs []jobs.Job
}

func (m *mockEnqueuer) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

type mockSessionReader struct {
	sessions map[string]models.Session
}

func (m *mockSessionReader) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type certificateFixture struct {
	repo     *mockCertificateRepo
	storage  *mockCertStorage
	renderer *mockRenderer
	queue    *mockEnqueuer
	svc      *CertificateService
}

func newCertificateFixture() certificateFixture {
	repo := &mockCertificateRepo{}
	storage := &mockCertStorage{}
	renderer := &mockRenderer{}
	queue := &mockEnqueuer{}
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1", Name: "Asha Verma"},
		"stu-9": {ID: "stu-9", CenterID: "center-2", ClassID: "class-9", SessionID: "sess-9", Name: "Foreign"},
	}}
	centers := &mockCenterRepo{centers: map[string]models.Center{
		"center-1": {ID: "center-1", Name: "North Branch"},
	}}
	classes := &mockClassReader{classes: map[string]models.SchoolClass{
		"class-1": {ID: "class-1", CenterID: "center-1", Name: "Grade 5"},
	}}
	sessions := &mockSessionReader{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", Name: "2026-27"},
	}}
	svc := NewCertificateService(repo, students, centers, classes, sessions, storage, renderer, queue, validator.New(), zap.NewNop())
	return certificateFixture{repo: repo, storage: storage, renderer: renderer, queue: queue, svc: svc}
}

func TestCertificateServiceCreateQueuesRender(t *testing.T) {
	f := newCertificateFixture()

	certificate, err := f.svc.Create(context.Background(), centerClaims("center-1"), CreateCertificateRequest{
		StudentID: "stu-1",
		Type:      "completion",
		Title:     "Course Completion",
	})
	require.NoError(t, err)
	assert.Equal(t, "center-1", certificate.CenterID)
	assert.Empty(t, certificate.FilePath)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, CertificateJobType, f.queue.jobs[0].Type)
	assert.Equal(t, certificate.ID, f.queue.jobs[0].Payload)
}

func TestCertificateServiceCreateForeignStudentForbidden(t *testing.T) {
	f := newCertificateFixture()

	_, err := f.svc.Create(context.Background(), centerClaims("center-1"), CreateCertificateRequest{
		StudentID: "stu-9",
		Type:      "completion",
		Title:     "Course Completion",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.Empty(t, f.queue.jobs)
}

func TestCertificateServiceCreateRejectsUnknownType(t *testing.T) {
	f := newCertificateFixture()

	_, err := f.svc.Create(context.Background(), centerClaims("center-1"), CreateCertificateRequest{
		StudentID: "stu-1",
		Type:      "attendance",
		Title:     "Whatever",
	})
	require.Error(t, err)
	assert.Equal(t, "validation_error", appErrors.FromError(err).Code)
}

func TestCertificateServiceRenderJob(t *testing.T) {
	f := newCertificateFixture()

	certificate, err := f.svc.Create(context.Background(), centerClaims("center-1"), CreateCertificateRequest{
		StudentID: "stu-1",
		Type:      "excellence",
		Title:     "Academic Excellence",
	})
	require.NoError(t, err)

	err = f.svc.RenderJob(context.Background(), jobs.Job{ID: "job-1", Type: CertificateJobType, Payload: certificate.ID})
	require.NoError(t, err)

	assert.Equal(t, "Academic Excellence", f.renderer.last.Title)
	assert.Equal(t, "Asha Verma", f.renderer.last.StudentName)
	assert.Equal(t, "North Branch", f.renderer.last.CenterName)
	assert.Equal(t, "Grade 5", f.renderer.last.ClassName)
	assert.Equal(t, "2026-27", f.renderer.last.SessionName)

	expectedPath := "certificates/" + certificate.ID + ".pdf"
	assert.True(t, f.storage.Exists(expectedPath))
	assert.Equal(t, expectedPath, f.repo.filePaths[certificate.ID])
}

func TestCertificateServiceRenderJobBadPayload(t *testing.T) {
	f := newCertificateFixture()

	err := f.svc.RenderJob(context.Background(), jobs.Job{ID: "job-1", Type: CertificateJobType, Payload: 42})
	require.Error(t, err)
}

func TestCertificateServiceDownloadBeforeRenderNotReady(t *testing.T) {
	f := newCertificateFixture()

	certificate, err := f.svc.Create(context.Background(), centerClaims("center-1"), CreateCertificateRequest{
		StudentID: "stu-1",
		Type:      "participation",
		Title:     "Participation",
	})
	require.NoError(t, err)

	_, _, err = f.svc.Download(context.Background(), centerClaims("center-1"), certificate.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "certificate file is not ready", appErr.Message)
}
