package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/middleware"
	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	"github.com/eduport/center-api/pkg/response"
)

type markRepoStub struct {
	marks   map[string]models.Mark
	created []models.Mark
}

func (m *markRepoStub) List(ctx context.Context, filter models.MarkFilter) ([]models.Mark, error) {
	return nil, nil
}

func (m *markRepoStub) FindByID(ctx context.Context, id string) (*models.Mark, error) {
	if mk, ok := m.marks[id]; ok {
		return &mk, nil
	}
	return nil, sql.ErrNoRows
}

func (m *markRepoStub) Create(ctx context.Context, mark *models.Mark) error {
	mark.ID = "mark-1"
	m.created = append(m.created, *mark)
	return nil
}

func (m *markRepoStub) BulkInsert(ctx context.Context, marks []models.Mark) error {
	m.created = append(m.created, marks...)
	return nil
}

func (m *markRepoStub) Update(ctx context.Context, mark *models.Mark) error { return nil }

func (m *markRepoStub) Delete(ctx context.Context, id string) error { return nil }

func (m *markRepoStub) ListByStudentWithSubjects(ctx context.Context, studentID, centerID string) ([]models.MarkWithSubject, error) {
	return nil, nil
}

type studentReaderStub struct {
	students map[string]models.Student
}

func (m *studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type subjectReaderStub struct {
	subjects map[string]models.Subject
}

func (m *subjectReaderStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func newMarkHandlerFixture() (*markRepoStub, *MarkHandler) {
	repo := &markRepoStub{}
	students := &studentReaderStub{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1"},
		"stu-9": {ID: "stu-9", CenterID: "center-2", ClassID: "class-9", SessionID: "sess-9"},
	}}
	subjects := &subjectReaderStub{subjects: map[string]models.Subject{
		"sub-1": {ID: "sub-1", CenterID: "center-1", ClassID: "class-1", MaxMarks: 100, PassMarks: 35},
	}}
	svc := service.NewMarkService(repo, students, subjects, validator.New(), zap.NewNop())
	return repo, NewMarkHandler(svc)
}

func centerUser(centerID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleCenter, CenterID: &centerID}
}

func TestMarkHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newMarkHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.CreateMarkRequest{
		StudentID:     "stu-1",
		SubjectID:     "sub-1",
		SessionID:     "sess-1",
		ExamType:      "final",
		MarksObtained: 88,
	})
	req, _ := http.NewRequest(http.MethodPost, "/marks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, centerUser("center-1"))

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "mark entered", envelope.Message)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "center-1", repo.created[0].CenterID)
}

func TestMarkHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newMarkHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/marks", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, centerUser("center-1"))

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "validation_error", envelope.Error)
}

func TestMarkHandlerCreateForeignStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newMarkHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.CreateMarkRequest{
		StudentID:     "stu-9",
		SubjectID:     "sub-1",
		SessionID:     "sess-1",
		ExamType:      "final",
		MarksObtained: 50,
	})
	req, _ := http.NewRequest(http.MethodPost, "/marks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, centerUser("center-1"))

	handler.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "authorization_error", envelope.Error)
	assert.Empty(t, repo.created)
}

func TestMarkHandlerGetMissingMark(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newMarkHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/marks/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, centerUser("center-1"))

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
