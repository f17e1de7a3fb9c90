package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

type resultRepoStub struct {
	upserted *models.Result
}

func (m *resultRepoStub) List(ctx context.Context, centerID string) ([]models.Result, error) {
	return nil, nil
}

func (m *resultRepoStub) FindByID(ctx context.Context, id string) (*models.Result, error) {
	return nil, sql.ErrNoRows
}

func (m *resultRepoStub) FindBySessionClass(ctx context.Context, sessionID, classID string) (*models.Result, error) {
	return nil, sql.ErrNoRows
}

func (m *resultRepoStub) Upsert(ctx context.Context, result *models.Result) (*models.Result, error) {
	stored := *result
	stored.ID = "res-1"
	m.upserted = &stored
	return &stored, nil
}

func (m *resultRepoStub) Delete(ctx context.Context, id string) error { return nil }

type markJoinReaderStub struct{}

func (m *markJoinReaderStub) ListByStudentWithSubjects(ctx context.Context, studentID, centerID string) ([]models.MarkWithSubject, error) {
	return nil, nil
}

type classReaderStub struct {
	classes map[string]models.SchoolClass
}

func (m *classReaderStub) FindByID(ctx context.Context, id string) (*models.SchoolClass, error) {
	if cl, ok := m.classes[id]; ok {
		return &cl, nil
	}
	return nil, sql.ErrNoRows
}

func newResultHandlerFixture() (*resultRepoStub, *ResultHandler) {
	repo := &resultRepoStub{}
	students := &studentReaderStub{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1"},
	}}
	classes := &classReaderStub{classes: map[string]models.SchoolClass{
		"class-1": {ID: "class-1", CenterID: "center-1"},
	}}
	svc := service.NewResultService(repo, &markJoinReaderStub{}, students, classes, nil, time.Minute, validator.New(), zap.NewNop())
	return repo, NewResultHandler(svc)
}

func postPublish(t *testing.T, handler *ResultHandler, payload service.PublishResultRequest) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, "/results/publish", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, centerUser("center-1"))
	handler.Publish(c)
	return w
}

func TestResultHandlerPublishCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newResultHandlerFixture()

	w := postPublish(t, handler, service.PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
		Status:    "published",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "result status saved", envelope.Message)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, models.ResultStatusPublished, repo.upserted.Status)
}

func TestResultHandlerPublishDraftRoundTrips(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newResultHandlerFixture()

	w := postPublish(t, handler, service.PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
		Status:    "draft",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, models.ResultStatusDraft, repo.upserted.Status)
}

func TestResultHandlerPublishMissingStatusRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newResultHandlerFixture()

	w := postPublish(t, handler, service.PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Errors, "status")
	assert.Nil(t, repo.upserted)
}
