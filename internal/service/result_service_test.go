package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

type mockResultRepo struct {
	rows     map[string]models.Result
	upserted *models.Result
	deleted  []string
}

func (m *mockResultRepo) List(ctx context.Context, centerID string) ([]models.Result, error) {
	out := make([]models.Result, 0, len(m.rows))
	for _, r := range m.rows {
		if centerID == "" || r.CenterID == centerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockResultRepo) FindByID(ctx context.Context, id string) (*models.Result, error) {
	for _, r := range m.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockResultRepo) FindBySessionClass(ctx context.Context, sessionID, classID string) (*models.Result, error) {
	if r, ok := m.rows[sessionID+"|"+classID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResultRepo) Upsert(ctx context.Context, result *models.Result) (*models.Result, error) {
	stored := *result
	if stored.ID == "" {
		stored.ID = "generated"
	}
	if m.rows == nil {
		m.rows = make(map[string]models.Result)
	}
	m.rows[stored.SessionID+"|"+stored.ClassID] = stored
	m.upserted = &stored
	return &stored, nil
}

func (m *mockResultRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockResultMarkReader struct {
	marks []models.MarkWithSubject
}

func (m *mockResultMarkReader) ListByStudentWithSubjects(ctx context.Context, studentID, centerID string) ([]models.MarkWithSubject, error) {
	return m.marks, nil
}

func floatPtr(v float64) *float64 { return &v }

func markOutOf(obtained float64, max *float64) models.MarkWithSubject {
	return models.MarkWithSubject{Mark: models.Mark{MarksObtained: obtained}, MaxMarks: max}
}

func newResultFixture(repo *mockResultRepo, marks *mockResultMarkReader) *ResultService {
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1"},
	}}
	classes := &mockClassReader{classes: map[string]models.SchoolClass{
		"class-1": {ID: "class-1", CenterID: "center-1"},
	}}
	return NewResultService(repo, marks, students, classes, nil, time.Minute, validator.New(), zap.NewNop())
}

func TestComputeStudentResult(t *testing.T) {
	tests := []struct {
		name       string
		marks      []models.MarkWithSubject
		percentage float64
		grade      string
		verdict    string
	}{
		{
			name:       "mid range",
			marks:      []models.MarkWithSubject{markOutOf(50, floatPtr(100)), markOutOf(75, floatPtr(100))},
			percentage: 62.5,
			grade:      "B",
			verdict:    "Pass",
		},
		{
			name:       "no marks",
			marks:      nil,
			percentage: 0,
			grade:      "F",
			verdict:    "Fail",
		},
		{
			name:       "missing max marks counts as hundred",
			marks:      []models.MarkWithSubject{markOutOf(90, nil)},
			percentage: 90,
			grade:      "A+",
			verdict:    "Pass",
		},
		{
			name:       "rounded to two decimals",
			marks:      []models.MarkWithSubject{markOutOf(47.5, floatPtr(60))},
			percentage: 79.17,
			grade:      "B+",
			verdict:    "Pass",
		},
		{
			name:       "pass boundary",
			marks:      []models.MarkWithSubject{markOutOf(35, floatPtr(100))},
			percentage: 35,
			grade:      "D",
			verdict:    "Pass",
		},
		{
			name:       "below pass boundary",
			marks:      []models.MarkWithSubject{markOutOf(34.99, floatPtr(100))},
			percentage: 34.99,
			grade:      "F",
			verdict:    "Fail",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ComputeStudentResult("stu-1", tc.marks)
			assert.Equal(t, tc.percentage, result.Percentage)
			assert.Equal(t, tc.grade, result.Grade)
			assert.Equal(t, tc.verdict, result.Result)
		})
	}
}

func TestResultServicePublishDefaultsTimestamp(t *testing.T) {
	repo := &mockResultRepo{}
	svc := newResultFixture(repo, &mockResultMarkReader{})

	stored, err := svc.Publish(context.Background(), centerClaims("center-1"), PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
		Status:    "published",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusPublished, stored.Status)
	require.NotNil(t, stored.PublishedAt)
	assert.Equal(t, "center-1", stored.CenterID)
}

func TestResultServicePublishWritesRequestedStatus(t *testing.T) {
	repo := &mockResultRepo{}
	svc := newResultFixture(repo, &mockResultMarkReader{})

	published, err := svc.Publish(context.Background(), centerClaims("center-1"), PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
		Status:    "published",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusPublished, published.Status)

	reverted, err := svc.Publish(context.Background(), centerClaims("center-1"), PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
		Status:    "draft",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusDraft, reverted.Status)
	assert.Equal(t, models.ResultStatusDraft, repo.upserted.Status)
	assert.Empty(t, repo.deleted)
}

func TestResultServicePublishRejectsBadStatus(t *testing.T) {
	svc := newResultFixture(&mockResultRepo{}, &mockResultMarkReader{})

	for _, status := range []string{"", "archived"} {
		_, err := svc.Publish(context.Background(), centerClaims("center-1"), PublishResultRequest{
			SessionID: "sess-1",
			ClassID:   "class-1",
			Status:    status,
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, "validation_error", appErr.Code)
		assert.Contains(t, appErr.Fields, "status")
	}
}

func TestResultServicePublishForeignClassForbidden(t *testing.T) {
	repo := &mockResultRepo{}
	svc := newResultFixture(repo, &mockResultMarkReader{})

	_, err := svc.Publish(context.Background(), centerClaims("center-2"), PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "class-1",
		Status:    "published",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.Nil(t, repo.upserted)
}

func TestResultServicePublishUnknownClassIsValidationError(t *testing.T) {
	svc := newResultFixture(&mockResultRepo{}, &mockResultMarkReader{})

	_, err := svc.Publish(context.Background(), adminClaims(), PublishResultRequest{
		SessionID: "sess-1",
		ClassID:   "missing",
		Status:    "published",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "validation_error", appErr.Code)
	assert.Contains(t, appErr.Fields, "class_id")
}

func TestResultServiceStatusAbsentRowReadsAsDraft(t *testing.T) {
	svc := newResultFixture(&mockResultRepo{}, &mockResultMarkReader{})

	info, err := svc.Status(context.Background(), centerClaims("center-1"), "sess-1", "class-1")
	require.NoError(t, err)
	assert.False(t, info.Published)
	assert.Equal(t, "draft", info.Status)
	assert.Nil(t, info.PublishedAt)
}

func TestResultServiceStudentResult(t *testing.T) {
	marks := &mockResultMarkReader{marks: []models.MarkWithSubject{
		markOutOf(80, floatPtr(100)),
		markOutOf(45, floatPtr(50)),
	}}
	svc := newResultFixture(&mockResultRepo{}, marks)

	result, err := svc.StudentResult(context.Background(), centerClaims("center-1"), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 125.0, result.TotalMarks)
	assert.Equal(t, 150.0, result.TotalMaxMarks)
	assert.Equal(t, 83.33, result.Percentage)
	assert.Equal(t, "A", result.Grade)
	assert.Equal(t, "Pass", result.Result)
}

func TestResultServiceUnpublish(t *testing.T) {
	now := time.Now()
	repo := &mockResultRepo{rows: map[string]models.Result{
		"sess-1|class-1": {ID: "res-1", SessionID: "sess-1", ClassID: "class-1", CenterID: "center-1", Status: models.ResultStatusPublished, PublishedAt: &now},
	}}
	svc := newResultFixture(repo, &mockResultMarkReader{})

	err := svc.Unpublish(context.Background(), centerClaims("center-1"), "sess-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"res-1"}, repo.deleted)
}

func TestResultServiceUnpublishMissingRowNotFound(t *testing.T) {
	svc := newResultFixture(&mockResultRepo{}, &mockResultMarkReader{})

	err := svc.Unpublish(context.Background(), centerClaims("center-1"), "sess-1", "class-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
