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

type mockAttendanceRepo struct {
	records    map[string]models.Attendance
	created    []models.Attendance
	bulk       [][]models.Attendance
	bulkErr    error
	counts     []models.AttendanceStatusCount
	classRows  []models.ClassAttendanceRow
	lastFilter models.AttendanceFilter
	listTotal  int
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	m.lastFilter = filter
	out := make([]models.Attendance, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, m.listTotal, nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = "generated"
	}
	m.created = append(m.created, *record)
	return nil
}

func (m *mockAttendanceRepo) BulkInsert(ctx context.Context, records []models.Attendance) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.bulk = append(m.bulk, records)
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.Attendance) error {
	if m.records == nil {
		m.records = make(map[string]models.Attendance)
	}
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) StudentSummary(ctx context.Context, studentID, centerID string) ([]models.AttendanceStatusCount, error) {
	return m.counts, nil
}

func (m *mockAttendanceRepo) ClassSummary(ctx context.Context, classID, centerID string) ([]models.ClassAttendanceRow, error) {
	return m.classRows, nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockClassReader struct {
	classes map[string]models.SchoolClass
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.SchoolClass, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func newAttendanceFixture() (*mockAttendanceRepo, *AttendanceService) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1", Name: "Asha Verma"},
		"stu-2": {ID: "stu-2", CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1", Name: "Rahul Nair"},
		"stu-9": {ID: "stu-9", CenterID: "center-2", ClassID: "class-9", SessionID: "sess-9", Name: "Foreign"},
	}}
	classes := &mockClassReader{classes: map[string]models.SchoolClass{
		"class-1": {ID: "class-1", CenterID: "center-1", Name: "Grade 5"},
	}}
	svc := NewAttendanceService(repo, students, classes, nil, time.Minute, validator.New(), zap.NewNop())
	return repo, svc
}

func TestAttendanceServiceCreateDerivesColumnsFromStudent(t *testing.T) {
	repo, svc := newAttendanceFixture()

	record, err := svc.Create(context.Background(), centerClaims("center-1"), CreateAttendanceRequest{
		StudentID: "stu-1",
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:    "present",
	})
	require.NoError(t, err)
	assert.Equal(t, "center-1", record.CenterID)
	assert.Equal(t, "class-1", record.ClassID)
	assert.Equal(t, "sess-1", record.SessionID)
	assert.Equal(t, "user-1", record.RecordedBy)
	assert.Len(t, repo.created, 1)
}

func TestAttendanceServiceCreateForeignStudentForbidden(t *testing.T) {
	repo, svc := newAttendanceFixture()

	_, err := svc.Create(context.Background(), centerClaims("center-1"), CreateAttendanceRequest{
		StudentID: "stu-9",
		Date:      time.Now(),
		Status:    "present",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.Empty(t, repo.created)
}

func TestAttendanceServiceCreateUnknownStudentIsValidationError(t *testing.T) {
	_, svc := newAttendanceFixture()

	_, err := svc.Create(context.Background(), centerClaims("center-1"), CreateAttendanceRequest{
		StudentID: "missing",
		Date:      time.Now(),
		Status:    "present",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "validation_error", appErr.Code)
	assert.Contains(t, appErr.Fields, "student_id")
}

func TestAttendanceServiceCreateRejectsUnknownStatus(t *testing.T) {
	_, svc := newAttendanceFixture()

	_, err := svc.Create(context.Background(), centerClaims("center-1"), CreateAttendanceRequest{
		StudentID: "stu-1",
		Date:      time.Now(),
		Status:    "sleeping",
	})
	require.Error(t, err)
	assert.Equal(t, "validation_error", appErrors.FromError(err).Code)
}

func TestAttendanceServiceBulkAppliesWholeBatch(t *testing.T) {
	repo, svc := newAttendanceFixture()

	records, err := svc.Bulk(context.Background(), centerClaims("center-1"), BulkAttendanceRequest{
		Records: []CreateAttendanceRequest{
			{StudentID: "stu-1", Date: time.Now(), Status: "present"},
			{StudentID: "stu-2", Date: time.Now(), Status: "late"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.Len(t, repo.bulk, 1)
	assert.Len(t, repo.bulk[0], 2)
	assert.Equal(t, "center-1", repo.bulk[0][1].CenterID)
}

func TestAttendanceServiceBulkUnknownStudentAbortsBatch(t *testing.T) {
	repo, svc := newAttendanceFixture()

	_, err := svc.Bulk(context.Background(), centerClaims("center-1"), BulkAttendanceRequest{
		Records: []CreateAttendanceRequest{
			{StudentID: "stu-1", Date: time.Now(), Status: "present"},
			{StudentID: "missing", Date: time.Now(), Status: "present"},
		},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "validation_error", appErr.Code)
	assert.Equal(t, []string{"referenced student does not exist"}, appErr.Fields["records[1].student_id"])
	assert.Empty(t, repo.bulk)
}

func TestAttendanceServiceListPinsNonAdminToOwnCenter(t *testing.T) {
	repo, svc := newAttendanceFixture()
	repo.listTotal = 3

	_, pagination, err := svc.List(context.Background(), centerClaims("center-1"), models.AttendanceFilter{CenterID: "center-9"})
	require.NoError(t, err)
	assert.Equal(t, "center-1", repo.lastFilter.CenterID)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 3, pagination.TotalCount)
}

func TestAttendanceServiceStudentSummaryTotals(t *testing.T) {
	repo, svc := newAttendanceFixture()
	repo.counts = []models.AttendanceStatusCount{
		{Status: models.AttendanceStatusPresent, Count: 18},
		{Status: models.AttendanceStatusAbsent, Count: 2},
	}

	summary, err := svc.StudentSummary(context.Background(), centerClaims("center-1"), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", summary.StudentID)
	assert.Equal(t, 20, summary.Total)
	assert.Len(t, summary.Summary, 2)
}

func TestAttendanceServiceClassSummaryForeignClassForbidden(t *testing.T) {
	_, svc := newAttendanceFixture()

	_, err := svc.ClassSummary(context.Background(), centerClaims("center-2"), "class-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}
