package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/center-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "session_id", "class_id", "center_id", "date", "status", "remarks", "recorded_by", "created_at", "updated_at"}).
		AddRow("att-1", "stu-1", "sess-1", "class-1", "center-1", time.Now(), "present", nil, "user-1", time.Now(), time.Now())
}

func TestAttendanceRepositoryList(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, session_id, class_id, center_id, date, status, remarks, recorded_by, created_at, updated_at FROM attendances WHERE 1=1 AND center_id = $1 ORDER BY date DESC LIMIT 50 OFFSET 0")).
		WithArgs("center-1").
		WillReturnRows(attendanceRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendances WHERE 1=1 AND center_id = $1")).
		WithArgs("center-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.AttendanceFilter{CenterID: "center-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListCapsPageSize(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, session_id, class_id, center_id, date, status, remarks, recorded_by, created_at, updated_at FROM attendances WHERE 1=1 ORDER BY date DESC LIMIT 50 OFFSET 0")).
		WillReturnRows(attendanceRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendances WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.AttendanceFilter{PageSize: 500})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendances").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Attendance{StudentID: "stu-1", SessionID: "sess-1", ClassID: "class-1", CenterID: "center-1", Date: time.Now(), Status: models.AttendanceStatusPresent, RecordedBy: "user-1"}
	err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendances").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendances").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.Attendance{
		{StudentID: "stu-1", SessionID: "sess-1", ClassID: "class-1", CenterID: "center-1", Date: time.Now(), Status: models.AttendanceStatusPresent, RecordedBy: "user-1"},
		{StudentID: "stu-2", SessionID: "sess-1", ClassID: "class-1", CenterID: "center-1", Date: time.Now(), Status: models.AttendanceStatusAbsent, RecordedBy: "user-1"},
	}
	err := repo.BulkInsert(context.Background(), records)
	require.NoError(t, err)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEmpty(t, records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendances").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendances").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	records := []models.Attendance{
		{StudentID: "stu-1", SessionID: "sess-1", ClassID: "class-1", CenterID: "center-1", Date: time.Now(), Status: models.AttendanceStatusPresent, RecordedBy: "user-1"},
		{StudentID: "stu-2", SessionID: "sess-1", ClassID: "class-1", CenterID: "center-1", Date: time.Now(), Status: models.AttendanceStatusPresent, RecordedBy: "user-1"},
	}
	err := repo.BulkInsert(context.Background(), records)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsertEmptyBatch(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	err := repo.BulkInsert(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStudentSummary(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM attendances WHERE student_id = $1 AND center_id = $2 GROUP BY status")).
		WithArgs("stu-1", "center-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("present", 18).
			AddRow("absent", 2))

	counts, err := repo.StudentSummary(context.Background(), "stu-1", "center-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.AttendanceStatusPresent, counts[0].Status)
	assert.Equal(t, 18, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryClassSummary(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT date, status, COUNT\\(\\*\\) AS count FROM attendances WHERE class_id = \\$1 AND center_id = \\$2").
		WithArgs("class-1", "center-1").
		WillReturnRows(sqlmock.NewRows([]string{"date", "status", "count"}).
			AddRow(time.Now(), "present", 25).
			AddRow(time.Now(), "late", 3))

	rows, err := repo.ClassSummary(context.Background(), "class-1", "center-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 25, rows[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
