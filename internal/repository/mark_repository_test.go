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

func newMarkMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMarkRepositoryList(t *testing.T) {
	db, mock, cleanup := newMarkMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "session_id", "exam_type", "marks_obtained", "center_id", "created_at", "updated_at"}).
		AddRow("mark-1", "stu-1", "sub-1", "sess-1", "final", 72.5, "center-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, session_id, exam_type, marks_obtained, center_id, created_at, updated_at FROM marks WHERE 1=1 AND center_id = $1 AND student_id = $2 ORDER BY created_at DESC")).
		WithArgs("center-1", "stu-1").
		WillReturnRows(rows)

	marks, err := repo.List(context.Background(), models.MarkFilter{CenterID: "center-1", StudentID: "stu-1"})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, 72.5, marks[0].MarksObtained)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMarkMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectExec("INSERT INTO marks").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mark := &models.Mark{StudentID: "stu-1", SubjectID: "sub-1", SessionID: "sess-1", ExamType: "final", MarksObtained: 88, CenterID: "center-1"}
	err := repo.Create(context.Background(), mark)
	require.NoError(t, err)
	assert.NotEmpty(t, mark.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryBulkInsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMarkMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO marks").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO marks").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	marks := []models.Mark{
		{StudentID: "stu-1", SubjectID: "sub-1", SessionID: "sess-1", ExamType: "final", MarksObtained: 80, CenterID: "center-1"},
		{StudentID: "stu-2", SubjectID: "sub-1", SessionID: "sess-1", ExamType: "final", MarksObtained: 70, CenterID: "center-1"},
	}
	err := repo.BulkInsert(context.Background(), marks)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRepositoryListByStudentWithSubjects(t *testing.T) {
	db, mock, cleanup := newMarkMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "session_id", "exam_type", "marks_obtained", "center_id", "created_at", "updated_at", "subject_name", "max_marks"}).
		AddRow("mark-1", "stu-1", "sub-1", "sess-1", "final", 45.0, "center-1", time.Now(), time.Now(), "Mathematics", 100.0).
		AddRow("mark-2", "stu-1", "sub-2", "sess-1", "final", 30.0, "center-1", time.Now(), time.Now(), nil, nil)
	mock.ExpectQuery("LEFT JOIN subjects s ON s.id = m.subject_id").
		WithArgs("stu-1", "center-1").
		WillReturnRows(rows)

	marks, err := repo.ListByStudentWithSubjects(context.Background(), "stu-1", "center-1")
	require.NoError(t, err)
	require.Len(t, marks, 2)
	require.NotNil(t, marks[0].MaxMarks)
	assert.Equal(t, 100.0, *marks[0].MaxMarks)
	assert.Nil(t, marks[1].MaxMarks)
	assert.NoError(t, mock.ExpectationsWereMet())
}
