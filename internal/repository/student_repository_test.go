package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/center-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "center_id", "class_id", "session_id", "name", "roll_number", "gender", "birth_date", "address", "phone", "guardian_name", "created_at", "updated_at"}).
		AddRow("stu-1", "center-1", "class-1", "sess-1", "Asha Verma", "12", "F", nil, "12 Hill Road", "555-0101", "R Verma", time.Now(), time.Now())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, center_id, class_id, session_id, name, roll_number, gender, birth_date, address, phone, guardian_name, created_at, updated_at FROM students WHERE 1=1 AND center_id = $1 AND class_id = $2 ORDER BY created_at DESC")).
		WithArgs("center-1", "class-1").
		WillReturnRows(studentRows())

	students, err := repo.List(context.Background(), models.StudentFilter{CenterID: "center-1", ClassID: "class-1"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Asha Verma", students[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListSearchIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(LOWER(name) LIKE $1 OR LOWER(roll_number) LIKE $1)")).
		WithArgs("%asha%").
		WillReturnRows(studentRows())

	students, err := repo.List(context.Background(), models.StudentFilter{Search: "Asha"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{CenterID: "center-1", ClassID: "class-1", SessionID: "sess-1", Name: "Asha Verma", RollNumber: "12", Gender: "F"}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
