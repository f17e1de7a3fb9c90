package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/center-api/internal/models"
)

func newResultMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestResultRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "class_id", "center_id", "status", "published_at", "created_at", "updated_at"}).
		AddRow("res-1", "sess-1", "class-1", "center-1", "published", now, now, now)
	mock.ExpectQuery("INSERT INTO results").
		WithArgs(sqlmock.AnyArg(), "sess-1", "class-1", "center-1", models.ResultStatusPublished, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	stored, err := repo.Upsert(context.Background(), &models.Result{
		SessionID: "sess-1",
		ClassID:   "class-1",
		CenterID:  "center-1",
		Status:    models.ResultStatusPublished,
		PublishedAt: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, "res-1", stored.ID)
	assert.Equal(t, models.ResultStatusPublished, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryFindBySessionClass(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "session_id", "class_id", "center_id", "status", "published_at", "created_at", "updated_at"}).
		AddRow("res-1", "sess-1", "class-1", "center-1", "published", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, class_id, center_id, status, published_at, created_at, updated_at FROM results WHERE session_id = $1 AND class_id = $2")).
		WithArgs("sess-1", "class-1").
		WillReturnRows(rows)

	result, err := repo.FindBySessionClass(context.Background(), "sess-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "center-1", result.CenterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryFindBySessionClassMissing(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery("FROM results WHERE session_id").
		WithArgs("sess-1", "class-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBySessionClass(context.Background(), "sess-1", "class-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newResultMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM results WHERE id = $1")).
		WithArgs("res-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "res-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
