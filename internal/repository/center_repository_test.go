package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/center-api/internal/models"
)

func newCenterMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func centerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "code", "address", "phone", "email", "status", "created_at", "updated_at"}).
		AddRow("center-1", "North Branch", "NB-01", "12 Hill Road", "555-0101", "north@example.com", "active", time.Now(), time.Now())
}

func TestCenterRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newCenterMock(t)
	defer cleanup()
	repo := NewCenterRepository(db)

	mock.ExpectQuery("FROM centers WHERE 1=1 AND id = \\$1 ORDER BY created_at DESC").
		WithArgs("center-1").
		WillReturnRows(centerRows())

	centers, err := repo.List(context.Background(), models.CenterFilter{}, "center-1")
	require.NoError(t, err)
	require.Len(t, centers, 1)
	assert.Equal(t, "NB-01", centers[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCenterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCenterMock(t)
	defer cleanup()
	repo := NewCenterRepository(db)

	mock.ExpectExec("INSERT INTO centers").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	center := &models.Center{Name: "North Branch", Code: "NB-01", Status: models.CenterStatusPending}
	err := repo.Create(context.Background(), center)
	require.NoError(t, err)
	assert.NotEmpty(t, center.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCenterRepositoryHasRestrictedDependents(t *testing.T) {
	db, mock, cleanup := newCenterMock(t)
	defer cleanup()
	repo := NewCenterRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("center-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	restricted, err := repo.HasRestrictedDependents(context.Background(), "center-1")
	require.NoError(t, err)
	assert.True(t, restricted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
