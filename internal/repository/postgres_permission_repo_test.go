package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/devfolio/internal/model"
)

func TestPostgresPermissionRepo_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	p, err := model.NewSpecificPermission(model.ResourceDevelopers, testDeveloperID)
	require.NoError(t, err)
	p.UserID = testUserID

	mock.ExpectExec("INSERT INTO permissions").
		WithArgs(p.ID, testUserID, model.ResourceDevelopers, p.ResourceID, "Specific", p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresPermissionRepo(db).Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPermissionRepo_Create_RequiresOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	p, err := model.NewAllPermission(model.ResourceDevelopers)
	require.NoError(t, err)

	err = NewPostgresPermissionRepo(db).Create(context.Background(), p)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPermissionRepo_DeleteSpecificByResource(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("DELETE FROM permissions WHERE resource").
		WithArgs(model.ResourceDevelopers, testDeveloperID, "Specific").
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := NewPostgresPermissionRepo(db).DeleteSpecificByResource(context.Background(), model.ResourceDevelopers, testDeveloperID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPermissionRepo_DeleteSpecificByResource_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("DELETE FROM permissions").WillReturnError(errors.New("deadlock"))

	_, err := NewPostgresPermissionRepo(db).DeleteSpecificByResource(context.Background(), model.ResourceDevelopers, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete specific permissions")
}

func TestPostgresPermissionRepo_ListByUserID_RejectsCorruptRow(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("FROM permissions WHERE user_id").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "resource", "resource_id", "scope", "created_at"}).
			AddRow("p1", testUserID, model.ResourceDevelopers, nil, "Specific", time.Now()))

	_, err := NewPostgresPermissionRepo(db).ListByUserID(context.Background(), testUserID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestPostgresPermissionRepo_Delete_MalformedIDIsNoop(t *testing.T) {
	db, mock := setupMockDB(t)
	assert.NoError(t, NewPostgresPermissionRepo(db).Delete(context.Background(), "42"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
