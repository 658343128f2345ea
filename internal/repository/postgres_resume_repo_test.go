package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/devfolio/internal/model"
)

const (
	testSkillID   = "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"
	testProjectID = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

var developerCols = []string{"id", "name", "title", "summary", "location", "email", "created_by_id", "created_at", "updated_at"}

func developerRow(now time.Time) []driverValue {
	return []driverValue{testDeveloperID, "Alice", "Backend Engineer", "", "Tokyo", "alice@example.com", "auth0|alice", now, now}
}

type driverValue = driver.Value

func nullDeveloperRow() []driverValue {
	return []driverValue{nil, nil, nil, nil, nil, nil, nil, nil, nil}
}

func TestPostgresDeveloperRepo_FindByID(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	mock.ExpectQuery("FROM developers d WHERE d.id").
		WithArgs(testDeveloperID).
		WillReturnRows(sqlmock.NewRows(developerCols).AddRow(developerRow(now)...))

	d, err := NewPostgresDeveloperRepo(db).FindByID(context.Background(), testDeveloperID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Alice", d.Name)
	assert.Equal(t, "auth0|alice", d.CreatedByID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeveloperRepo_FindByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("FROM developers d WHERE d.id").WillReturnError(sql.ErrNoRows)

	d, err := NewPostgresDeveloperRepo(db).FindByID(context.Background(), testDeveloperID)
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestPostgresDeveloperRepo_Update_DoesNotTouchCreator(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	d := &model.Developer{ID: testDeveloperID, Name: "Alice", CreatedByID: "auth0|alice", UpdatedAt: now}

	mock.ExpectExec("UPDATE developers").
		WithArgs(testDeveloperID, "Alice", "", "", "", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgresDeveloperRepo(db).Update(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresDeveloperRepo_Delete_RemovesProjectsLeftWithoutSkills は開発者の削除前に
// その開発者のスキルにしか関連付けられていないプロジェクトが削除されることを検証する。
func TestPostgresDeveloperRepo_Delete_RemovesProjectsLeftWithoutSkills(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM projects p\s+WHERE EXISTS .+developer_skills s.+s.developer_id = \$1.+NOT EXISTS .+s.developer_id <> \$1`).
		WithArgs(testDeveloperID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM developers WHERE id = $1")).
		WithArgs(testDeveloperID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresDeveloperRepo(db).Delete(context.Background(), testDeveloperID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeveloperRepo_Delete_RollsBackOnFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM projects").WithArgs(testDeveloperID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM developers").WithArgs(testDeveloperID).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := NewPostgresDeveloperRepo(db).Delete(context.Background(), testDeveloperID)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresSkillRepo_Delete_RemovesProjectsLeftWithoutSkills はスキルの削除前に
// そのスキルにしか関連付けられていないプロジェクトが削除されることを検証する。
func TestPostgresSkillRepo_Delete_RemovesProjectsLeftWithoutSkills(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM projects p\s+WHERE EXISTS .+ps.skill_id = \$1.+NOT EXISTS .+ps.skill_id <> \$1`).
		WithArgs(testSkillID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM developer_skills WHERE id = $1")).
		WithArgs(testSkillID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresSkillRepo(db).Delete(context.Background(), testSkillID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSkillRepo_Delete_RollsBackWhenProjectCleanupFails(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM projects").WithArgs(testSkillID).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := NewPostgresSkillRepo(db).Delete(context.Background(), testSkillID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "関連プロジェクトの削除に失敗しました")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSkillRepo_FindByID_LoadsDeveloper(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	cols := append([]string{"id", "developer_id", "name", "level", "years_of_experience", "created_at", "updated_at"}, developerCols...)
	row := append([]driverValue{testSkillID, testDeveloperID, "Go", 5, 7, now, now}, developerRow(now)...)

	mock.ExpectQuery("FROM developer_skills s").
		WithArgs(testSkillID).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	s, err := NewPostgresSkillRepo(db).FindByID(context.Background(), testSkillID)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, s.Developer)
	assert.Equal(t, testDeveloperID, s.Developer.ID)
	assert.Equal(t, 5, s.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSkillRepo_FindByID_MissingParentLeavesDeveloperNil(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	cols := append([]string{"id", "developer_id", "name", "level", "years_of_experience", "created_at", "updated_at"}, developerCols...)
	row := append([]driverValue{testSkillID, testDeveloperID, "Go", 5, 7, now, now}, nullDeveloperRow()...)

	mock.ExpectQuery("FROM developer_skills s").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	s, err := NewPostgresSkillRepo(db).FindByID(context.Background(), testSkillID)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Nil(t, s.Developer)
}

func TestPostgresExperienceRepo_FindByID_EndDateNullable(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	start := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	cols := append([]string{"id", "developer_id", "company", "position", "description", "start_date", "end_date", "created_at", "updated_at"}, developerCols...)
	row := append([]driverValue{"e1", testDeveloperID, "ACME", "Engineer", "", start, nil, now, now}, developerRow(now)...)
	id := "7d6c5b4a-3e2f-4a1b-8c9d-0e1f2a3b4c5d"

	mock.ExpectQuery("FROM experiences e").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	e, err := NewPostgresExperienceRepo(db).FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Nil(t, e.EndDate)
	assert.Equal(t, start, e.StartDate)
	assert.NotNil(t, e.Developer)
}

func TestPostgresSocialLinkRepo_ListByDeveloperID_MalformedID(t *testing.T) {
	db, mock := setupMockDB(t)

	links, err := NewPostgresSocialLinkRepo(db).ListByDeveloperID(context.Background(), "abc")
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProjectRepo_FindByID_LoadsSkillsInOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()

	mock.ExpectQuery("FROM projects p WHERE p.id").
		WithArgs(testProjectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "url", "created_at", "updated_at"}).
			AddRow(testProjectID, "devfolio", "", "https://example.com", now, now))

	cols := append([]string{"project_id", "id", "developer_id", "name", "level", "years_of_experience", "created_at", "updated_at"}, developerCols...)
	first := append([]driverValue{testProjectID, testSkillID, testDeveloperID, "Go", 5, 7, now, now}, developerRow(now)...)
	second := append([]driverValue{testProjectID, "s2", testDeveloperID, "SQL", 3, 4, now, now}, developerRow(now)...)
	// project_idをキャストせず主キーのインデックスを使える形で比較する
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ps.project_id = ANY($1::uuid[])")).
		WithArgs(pq.Array([]string{testProjectID})).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(first...).AddRow(second...))

	p, err := NewPostgresProjectRepo(db).FindByID(context.Background(), testProjectID)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Len(t, p.Skills, 2)
	assert.Equal(t, testSkillID, p.Skills[0].ID)
	assert.Equal(t, "SQL", p.Skills[1].Name)
	assert.NotNil(t, p.Skills[0].Developer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProjectRepo_Create_LinksSkillsInTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	p := &model.Project{
		ID:        testProjectID,
		Name:      "devfolio",
		Skills:    []*model.DeveloperSkill{{ID: testSkillID}, {ID: "s2"}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").
		WithArgs(testProjectID, "devfolio", "", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_skills").
		WithArgs(testProjectID, testSkillID, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_skills").
		WithArgs(testProjectID, "s2", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresProjectRepo(db).Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProjectRepo_Update_RollsBackOnLinkFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now()
	p := &model.Project{ID: testProjectID, Name: "devfolio", Skills: []*model.DeveloperSkill{{ID: testSkillID}}, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE projects").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM project_skills").WithArgs(testProjectID).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO project_skills").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := NewPostgresProjectRepo(db).Update(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to link project skill")
	assert.NoError(t, mock.ExpectationsWereMet())
}
