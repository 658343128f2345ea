package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/devfolio/internal/model"
)

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// developerColumns はdevelopersテーブルをエイリアスdでJOINする際の列リスト。
const developerColumns = `d.id, d.name, d.title, d.summary, d.location, d.email, d.created_by_id, d.created_at, d.updated_at`

// nullDeveloper はLEFT JOINした親の開発者列を受け取る。
// 親が存在しない場合は全列がNULLになる。
type nullDeveloper struct {
	ID          sql.NullString
	Name        sql.NullString
	Title       sql.NullString
	Summary     sql.NullString
	Location    sql.NullString
	Email       sql.NullString
	CreatedByID sql.NullString
	CreatedAt   sql.NullTime
	UpdatedAt   sql.NullTime
}

func (n *nullDeveloper) dest() []any {
	return []any{
		&n.ID, &n.Name, &n.Title, &n.Summary, &n.Location, &n.Email,
		&n.CreatedByID, &n.CreatedAt, &n.UpdatedAt,
	}
}

// toModel は親の開発者を返す。親が存在しない場合はnil。
func (n *nullDeveloper) toModel() *model.Developer {
	if !n.ID.Valid {
		return nil
	}
	return &model.Developer{
		ID:          n.ID.String,
		Name:        n.Name.String,
		Title:       n.Title.String,
		Summary:     n.Summary.String,
		Location:    n.Location.String,
		Email:       n.Email.String,
		CreatedByID: n.CreatedByID.String,
		CreatedAt:   n.CreatedAt.Time,
		UpdatedAt:   n.UpdatedAt.Time,
	}
}

// isUUID はIDがUUID形式かを判定する。
// UUID列に不正な文字列を渡すとPostgreSQLがエラーを返すため、検索前に弾く。
func isUUID(id string) bool {
	return uuid.Validate(id) == nil
}

// timePtr はsql.NullTimeを*time.Timeに変換する。NULLの場合はnil。
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
