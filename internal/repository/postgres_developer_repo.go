package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresDeveloperRepo はPostgreSQLを使用した開発者リポジトリ。
type PostgresDeveloperRepo struct {
	db *sql.DB
}

// NewPostgresDeveloperRepo はPostgresDeveloperRepoを生成する。
func NewPostgresDeveloperRepo(db *sql.DB) *PostgresDeveloperRepo {
	return &PostgresDeveloperRepo{db: db}
}

func scanDeveloper(s rowScanner) (*model.Developer, error) {
	d := &model.Developer{}
	err := s.Scan(&d.ID, &d.Name, &d.Title, &d.Summary, &d.Location, &d.Email,
		&d.CreatedByID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindByID は指定IDの開発者を取得する。見つからない場合はnilを返す。
func (r *PostgresDeveloperRepo) FindByID(ctx context.Context, id string) (*model.Developer, error) {
	if !isUUID(id) {
		return nil, nil
	}

	d, err := scanDeveloper(r.db.QueryRowContext(ctx,
		`SELECT `+developerColumns+` FROM developers d WHERE d.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("開発者の取得に失敗しました: %w", err)
	}

	return d, nil
}

// List は全開発者を作成順で返す。
func (r *PostgresDeveloperRepo) List(ctx context.Context) ([]*model.Developer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+developerColumns+` FROM developers d ORDER BY d.created_at ASC, d.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("開発者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	developers := []*model.Developer{}
	for rows.Next() {
		d, err := scanDeveloper(rows)
		if err != nil {
			return nil, fmt.Errorf("開発者行の読み取りに失敗しました: %w", err)
		}
		developers = append(developers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("開発者一覧の走査に失敗しました: %w", err)
	}
	return developers, nil
}

// Create は開発者を作成する。
func (r *PostgresDeveloperRepo) Create(ctx context.Context, d *model.Developer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO developers (id, name, title, summary, location, email, created_by_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, d.Title, d.Summary, d.Location, d.Email, d.CreatedByID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("開発者の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は開発者情報を更新する。created_by_idは更新しない。
func (r *PostgresDeveloperRepo) Update(ctx context.Context, d *model.Developer) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE developers
		 SET name = $2, title = $3, summary = $4, location = $5, email = $6, updated_at = $7
		 WHERE id = $1`,
		d.ID, d.Name, d.Title, d.Summary, d.Location, d.Email, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("開発者の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの開発者を削除する。
func (r *PostgresDeveloperRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	return deleteWithOrphanedProjects(ctx, r.db, id,
		deleteProjectsOnlyLinkedToDeveloperQuery,
		`DELETE FROM developers WHERE id = $1`,
	)
}

// deleteProjectsOnlyLinkedToDeveloperQuery は指定開発者のスキルにしか関連付けられていないプロジェクトを削除する。
const deleteProjectsOnlyLinkedToDeveloperQuery = `DELETE FROM projects p
WHERE EXISTS (
    SELECT 1 FROM project_skills ps JOIN developer_skills s ON s.id = ps.skill_id
    WHERE ps.project_id = p.id AND s.developer_id = $1)
  AND NOT EXISTS (
    SELECT 1 FROM project_skills ps JOIN developer_skills s ON s.id = ps.skill_id
    WHERE ps.project_id = p.id AND s.developer_id <> $1)`

// deleteWithOrphanedProjects は関連付けが全て失われるプロジェクトを削除してから対象の行を削除する。
// project_skillsはカスケードで消えるため、先にプロジェクトを消さないと到達できない行が残る。
func deleteWithOrphanedProjects(ctx context.Context, db *sql.DB, id, projectsQuery, deleteQuery string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, projectsQuery, id); err != nil {
		return fmt.Errorf("関連プロジェクトの削除に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
		return fmt.Errorf("削除に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ DeveloperRepository = (*PostgresDeveloperRepo)(nil)
