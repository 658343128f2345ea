package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresSkillRepo はPostgreSQLを使用した開発者スキルリポジトリ。
type PostgresSkillRepo struct {
	db *sql.DB
}

// NewPostgresSkillRepo はPostgresSkillRepoを生成する。
func NewPostgresSkillRepo(db *sql.DB) *PostgresSkillRepo {
	return &PostgresSkillRepo{db: db}
}

const skillColumns = `s.id, s.developer_id, s.name, s.level, s.years_of_experience, s.created_at, s.updated_at`

// scanSkillWithDeveloper はスキル列とLEFT JOINした開発者列を読み取る。
func scanSkillWithDeveloper(sc rowScanner) (*model.DeveloperSkill, error) {
	s := &model.DeveloperSkill{}
	var parent nullDeveloper
	dest := append([]any{&s.ID, &s.DeveloperID, &s.Name, &s.Level, &s.YearsOfExperience, &s.CreatedAt, &s.UpdatedAt},
		parent.dest()...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	s.Developer = parent.toModel()
	return s, nil
}

// FindByID は指定IDのスキルを親の開発者付きで取得する。見つからない場合はnilを返す。
func (r *PostgresSkillRepo) FindByID(ctx context.Context, id string) (*model.DeveloperSkill, error) {
	if !isUUID(id) {
		return nil, nil
	}

	s, err := scanSkillWithDeveloper(r.db.QueryRowContext(ctx,
		`SELECT `+skillColumns+`, `+developerColumns+`
		 FROM developer_skills s
		 LEFT JOIN developers d ON d.id = s.developer_id
		 WHERE s.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スキルの取得に失敗しました: %w", err)
	}
	return s, nil
}

// ListByDeveloperID は開発者のスキル一覧を返す。
func (r *PostgresSkillRepo) ListByDeveloperID(ctx context.Context, developerID string) ([]*model.DeveloperSkill, error) {
	if !isUUID(developerID) {
		return []*model.DeveloperSkill{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+skillColumns+`, `+developerColumns+`
		 FROM developer_skills s
		 LEFT JOIN developers d ON d.id = s.developer_id
		 WHERE s.developer_id = $1
		 ORDER BY s.level DESC, s.name ASC`,
		developerID,
	)
	if err != nil {
		return nil, fmt.Errorf("スキル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	skills := []*model.DeveloperSkill{}
	for rows.Next() {
		s, err := scanSkillWithDeveloper(rows)
		if err != nil {
			return nil, fmt.Errorf("スキル行の読み取りに失敗しました: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スキル一覧の走査に失敗しました: %w", err)
	}
	return skills, nil
}

// Create はスキルを作成する。
func (r *PostgresSkillRepo) Create(ctx context.Context, s *model.DeveloperSkill) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO developer_skills (id, developer_id, name, level, years_of_experience, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.DeveloperID, s.Name, s.Level, s.YearsOfExperience, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("スキルの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はスキルを更新する。所属する開発者は変更しない。
func (r *PostgresSkillRepo) Update(ctx context.Context, s *model.DeveloperSkill) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE developer_skills
		 SET name = $2, level = $3, years_of_experience = $4, updated_at = $5
		 WHERE id = $1`,
		s.ID, s.Name, s.Level, s.YearsOfExperience, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("スキルの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのスキルを削除する。
func (r *PostgresSkillRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	return deleteWithOrphanedProjects(ctx, r.db, id,
		deleteProjectsOnlyLinkedToSkillQuery,
		`DELETE FROM developer_skills WHERE id = $1`,
	)
}

// deleteProjectsOnlyLinkedToSkillQuery は指定スキルにしか関連付けられていないプロジェクトを削除する。
const deleteProjectsOnlyLinkedToSkillQuery = `DELETE FROM projects p
WHERE EXISTS (SELECT 1 FROM project_skills ps WHERE ps.project_id = p.id AND ps.skill_id = $1)
  AND NOT EXISTS (SELECT 1 FROM project_skills ps WHERE ps.project_id = p.id AND ps.skill_id <> $1)`

// compile-time interface check
var _ SkillRepository = (*PostgresSkillRepo)(nil)
