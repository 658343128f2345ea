package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
// スキルの関連付けはproject_skills.positionの順序で保持する。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

const projectColumns = `p.id, p.name, p.description, p.url, p.created_at, p.updated_at`

func scanProject(sc rowScanner) (*model.Project, error) {
	p := &model.Project{Skills: []*model.DeveloperSkill{}}
	if err := sc.Scan(&p.ID, &p.Name, &p.Description, &p.URL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は指定IDのプロジェクトを関連スキル付きで取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	if !isUUID(id) {
		return nil, nil
	}

	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := r.loadSkills(ctx, []*model.Project{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByDeveloperID は開発者のスキルに関連付いたプロジェクト一覧を返す。
func (r *PostgresProjectRepo) ListByDeveloperID(ctx context.Context, developerID string) ([]*model.Project, error) {
	if !isUUID(developerID) {
		return []*model.Project{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p
		 WHERE EXISTS (
		     SELECT 1 FROM project_skills ps
		     JOIN developer_skills s ON s.id = ps.skill_id
		     WHERE ps.project_id = p.id AND s.developer_id = $1
		 )
		 ORDER BY p.created_at DESC, p.id ASC`,
		developerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	if err := r.loadSkills(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// loadSkills はプロジェクト群の関連スキルを親の開発者付きで1クエリで読み込む。
func (r *PostgresProjectRepo) loadSkills(ctx context.Context, projects []*model.Project) error {
	if len(projects) == 0 {
		return nil
	}

	byID := make(map[string]*model.Project, len(projects))
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT ps.project_id, `+skillColumns+`, `+developerColumns+`
		 FROM project_skills ps
		 JOIN developer_skills s ON s.id = ps.skill_id
		 LEFT JOIN developers d ON d.id = s.developer_id
		 WHERE ps.project_id = ANY($1::uuid[])
		 ORDER BY ps.project_id, ps.position ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load project skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID string
		s := &model.DeveloperSkill{}
		var parent nullDeveloper
		dest := append([]any{&projectID, &s.ID, &s.DeveloperID, &s.Name, &s.Level, &s.YearsOfExperience,
			&s.CreatedAt, &s.UpdatedAt}, parent.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan project skill: %w", err)
		}
		s.Developer = parent.toModel()
		if p, ok := byID[projectID]; ok {
			p.Skills = append(p.Skills, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate project skills: %w", err)
	}
	return nil
}

// Create はプロジェクトとスキルの関連付けを同一トランザクションで作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, p *model.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Description, p.URL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	if err := insertProjectSkills(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update はプロジェクトを更新し、スキルの関連付けを置き換える。
func (r *PostgresProjectRepo) Update(ctx context.Context, p *model.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE projects SET name = $2, description = $3, url = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.URL, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_skills WHERE project_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear project skills: %w", err)
	}

	if err := insertProjectSkills(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertProjectSkills(ctx context.Context, tx *sql.Tx, p *model.Project) error {
	for i, s := range p.Skills {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO project_skills (project_id, skill_id, position) VALUES ($1, $2, $3)`,
			p.ID, s.ID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to link project skill: %w", err)
		}
	}
	return nil
}

// Delete は指定IDのプロジェクトを削除する。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
