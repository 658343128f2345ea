package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresExperienceRepo はPostgreSQLを使用した職歴リポジトリ。
type PostgresExperienceRepo struct {
	db *sql.DB
}

// NewPostgresExperienceRepo はPostgresExperienceRepoを生成する。
func NewPostgresExperienceRepo(db *sql.DB) *PostgresExperienceRepo {
	return &PostgresExperienceRepo{db: db}
}

const experienceColumns = `e.id, e.developer_id, e.company, e.position, e.description, e.start_date, e.end_date, e.created_at, e.updated_at`

func scanExperienceWithDeveloper(sc rowScanner) (*model.Experience, error) {
	e := &model.Experience{}
	var endDate sql.NullTime
	var parent nullDeveloper
	dest := append([]any{&e.ID, &e.DeveloperID, &e.Company, &e.Position, &e.Description,
		&e.StartDate, &endDate, &e.CreatedAt, &e.UpdatedAt}, parent.dest()...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	e.EndDate = timePtr(endDate)
	e.Developer = parent.toModel()
	return e, nil
}

// FindByID は指定IDの職歴を親の開発者付きで取得する。見つからない場合はnilを返す。
func (r *PostgresExperienceRepo) FindByID(ctx context.Context, id string) (*model.Experience, error) {
	if !isUUID(id) {
		return nil, nil
	}

	e, err := scanExperienceWithDeveloper(r.db.QueryRowContext(ctx,
		`SELECT `+experienceColumns+`, `+developerColumns+`
		 FROM experiences e
		 LEFT JOIN developers d ON d.id = e.developer_id
		 WHERE e.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("職歴の取得に失敗しました: %w", err)
	}
	return e, nil
}

// ListByDeveloperID は開発者の職歴一覧を開始日の降順で返す。
func (r *PostgresExperienceRepo) ListByDeveloperID(ctx context.Context, developerID string) ([]*model.Experience, error) {
	if !isUUID(developerID) {
		return []*model.Experience{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+experienceColumns+`, `+developerColumns+`
		 FROM experiences e
		 LEFT JOIN developers d ON d.id = e.developer_id
		 WHERE e.developer_id = $1
		 ORDER BY e.start_date DESC, e.id ASC`,
		developerID,
	)
	if err != nil {
		return nil, fmt.Errorf("職歴一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	experiences := []*model.Experience{}
	for rows.Next() {
		e, err := scanExperienceWithDeveloper(rows)
		if err != nil {
			return nil, fmt.Errorf("職歴行の読み取りに失敗しました: %w", err)
		}
		experiences = append(experiences, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("職歴一覧の走査に失敗しました: %w", err)
	}
	return experiences, nil
}

// Create は職歴を作成する。
func (r *PostgresExperienceRepo) Create(ctx context.Context, e *model.Experience) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO experiences (id, developer_id, company, position, description, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.DeveloperID, e.Company, e.Position, e.Description, e.StartDate, e.EndDate, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("職歴の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は職歴を更新する。所属する開発者は変更しない。
func (r *PostgresExperienceRepo) Update(ctx context.Context, e *model.Experience) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE experiences
		 SET company = $2, position = $3, description = $4, start_date = $5, end_date = $6, updated_at = $7
		 WHERE id = $1`,
		e.ID, e.Company, e.Position, e.Description, e.StartDate, e.EndDate, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("職歴の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの職歴を削除する。
func (r *PostgresExperienceRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM experiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("職歴の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ExperienceRepository = (*PostgresExperienceRepo)(nil)
