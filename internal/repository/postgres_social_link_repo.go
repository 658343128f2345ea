package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresSocialLinkRepo はPostgreSQLを使用したSNSリンクリポジトリ。
type PostgresSocialLinkRepo struct {
	db *sql.DB
}

// NewPostgresSocialLinkRepo はPostgresSocialLinkRepoを生成する。
func NewPostgresSocialLinkRepo(db *sql.DB) *PostgresSocialLinkRepo {
	return &PostgresSocialLinkRepo{db: db}
}

const socialLinkColumns = `l.id, l.developer_id, l.platform, l.url, l.created_at, l.updated_at`

func scanSocialLinkWithDeveloper(sc rowScanner) (*model.SocialLink, error) {
	l := &model.SocialLink{}
	var parent nullDeveloper
	dest := append([]any{&l.ID, &l.DeveloperID, &l.Platform, &l.URL, &l.CreatedAt, &l.UpdatedAt},
		parent.dest()...)
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	l.Developer = parent.toModel()
	return l, nil
}

// FindByID は指定IDのリンクを親の開発者付きで取得する。見つからない場合はnilを返す。
func (r *PostgresSocialLinkRepo) FindByID(ctx context.Context, id string) (*model.SocialLink, error) {
	if !isUUID(id) {
		return nil, nil
	}

	l, err := scanSocialLinkWithDeveloper(r.db.QueryRowContext(ctx,
		`SELECT `+socialLinkColumns+`, `+developerColumns+`
		 FROM social_links l
		 LEFT JOIN developers d ON d.id = l.developer_id
		 WHERE l.id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find social link: %w", err)
	}
	return l, nil
}

// ListByDeveloperID は開発者のリンク一覧を返す。
func (r *PostgresSocialLinkRepo) ListByDeveloperID(ctx context.Context, developerID string) ([]*model.SocialLink, error) {
	if !isUUID(developerID) {
		return []*model.SocialLink{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+socialLinkColumns+`, `+developerColumns+`
		 FROM social_links l
		 LEFT JOIN developers d ON d.id = l.developer_id
		 WHERE l.developer_id = $1
		 ORDER BY l.platform ASC, l.id ASC`,
		developerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list social links: %w", err)
	}
	defer rows.Close()

	links := []*model.SocialLink{}
	for rows.Next() {
		l, err := scanSocialLinkWithDeveloper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan social link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate social links: %w", err)
	}
	return links, nil
}

// Create はリンクを作成する。
func (r *PostgresSocialLinkRepo) Create(ctx context.Context, l *model.SocialLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO social_links (id, developer_id, platform, url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.DeveloperID, l.Platform, l.URL, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert social link: %w", err)
	}
	return nil
}

// Update はリンクを更新する。
func (r *PostgresSocialLinkRepo) Update(ctx context.Context, l *model.SocialLink) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE social_links SET platform = $2, url = $3, updated_at = $4 WHERE id = $1`,
		l.ID, l.Platform, l.URL, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update social link: %w", err)
	}
	return nil
}

// Delete は指定IDのリンクを削除する。
func (r *PostgresSocialLinkRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM social_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete social link: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SocialLinkRepository = (*PostgresSocialLinkRepo)(nil)
