package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db          *sql.DB
	permissions *PostgresPermissionRepo
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{
		db:          db,
		permissions: NewPostgresPermissionRepo(db),
	}
}

// FindByExternalID は外部IDでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	user := &model.User{Permissions: []*model.Permission{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, created_at, updated_at FROM users WHERE external_id = $1`,
		externalID,
	).Scan(&user.ID, &user.ExternalID, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by external ID: %w", err)
	}

	return user, nil
}

// FindByExternalIDWithPermissions は外部IDでユーザーを権限付きで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByExternalIDWithPermissions(ctx context.Context, externalID string) (*model.User, error) {
	user, err := r.FindByExternalID(ctx, externalID)
	if err != nil || user == nil {
		return user, err
	}

	permissions, err := r.permissions.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user permissions: %w", err)
	}
	user.Permissions = permissions

	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, nil
	}

	user := &model.User{Permissions: []*model.Permission{}}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.ExternalID, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// Upsert はexternal_idをキーに冪等にユーザーを作成する。
// ON CONFLICTで既存行を更新せずに返すため、同じ外部IDで同時に呼ばれても行は1つになる。
// xmax = 0 の行は今回のINSERTで作成された行を示す。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, bool, error) {
	stored := &model.User{Permissions: []*model.Permission{}}
	var created bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, external_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		 RETURNING id, external_id, created_at, updated_at, (xmax = 0) AS created`,
		user.ID, user.ExternalID, user.CreatedAt, user.UpdatedAt,
	).Scan(&stored.ID, &stored.ExternalID, &stored.CreatedAt, &stored.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	return stored, created, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
