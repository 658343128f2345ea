package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/devfolio/internal/model"
)

// PostgresPermissionRepo はPostgreSQLを使用した権限リポジトリ。
type PostgresPermissionRepo struct {
	db *sql.DB
}

// NewPostgresPermissionRepo はPostgresPermissionRepoを生成する。
func NewPostgresPermissionRepo(db *sql.DB) *PostgresPermissionRepo {
	return &PostgresPermissionRepo{db: db}
}

// Create は権限を作成する。
func (r *PostgresPermissionRepo) Create(ctx context.Context, permission *model.Permission) error {
	if permission.UserID == "" {
		return fmt.Errorf("permission has no owner")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (id, user_id, resource, resource_id, scope, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		permission.ID, permission.UserID, permission.Resource, permission.ResourceID,
		string(permission.Scope), permission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert permission: %w", err)
	}

	return nil
}

// Delete は指定IDの権限を削除する。
func (r *PostgresPermissionRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	return nil
}

// DeleteSpecificByResource はresourceとresourceIDが一致するSpecific権限を全ユーザー分削除する。
func (r *PostgresPermissionRepo) DeleteSpecificByResource(ctx context.Context, resource, resourceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE resource = $1 AND resource_id = $2 AND scope = $3`,
		resource, resourceID, string(model.PermissionScopeSpecific),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete specific permissions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// ListByUserID はユーザーの権限一覧を作成順で返す。
func (r *PostgresPermissionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Permission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, resource, resource_id, scope, created_at
		 FROM permissions WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	permissions := []*model.Permission{}
	for rows.Next() {
		p := &model.Permission{}
		var resourceID sql.NullString
		var scope string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Resource, &resourceID, &scope, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		if resourceID.Valid {
			id := resourceID.String
			p.ResourceID = &id
		}
		p.Scope = model.PermissionScope(scope)

		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("corrupt permission row %s: %w", p.ID, err)
		}
		permissions = append(permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}

	return permissions, nil
}

// compile-time interface check
var _ PermissionRepository = (*PostgresPermissionRepo)(nil)
