// Package permission はユーザーへの権限付与と取り消しを提供する。
package permission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/repository"
)

// UserResolver は外部IDからユーザーを取得または作成するインターフェース。
// user.Managerが実装する。
type UserResolver interface {
	GetOrCreateUser(ctx context.Context, externalID string) (*model.User, error)
	GetOrCreateUserIncludingPermissions(ctx context.Context, externalID string) (*model.User, error)
}

// UserLookup は外部IDでユーザーを権限付きで検索するインターフェース。
// 作成を伴わない操作（管理者による一覧表示と取り消し）で使う。
type UserLookup interface {
	FindByExternalIDWithPermissions(ctx context.Context, externalID string) (*model.User, error)
}

// Manager は権限の付与と取り消しを行うサービス。
type Manager struct {
	users       UserResolver
	lookup      UserLookup
	permissions repository.PermissionRepository
	metrics     metrics.MetricsCollector
}

// NewManager はManagerの新しいインスタンスを生成する。
func NewManager(
	users UserResolver,
	lookup UserLookup,
	permissions repository.PermissionRepository,
	collector metrics.MetricsCollector,
) *Manager {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Manager{
		users:       users,
		lookup:      lookup,
		permissions: permissions,
		metrics:     collector,
	}
}

// GiveUserAllPermission はユーザーにresourceの全インスタンスに対する権限を付与する。
// ユーザーが存在しなければ作成する。既存の権限は読み込まない。
func (m *Manager) GiveUserAllPermission(ctx context.Context, externalUserID, resource string) (*model.Permission, error) {
	p, err := model.NewAllPermission(resource)
	if err != nil {
		return nil, err
	}
	return m.give(ctx, externalUserID, p)
}

// GiveUserSpecificPermission はユーザーにresourceの特定インスタンスに対する権限を付与する。
// ユーザーが存在しなければ作成する。
func (m *Manager) GiveUserSpecificPermission(ctx context.Context, externalUserID, resource, resourceID string) (*model.Permission, error) {
	p, err := model.NewSpecificPermission(resource, resourceID)
	if err != nil {
		return nil, err
	}
	return m.give(ctx, externalUserID, p)
}

func (m *Manager) give(ctx context.Context, externalUserID string, p *model.Permission) (*model.Permission, error) {
	user, err := m.users.GetOrCreateUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	user.AddPermission(p)
	if err := m.permissions.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("権限の保存に失敗しました: %w", err)
	}

	m.metrics.RecordPermissionGranted(string(p.Scope))
	slog.Info("権限を付与しました",
		slog.String("external_user_id", externalUserID),
		slog.String("resource", p.Resource),
		slog.String("resource_id", p.ResourceIDValue()),
		slog.String("scope", string(p.Scope)),
	)
	return p, nil
}

// RemoveSpecificPermissionFromAllUsers は所有者に関係なく、resourceとresourceIDに一致する
// Specific権限をすべて削除し、削除件数を返す。All権限は削除しない。
// リソース削除時に参照先のなくなった権限を片付けるために使う。
func (m *Manager) RemoveSpecificPermissionFromAllUsers(ctx context.Context, resource, resourceID string) (int64, error) {
	if strings.TrimSpace(resource) == "" {
		return 0, model.NewValidationError("resource is required")
	}
	if strings.TrimSpace(resourceID) == "" {
		return 0, model.NewValidationError("resource id is required")
	}

	deleted, err := m.permissions.DeleteSpecificByResource(ctx, resource, resourceID)
	if err != nil {
		return 0, fmt.Errorf("権限の一括削除に失敗しました: %w", err)
	}

	m.metrics.RecordPermissionsRevoked(deleted)
	slog.Info("Specific権限を一括削除しました",
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.Int64("deleted", deleted),
	)
	return deleted, nil
}

// RemoveUserSpecificPermission は1ユーザーのSpecific権限を1件取り消す。
// 該当する権限がなければ何もせずfalseを返す。All権限は対象外。
// ユーザーが存在しない場合もfalseを返し、作成はしない。
func (m *Manager) RemoveUserSpecificPermission(ctx context.Context, externalUserID, resource, resourceID string) (bool, error) {
	if strings.TrimSpace(externalUserID) == "" {
		return false, model.NewValidationError("external id is required")
	}

	user, err := m.lookup.FindByExternalIDWithPermissions(ctx, externalUserID)
	if err != nil {
		return false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return false, nil
	}

	removed := user.RemovePermission(resource, resourceID)
	if removed == nil {
		return false, nil
	}

	if err := m.permissions.Delete(ctx, removed.ID); err != nil {
		return false, fmt.Errorf("権限の削除に失敗しました: %w", err)
	}

	m.metrics.RecordPermissionsRevoked(1)
	slog.Info("権限を取り消しました",
		slog.String("external_user_id", externalUserID),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
	)
	return true, nil
}

// ListUserPermissions はユーザーの権限一覧を返す。ユーザーが存在しなければ空の一覧を返し、作成はしない。
func (m *Manager) ListUserPermissions(ctx context.Context, externalUserID string) ([]*model.Permission, error) {
	if strings.TrimSpace(externalUserID) == "" {
		return nil, model.NewValidationError("external id is required")
	}

	user, err := m.lookup.FindByExternalIDWithPermissions(ctx, externalUserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return []*model.Permission{}, nil
	}
	return user.Permissions, nil
}
