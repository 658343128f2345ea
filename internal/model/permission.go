package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResourceDevelopers は開発者プロフィールを表す権限リソース名。
// スキル・職歴・プロジェクト・SNSリンクもこのリソースの権限を継承する。
const ResourceDevelopers = "Developers"

// PermissionScope は権限の適用範囲を表す。
type PermissionScope string

const (
	// PermissionScopeAll はリソース種別の全インスタンスに対する権限。
	PermissionScopeAll PermissionScope = "All"
	// PermissionScopeSpecific は特定インスタンスに対する権限。
	PermissionScopeSpecific PermissionScope = "Specific"
)

// Permission はユーザーに付与された権限を表す。
// 生成はNewAllPermission / NewSpecificPermissionのみで行い、生成後は変更しない。
// Scope == All のときResourceIDはnil、Scope == Specific のときnon-nil。
type Permission struct {
	ID         string
	UserID     string
	Resource   string
	ResourceID *string
	Scope      PermissionScope
	CreatedAt  time.Time
}

// NewAllPermission はリソース種別全体に対する権限を生成する。
func NewAllPermission(resource string) (*Permission, error) {
	if strings.TrimSpace(resource) == "" {
		return nil, NewValidationError("resource is required")
	}
	return &Permission{
		ID:        uuid.New().String(),
		Resource:  resource,
		Scope:     PermissionScopeAll,
		CreatedAt: time.Now(),
	}, nil
}

// NewSpecificPermission は特定インスタンスに対する権限を生成する。
func NewSpecificPermission(resource, resourceID string) (*Permission, error) {
	if strings.TrimSpace(resource) == "" {
		return nil, NewValidationError("resource is required")
	}
	if strings.TrimSpace(resourceID) == "" {
		return nil, NewValidationError("resource id is required for a specific permission")
	}
	id := resourceID
	return &Permission{
		ID:         uuid.New().String(),
		Resource:   resource,
		ResourceID: &id,
		Scope:      PermissionScopeSpecific,
		CreatedAt:  time.Now(),
	}, nil
}

// Validate はScopeとResourceIDの組み合わせが整合しているかを検証する。
// DBから復元した行の検証に使う。
func (p *Permission) Validate() error {
	if strings.TrimSpace(p.Resource) == "" {
		return NewValidationError("resource is required")
	}
	switch p.Scope {
	case PermissionScopeAll:
		if p.ResourceID != nil {
			return NewValidationError("an All permission must not have a resource id")
		}
	case PermissionScopeSpecific:
		if p.ResourceID == nil || strings.TrimSpace(*p.ResourceID) == "" {
			return NewValidationError("a Specific permission requires a resource id")
		}
	default:
		return NewValidationError("unknown permission scope: " + string(p.Scope))
	}
	return nil
}

// ResourceIDValue はResourceIDを文字列で返す。All権限の場合は空文字列。
func (p *Permission) ResourceIDValue() string {
	if p.ResourceID == nil {
		return ""
	}
	return *p.ResourceID
}

func (p *Permission) isAllOn(resource string) bool {
	return p.Resource == resource && p.Scope == PermissionScopeAll
}

func (p *Permission) isSpecificOn(resource, resourceID string) bool {
	return p.Resource == resource &&
		p.Scope == PermissionScopeSpecific &&
		p.ResourceID != nil &&
		*p.ResourceID == resourceID
}
