package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User は認証プロバイダー上のIDで識別される利用者を表す。
// 付与された権限を保持し、権限判定に答える。
// ユーザー削除時は権限もCASCADE削除される。
type User struct {
	ID          string
	ExternalID  string // 認証プロバイダーのsubject。全ユーザーで一意
	Permissions []*Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser は外部IDから権限を持たない新しいUserを生成する。
func NewUser(externalID string) (*User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, NewValidationError("external id is required")
	}
	now := time.Now()
	return &User{
		ID:          uuid.New().String(),
		ExternalID:  externalID,
		Permissions: []*Permission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AddPermission は権限を追加し、所有者をこのユーザーに設定する。
// 重複チェックは行わない。
func (u *User) AddPermission(p *Permission) {
	p.UserID = u.ID
	u.Permissions = append(u.Permissions, p)
}

// RemovePermission はresourceとresourceIDが一致するSpecific権限のうち最初の1件を取り除き、
// 取り除いた権限を返す。該当がなければnilを返す。All権限は対象外。
func (u *User) RemovePermission(resource, resourceID string) *Permission {
	for i, p := range u.Permissions {
		if p.isSpecificOn(resource, resourceID) {
			u.Permissions = append(u.Permissions[:i], u.Permissions[i+1:]...)
			return p
		}
	}
	return nil
}

// HasPermission はresourceに対する権限を持つかを判定する。
// All権限があればresourceIDに関係なくtrue。
// resourceIDが空でなければ、一致するSpecific権限がある場合もtrue。
// resourceIDが空（省略）の場合、Specific権限は考慮しない。
func (u *User) HasPermission(resource, resourceID string) bool {
	for _, p := range u.Permissions {
		if p.isAllOn(resource) {
			return true
		}
	}
	if resourceID == "" {
		return false
	}
	for _, p := range u.Permissions {
		if p.isSpecificOn(resource, resourceID) {
			return true
		}
	}
	return false
}
