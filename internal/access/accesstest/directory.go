// Package accesstest はアクセス判定を使うパッケージのテスト用ユーザーディレクトリを提供する。
package accesstest

import (
	"context"
	"sync"

	"github.com/hitoshi/devfolio/internal/model"
)

// Directory はメモリ上のaccess.UserResolver。未登録の外部IDは作成して返す。
type Directory struct {
	mu    sync.Mutex
	users map[string]*model.User

	// Err が設定されている場合、解決は常にこのエラーを返す。
	Err error
}

// NewDirectory は空のDirectoryを生成する。
func NewDirectory() *Directory {
	return &Directory{users: map[string]*model.User{}}
}

// GetOrCreateUserIncludingPermissions は外部IDのユーザーを返す。
func (d *Directory) GetOrCreateUserIncludingPermissions(ctx context.Context, externalID string) (*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	return d.getOrCreate(externalID)
}

func (d *Directory) getOrCreate(externalID string) (*model.User, error) {
	if u, ok := d.users[externalID]; ok {
		return u, nil
	}
	u, err := model.NewUser(externalID)
	if err != nil {
		return nil, err
	}
	d.users[externalID] = u
	return u, nil
}

// GrantAll はユーザーに開発者全体へのAll権限を付与する。
func (d *Directory) GrantAll(externalID string) {
	p, _ := model.NewAllPermission(model.ResourceDevelopers)
	d.grant(externalID, p)
}

// GrantDeveloper はユーザーに特定の開発者へのSpecific権限を付与する。
func (d *Directory) GrantDeveloper(externalID, developerID string) {
	p, _ := model.NewSpecificPermission(model.ResourceDevelopers, developerID)
	d.grant(externalID, p)
}

func (d *Directory) grant(externalID string, p *model.Permission) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, err := d.getOrCreate(externalID)
	if err != nil {
		panic(err)
	}
	u.AddPermission(p)
}

// Known は外部IDのユーザーが作成済みかを返す。
func (d *Directory) Known(externalID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.users[externalID]
	return ok
}
