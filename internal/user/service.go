// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/repository"
)

// Manager は外部IDをキーにユーザーを取得し、存在しなければ作成する。
// 同じ外部IDに対する同時呼び出しはプロセス内でsingleflightにより1回にまとめ、
// プロセス間の競合はリポジトリのUpsert（UNIQUE制約 + ON CONFLICT）で解消する。
type Manager struct {
	users   repository.UserRepository
	metrics metrics.MetricsCollector
	group   singleflight.Group
}

// NewManager はManagerの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewManager(users repository.UserRepository, collector metrics.MetricsCollector) *Manager {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Manager{
		users:   users,
		metrics: collector,
	}
}

// GetOrCreateUser は外部IDのユーザーを権限なしで取得し、存在しなければ作成する。
func (m *Manager) GetOrCreateUser(ctx context.Context, externalID string) (*model.User, error) {
	return m.getOrCreate(ctx, externalID, false)
}

// GetOrCreateUserIncludingPermissions は外部IDのユーザーを権限付きで取得し、存在しなければ作成する。
// 新規作成したユーザーの権限は空。
func (m *Manager) GetOrCreateUserIncludingPermissions(ctx context.Context, externalID string) (*model.User, error) {
	return m.getOrCreate(ctx, externalID, true)
}

func (m *Manager) getOrCreate(ctx context.Context, externalID string, withPermissions bool) (*model.User, error) {
	// 入力検証はsingleflightに入る前に行う
	candidate, err := model.NewUser(externalID)
	if err != nil {
		return nil, err
	}

	key := "plain:" + externalID
	if withPermissions {
		key = "perm:" + externalID
	}

	// 共有処理は最初の呼び出し元のキャンセルで他の呼び出し元を巻き込まないよう切り離す。
	// 各呼び出し元は自分のctxが終了した時点で待機をやめる
	ch := m.group.DoChan(key, func() (any, error) {
		return m.loadOrCreate(context.WithoutCancel(ctx), candidate, withPermissions)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}

	user := res.Val.(*model.User)
	if res.Shared {
		// 共有結果は呼び出し元ごとに複製し、権限スライスを共有しない
		return cloneUser(user), nil
	}
	return user, nil
}

func (m *Manager) loadOrCreate(ctx context.Context, candidate *model.User, withPermissions bool) (*model.User, error) {
	found, err := m.find(ctx, candidate.ExternalID, withPermissions)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	stored, created, err := m.users.Upsert(ctx, candidate)
	if err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
		}
		// 別の行と衝突した場合は既存行を読み直す
		slog.Warn("ユーザー作成が一意制約と競合しました。既存ユーザーを再取得します",
			slog.String("external_id", candidate.ExternalID),
		)
		return m.findExisting(ctx, candidate.ExternalID, withPermissions)
	}

	if !created {
		// 検索とUpsertの間に他プロセスが作成した
		if withPermissions {
			return m.findExisting(ctx, candidate.ExternalID, true)
		}
		return stored, nil
	}

	m.metrics.RecordUserCreated()
	slog.Info("ユーザーを作成しました",
		slog.String("user_id", stored.ID),
		slog.String("external_id", stored.ExternalID),
	)
	return stored, nil
}

func (m *Manager) find(ctx context.Context, externalID string, withPermissions bool) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	if withPermissions {
		user, err = m.users.FindByExternalIDWithPermissions(ctx, externalID)
	} else {
		user, err = m.users.FindByExternalID(ctx, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return user, nil
}

func (m *Manager) findExisting(ctx context.Context, externalID string, withPermissions bool) (*model.User, error) {
	user, err := m.find(ctx, externalID, withPermissions)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("ユーザーの作成競合後に既存ユーザーが見つかりません: %s", externalID)
	}
	return user, nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Permissions = make([]*model.Permission, len(u.Permissions))
	copy(c.Permissions, u.Permissions)
	return &c
}
