// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/devfolio/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByExternalID は外部IDでユーザーを取得する。権限は読み込まない。
	// 見つからない場合はnilを返す。
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)

	// FindByExternalIDWithPermissions は外部IDでユーザーを権限付きで取得する。
	// 見つからない場合はnilを返す。
	FindByExternalIDWithPermissions(ctx context.Context, externalID string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はexternal_idをキーに冪等にユーザーを作成する。
	// 既に同じexternal_idの行があればその行を返し、createdはfalseになる。
	// 返すユーザーのPermissionsは空。
	Upsert(ctx context.Context, user *model.User) (stored *model.User, created bool, err error)
}

// PermissionRepository は権限データの永続化インターフェース。
type PermissionRepository interface {
	// Create は権限を作成する。UserIDが設定されている必要がある。
	Create(ctx context.Context, permission *model.Permission) error

	// Delete は指定IDの権限を削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, id string) error

	// DeleteSpecificByResource は所有者に関係なく、resourceとresourceIDが一致する
	// Specific権限をすべて削除し、削除件数を返す。All権限は削除しない。
	DeleteSpecificByResource(ctx context.Context, resource, resourceID string) (int64, error)

	// ListByUserID はユーザーの権限一覧を作成順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Permission, error)
}

// DeveloperRepository は開発者プロフィールの永続化インターフェース。
type DeveloperRepository interface {
	// FindByID は指定IDの開発者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Developer, error)

	// List は全開発者を作成順で返す。
	List(ctx context.Context) ([]*model.Developer, error)

	// Create は開発者を作成する。
	Create(ctx context.Context, developer *model.Developer) error

	// Update は開発者情報を更新する。CreatedByIDは更新しない。
	Update(ctx context.Context, developer *model.Developer) error

	// Delete は指定IDの開発者を削除する。
	// スキル、職歴、SNSリンクはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// SkillRepository は開発者スキルの永続化インターフェース。
type SkillRepository interface {
	// FindByID は指定IDのスキルを親の開発者付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.DeveloperSkill, error)

	// ListByDeveloperID は開発者のスキル一覧を返す。
	ListByDeveloperID(ctx context.Context, developerID string) ([]*model.DeveloperSkill, error)

	// Create はスキルを作成する。
	Create(ctx context.Context, skill *model.DeveloperSkill) error

	// Update はスキルを更新する。
	Update(ctx context.Context, skill *model.DeveloperSkill) error

	// Delete は指定IDのスキルを削除する。
	Delete(ctx context.Context, id string) error
}

// ExperienceRepository は職歴の永続化インターフェース。
type ExperienceRepository interface {
	// FindByID は指定IDの職歴を親の開発者付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Experience, error)

	// ListByDeveloperID は開発者の職歴一覧を開始日の降順で返す。
	ListByDeveloperID(ctx context.Context, developerID string) ([]*model.Experience, error)

	// Create は職歴を作成する。
	Create(ctx context.Context, experience *model.Experience) error

	// Update は職歴を更新する。
	Update(ctx context.Context, experience *model.Experience) error

	// Delete は指定IDの職歴を削除する。
	Delete(ctx context.Context, id string) error
}

// SocialLinkRepository はSNSリンクの永続化インターフェース。
type SocialLinkRepository interface {
	// FindByID は指定IDのリンクを親の開発者付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.SocialLink, error)

	// ListByDeveloperID は開発者のリンク一覧を返す。
	ListByDeveloperID(ctx context.Context, developerID string) ([]*model.SocialLink, error)

	// Create はリンクを作成する。
	Create(ctx context.Context, link *model.SocialLink) error

	// Update はリンクを更新する。
	Update(ctx context.Context, link *model.SocialLink) error

	// Delete は指定IDのリンクを削除する。
	Delete(ctx context.Context, id string) error
}

// ProjectRepository はプロジェクトの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを関連スキル（親の開発者付き）と共に取得する。
	// スキルは関連付けの順序で並ぶ。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// ListByDeveloperID は開発者のスキルに関連付いたプロジェクト一覧を返す。
	ListByDeveloperID(ctx context.Context, developerID string) ([]*model.Project, error)

	// Create はプロジェクトとスキルの関連付けを同一トランザクションで作成する。
	Create(ctx context.Context, project *model.Project) error

	// Update はプロジェクトを更新し、スキルの関連付けを置き換える。
	Update(ctx context.Context, project *model.Project) error

	// Delete は指定IDのプロジェクトを削除する。関連付けはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
