// Package access はリソースへのアクセス可否を判定する。
//
// すべての判定は開発者単位の権限（リソース "Developers"）に帰着する。
// スキル・職歴・SNSリンクは親の開発者を、プロジェクトは最初に関連付けられたスキルを経由して判定する。
//
// 判定の過程でユーザーを取得し、存在しなければ作成する。
// 読み取り専用の判定でもusersテーブルに行が追加されうる。
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/model"
)

// メトリクスのresourceラベル。
const (
	metricDevelopers  = model.ResourceDevelopers
	metricSkills      = "DeveloperSkills"
	metricExperiences = "Experiences"
	metricProjects    = "Projects"
	metricSocialLinks = "SocialLinks"
)

// UserResolver は外部IDからユーザーを権限付きで取得または作成するインターフェース。
// user.Managerが実装する。
type UserResolver interface {
	GetOrCreateUserIncludingPermissions(ctx context.Context, externalID string) (*model.User, error)
}

// Authorize はユーザーが開発者にアクセスできるかを判定する。ストアにはアクセスしない。
// 次のいずれかを満たせば許可する。
//   - "Developers" に対するAll権限を持つ
//   - "Developers" に対する、この開発者IDのSpecific権限を持つ
//   - 開発者の作成者である
func Authorize(user *model.User, developer *model.Developer) error {
	if user.HasPermission(model.ResourceDevelopers, developer.ID) {
		return nil
	}
	if developer.CreatedByID != "" && developer.CreatedByID == user.ExternalID {
		return nil
	}
	return model.NewAccessDeniedError("開発者")
}

// DeveloperAccessor は開発者へのアクセス可否を判定する。
type DeveloperAccessor struct {
	users   UserResolver
	metrics metrics.MetricsCollector
}

// NewDeveloperAccessor はDeveloperAccessorを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewDeveloperAccessor(users UserResolver, collector metrics.MetricsCollector) *DeveloperAccessor {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &DeveloperAccessor{users: users, metrics: collector}
}

// Resolve は外部IDのユーザーを権限付きで取得する。存在しなければ作成する。
func (a *DeveloperAccessor) Resolve(ctx context.Context, externalUserID string) (*model.User, error) {
	return a.users.GetOrCreateUserIncludingPermissions(ctx, externalUserID)
}

// CheckAccess は開発者へのアクセスを判定し、許可された場合は同じ開発者をそのまま返す。
// developerがnilの場合はNotFound、権限がなければAccessDeniedを返す。
func (a *DeveloperAccessor) CheckAccess(ctx context.Context, developer *model.Developer, externalUserID string) (*model.Developer, error) {
	err := a.check(ctx, developer, externalUserID)
	a.record(metricDevelopers, err)
	if err != nil {
		return nil, err
	}
	return developer, nil
}

func (a *DeveloperAccessor) check(ctx context.Context, developer *model.Developer, externalUserID string) error {
	if developer == nil {
		return model.NewNotFoundError("開発者", "")
	}

	user, err := a.Resolve(ctx, externalUserID)
	if err != nil {
		return err
	}

	if err := Authorize(user, developer); err != nil {
		slog.Warn("開発者へのアクセスを拒否しました",
			slog.String("external_user_id", externalUserID),
			slog.String("developer_id", developer.ID),
		)
		return err
	}
	return nil
}

// FilterAccessible はユーザーがアクセスできる開発者だけを入力順のまま返す。
// ユーザーの取得は1回だけ行う。All権限を持つ場合は入力をそのまま返す。
func (a *DeveloperAccessor) FilterAccessible(ctx context.Context, developers []*model.Developer, externalUserID string) ([]*model.Developer, error) {
	user, err := a.Resolve(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	if user.HasPermission(model.ResourceDevelopers, "") {
		return developers, nil
	}

	accessible := make([]*model.Developer, 0, len(developers))
	for _, d := range developers {
		if d == nil {
			continue
		}
		if Authorize(user, d) == nil {
			accessible = append(accessible, d)
		}
	}
	return accessible, nil
}

// record はアクセス判定の結果をメトリクスに記録する。
func (a *DeveloperAccessor) record(resource string, err error) {
	a.metrics.RecordAccessDecision(resource, outcomeOf(err))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeAllowed
	case errors.Is(err, model.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, model.ErrAccessDenied):
		return metrics.OutcomeDenied
	default:
		return metrics.OutcomeError
	}
}
