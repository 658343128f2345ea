package access

import (
	"context"
	"log/slog"

	"github.com/hitoshi/devfolio/internal/model"
)

// childPolicy は開発者に直接所属するエンティティの判定規則。
// ownerはエンティティに読み込まれた親の開発者を返す。
type childPolicy[E any] struct {
	developers *DeveloperAccessor
	label      string // エラーメッセージ用のリソース名
	metric     string
	owner      func(*E) *model.Developer
}

// check は存在確認、所属確認、開発者の権限判定の順に行う。
func (p childPolicy[E]) check(ctx context.Context, entity *E, claimedDeveloperID, externalUserID string) error {
	if entity == nil {
		return model.NewNotFoundError(p.label, "")
	}
	developer := p.owner(entity)
	if developer == nil {
		return model.NewNotFoundError(p.label, "")
	}

	// URLの開発者IDと実際の親が異なる場合は、子が存在していても拒否する
	if developer.ID != claimedDeveloperID {
		slog.Warn("親の開発者が一致しないためアクセスを拒否しました",
			slog.String("resource", p.metric),
			slog.String("claimed_developer_id", claimedDeveloperID),
			slog.String("external_user_id", externalUserID),
		)
		return model.NewAccessDeniedError(p.label)
	}

	return p.developers.check(ctx, developer, externalUserID)
}

func (p childPolicy[E]) checkAndRecord(ctx context.Context, entity *E, claimedDeveloperID, externalUserID string) (*E, error) {
	err := p.check(ctx, entity, claimedDeveloperID, externalUserID)
	p.developers.record(p.metric, err)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// DeveloperSkillAccessor はスキルへのアクセス可否を判定する。
type DeveloperSkillAccessor struct {
	policy childPolicy[model.DeveloperSkill]
}

// NewDeveloperSkillAccessor はDeveloperSkillAccessorを生成する。
func NewDeveloperSkillAccessor(developers *DeveloperAccessor) *DeveloperSkillAccessor {
	return &DeveloperSkillAccessor{policy: childPolicy[model.DeveloperSkill]{
		developers: developers,
		label:      "スキル",
		metric:     metricSkills,
		owner:      func(s *model.DeveloperSkill) *model.Developer { return s.Developer },
	}}
}

// CheckAccess はスキルへのアクセスを判定し、許可された場合は同じスキルをそのまま返す。
// skillがnil、または親の開発者が読み込まれていない場合はNotFound。
// 親の開発者IDがclaimedDeveloperIDと異なる場合はAccessDenied。
func (a *DeveloperSkillAccessor) CheckAccess(ctx context.Context, skill *model.DeveloperSkill, claimedDeveloperID, externalUserID string) (*model.DeveloperSkill, error) {
	return a.policy.checkAndRecord(ctx, skill, claimedDeveloperID, externalUserID)
}

// ExperienceAccessor は職歴へのアクセス可否を判定する。
type ExperienceAccessor struct {
	policy childPolicy[model.Experience]
}

// NewExperienceAccessor はExperienceAccessorを生成する。
func NewExperienceAccessor(developers *DeveloperAccessor) *ExperienceAccessor {
	return &ExperienceAccessor{policy: childPolicy[model.Experience]{
		developers: developers,
		label:      "職歴",
		metric:     metricExperiences,
		owner:      func(e *model.Experience) *model.Developer { return e.Developer },
	}}
}

// CheckAccess は職歴へのアクセスを判定し、許可された場合は同じ職歴をそのまま返す。
func (a *ExperienceAccessor) CheckAccess(ctx context.Context, experience *model.Experience, claimedDeveloperID, externalUserID string) (*model.Experience, error) {
	return a.policy.checkAndRecord(ctx, experience, claimedDeveloperID, externalUserID)
}

// SocialLinkAccessor はSNSリンクへのアクセス可否を判定する。
type SocialLinkAccessor struct {
	policy childPolicy[model.SocialLink]
}

// NewSocialLinkAccessor はSocialLinkAccessorを生成する。
func NewSocialLinkAccessor(developers *DeveloperAccessor) *SocialLinkAccessor {
	return &SocialLinkAccessor{policy: childPolicy[model.SocialLink]{
		developers: developers,
		label:      "SNSリンク",
		metric:     metricSocialLinks,
		owner:      func(l *model.SocialLink) *model.Developer { return l.Developer },
	}}
}

// CheckAccess はSNSリンクへのアクセスを判定し、許可された場合は同じリンクをそのまま返す。
func (a *SocialLinkAccessor) CheckAccess(ctx context.Context, link *model.SocialLink, claimedDeveloperID, externalUserID string) (*model.SocialLink, error) {
	return a.policy.checkAndRecord(ctx, link, claimedDeveloperID, externalUserID)
}

// ProjectAccessor はプロジェクトへのアクセス可否を判定する。
// プロジェクトは開発者と直接紐付かないため、最初に関連付けられたスキルで判定する。
type ProjectAccessor struct {
	skills *DeveloperSkillAccessor
}

// NewProjectAccessor はProjectAccessorを生成する。
func NewProjectAccessor(skills *DeveloperSkillAccessor) *ProjectAccessor {
	return &ProjectAccessor{skills: skills}
}

// CheckAccess はプロジェクトへのアクセスを判定し、許可された場合は同じプロジェクトをそのまま返す。
// projectがnil、またはスキルが1件も関連付けられていない場合はNotFound。
func (a *ProjectAccessor) CheckAccess(ctx context.Context, project *model.Project, claimedDeveloperID, externalUserID string) (*model.Project, error) {
	err := a.check(ctx, project, claimedDeveloperID, externalUserID)
	a.skills.policy.developers.record(metricProjects, err)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (a *ProjectAccessor) check(ctx context.Context, project *model.Project, claimedDeveloperID, externalUserID string) error {
	if project == nil || len(project.Skills) == 0 {
		return model.NewNotFoundError("プロジェクト", "")
	}
	return a.skills.policy.check(ctx, project.Skills[0], claimedDeveloperID, externalUserID)
}
