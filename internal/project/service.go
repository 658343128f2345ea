// Package project はプロジェクト実績のドメインロジックを提供する。
//
// プロジェクトは開発者と直接紐付かない。所有者は関連付けられたスキルで決まり、
// アクセス判定には最初のスキルの開発者を使う。そのため、作成・更新時には
// 関連付けるスキルが1件以上あり、全てがURLの開発者に属していることを要求する。
package project

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/devfolio/internal/access"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/repository"
	"github.com/hitoshi/devfolio/internal/security"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 10000
	maxURLLength         = 2048
	maxSkills            = 50
)

// Input はプロジェクトの作成・更新時の入力値。SkillIDsの順序が関連付けの順序になる。
type Input struct {
	Name        string
	Description string
	URL         string
	SkillIDs    []string
}

// Service はプロジェクトのサービス層。
type Service struct {
	projects   repository.ProjectRepository
	skills     repository.SkillRepository
	developers repository.DeveloperRepository
	devAccess  *access.DeveloperAccessor
	access     *access.ProjectAccessor
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	projects repository.ProjectRepository,
	skills repository.SkillRepository,
	developers repository.DeveloperRepository,
	devAccess *access.DeveloperAccessor,
	projectAccess *access.ProjectAccessor,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		projects:   projects,
		skills:     skills,
		developers: developers,
		devAccess:  devAccess,
		access:     projectAccess,
		sanitizer:  sanitizer,
	}
}

// List は開発者のスキルに関連付いたプロジェクトの一覧を返す。
func (s *Service) List(ctx context.Context, externalUserID, developerID string) ([]*model.Project, error) {
	if _, err := s.parent(ctx, externalUserID, developerID); err != nil {
		return nil, err
	}
	projects, err := s.projects.ListByDeveloperID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get はプロジェクトを取得する。
func (s *Service) Get(ctx context.Context, externalUserID, developerID, projectID string) (*model.Project, error) {
	p, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return s.access.CheckAccess(ctx, p, developerID, externalUserID)
}

// Create はプロジェクトを作成し、スキルを関連付ける。
func (s *Service) Create(ctx context.Context, externalUserID, developerID string, in Input) (*model.Project, error) {
	dev, err := s.parent(ctx, externalUserID, developerID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	skills, err := s.ownedSkills(ctx, dev.ID, clean.SkillIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Project{
		ID:          uuid.New().String(),
		Name:        clean.Name,
		Description: clean.Description,
		URL:         clean.URL,
		Skills:      skills,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update はプロジェクトを更新し、スキルの関連付けを置き換える。
func (s *Service) Update(ctx context.Context, externalUserID, developerID, projectID string, in Input) (*model.Project, error) {
	p, err := s.Get(ctx, externalUserID, developerID, projectID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	skills, err := s.ownedSkills(ctx, developerID, clean.SkillIDs)
	if err != nil {
		return nil, err
	}

	p.Name = clean.Name
	p.Description = clean.Description
	p.URL = clean.URL
	p.Skills = skills
	p.UpdatedAt = time.Now()
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete はプロジェクトを削除する。
func (s *Service) Delete(ctx context.Context, externalUserID, developerID, projectID string) error {
	if _, err := s.Get(ctx, externalUserID, developerID, projectID); err != nil {
		return err
	}
	return s.projects.Delete(ctx, projectID)
}

func (s *Service) parent(ctx context.Context, externalUserID, developerID string) (*model.Developer, error) {
	dev, err := s.developers.FindByID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find developer: %w", err)
	}
	return s.devAccess.CheckAccess(ctx, dev, externalUserID)
}

// ownedSkills はスキルIDを読み込み、全てがdeveloperIDに属していることを確認する。
func (s *Service) ownedSkills(ctx context.Context, developerID string, ids []string) ([]*model.DeveloperSkill, error) {
	skills := make([]*model.DeveloperSkill, 0, len(ids))
	for _, id := range ids {
		sk, err := s.skills.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to find skill: %w", err)
		}
		if sk == nil || sk.DeveloperID != developerID {
			return nil, model.NewValidationError(fmt.Sprintf("skill %s does not belong to the developer", id))
		}
		skills = append(skills, sk)
	}
	return skills, nil
}

// normalize は入力をサニタイズし、スキルIDの重複を順序を保って除去する。
func (s *Service) normalize(in Input) (Input, error) {
	out := Input{
		Name:        s.sanitizer.SanitizePlainText(in.Name),
		Description: s.sanitizer.SanitizeRichText(in.Description),
		URL:         strings.TrimSpace(in.URL),
	}
	seen := make(map[string]struct{}, len(in.SkillIDs))
	for _, id := range in.SkillIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out.SkillIDs = append(out.SkillIDs, id)
	}

	switch {
	case out.Name == "":
		return Input{}, model.NewValidationError("name is required")
	case utf8.RuneCountInString(out.Name) > maxNameLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case utf8.RuneCountInString(out.Description) > maxDescriptionLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	case len(out.URL) > maxURLLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("url must be at most %d bytes", maxURLLength))
	case len(out.SkillIDs) == 0:
		return Input{}, model.NewValidationError("at least one skill_id is required")
	case len(out.SkillIDs) > maxSkills:
		return Input{}, model.NewValidationError(fmt.Sprintf("at most %d skills can be linked", maxSkills))
	}
	if err := security.ValidateExternalURL(out.URL); err != nil {
		return Input{}, model.NewValidationError(err.Error())
	}
	return out, nil
}
