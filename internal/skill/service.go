// Package skill は開発者スキルのドメインロジックを提供する。
package skill

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/devfolio/internal/access"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/repository"
	"github.com/hitoshi/devfolio/internal/security"
)

const (
	maxNameLength = 100
	minLevel      = 1
	maxLevel      = 5
	maxYears      = 80
)

// Input はスキルの作成・更新時の入力値。
type Input struct {
	Name              string
	Level             int
	YearsOfExperience int
}

// Service はスキルのサービス層。
type Service struct {
	skills     repository.SkillRepository
	developers repository.DeveloperRepository
	devAccess  *access.DeveloperAccessor
	access     *access.DeveloperSkillAccessor
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	skills repository.SkillRepository,
	developers repository.DeveloperRepository,
	devAccess *access.DeveloperAccessor,
	skillAccess *access.DeveloperSkillAccessor,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		skills:     skills,
		developers: developers,
		devAccess:  devAccess,
		access:     skillAccess,
		sanitizer:  sanitizer,
	}
}

// List は開発者のスキル一覧を返す。
func (s *Service) List(ctx context.Context, externalUserID, developerID string) ([]*model.DeveloperSkill, error) {
	if _, err := s.parent(ctx, externalUserID, developerID); err != nil {
		return nil, err
	}
	skills, err := s.skills.ListByDeveloperID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("スキル一覧の取得に失敗しました: %w", err)
	}
	return skills, nil
}

// Get はスキルを取得する。URLの開発者に属さないスキルはAccessDenied。
func (s *Service) Get(ctx context.Context, externalUserID, developerID, skillID string) (*model.DeveloperSkill, error) {
	sk, err := s.skills.FindByID(ctx, skillID)
	if err != nil {
		return nil, fmt.Errorf("スキルの取得に失敗しました: %w", err)
	}
	return s.access.CheckAccess(ctx, sk, developerID, externalUserID)
}

// Create は開発者にスキルを追加する。
func (s *Service) Create(ctx context.Context, externalUserID, developerID string, in Input) (*model.DeveloperSkill, error) {
	dev, err := s.parent(ctx, externalUserID, developerID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sk := &model.DeveloperSkill{
		ID:                uuid.New().String(),
		DeveloperID:       dev.ID,
		Developer:         dev,
		Name:              clean.Name,
		Level:             clean.Level,
		YearsOfExperience: clean.YearsOfExperience,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.skills.Create(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// Update はスキルを更新する。
func (s *Service) Update(ctx context.Context, externalUserID, developerID, skillID string, in Input) (*model.DeveloperSkill, error) {
	sk, err := s.Get(ctx, externalUserID, developerID, skillID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	sk.Name = clean.Name
	sk.Level = clean.Level
	sk.YearsOfExperience = clean.YearsOfExperience
	sk.UpdatedAt = time.Now()
	if err := s.skills.Update(ctx, sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// Delete はスキルを削除する。
func (s *Service) Delete(ctx context.Context, externalUserID, developerID, skillID string) error {
	if _, err := s.Get(ctx, externalUserID, developerID, skillID); err != nil {
		return err
	}
	return s.skills.Delete(ctx, skillID)
}

// parent は親の開発者を取得し、アクセスを判定する。
func (s *Service) parent(ctx context.Context, externalUserID, developerID string) (*model.Developer, error) {
	dev, err := s.developers.FindByID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("開発者の取得に失敗しました: %w", err)
	}
	return s.devAccess.CheckAccess(ctx, dev, externalUserID)
}

func (s *Service) normalize(in Input) (Input, error) {
	out := in
	out.Name = s.sanitizer.SanitizePlainText(in.Name)

	switch {
	case out.Name == "":
		return Input{}, model.NewValidationError("name is required")
	case utf8.RuneCountInString(out.Name) > maxNameLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case out.Level < minLevel || out.Level > maxLevel:
		return Input{}, model.NewValidationError(fmt.Sprintf("level must be between %d and %d", minLevel, maxLevel))
	case out.YearsOfExperience < 0 || out.YearsOfExperience > maxYears:
		return Input{}, model.NewValidationError(fmt.Sprintf("years_of_experience must be between 0 and %d", maxYears))
	}
	return out, nil
}
