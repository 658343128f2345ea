// Package experience は職歴のドメインロジックを提供する。
package experience

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
	maxCompanyLength     = 200
	maxPositionLength    = 200
	maxDescriptionLength = 10000
)

// Input は職歴の作成・更新時の入力値。EndDateがnilの場合は在籍中を表す。
type Input struct {
	Company     string
	Position    string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
}

// Service は職歴のサービス層。
type Service struct {
	experiences repository.ExperienceRepository
	developers  repository.DeveloperRepository
	devAccess   *access.DeveloperAccessor
	access      *access.ExperienceAccessor
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	experiences repository.ExperienceRepository,
	developers repository.DeveloperRepository,
	devAccess *access.DeveloperAccessor,
	experienceAccess *access.ExperienceAccessor,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		experiences: experiences,
		developers:  developers,
		devAccess:   devAccess,
		access:      experienceAccess,
		sanitizer:   sanitizer,
	}
}

// List は開発者の職歴を開始日の降順で返す。
func (s *Service) List(ctx context.Context, externalUserID, developerID string) ([]*model.Experience, error) {
	if _, err := s.parent(ctx, externalUserID, developerID); err != nil {
		return nil, err
	}
	list, err := s.experiences.ListByDeveloperID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("職歴一覧の取得に失敗しました: %w", err)
	}
	return list, nil
}

// Get は職歴を取得する。
func (s *Service) Get(ctx context.Context, externalUserID, developerID, experienceID string) (*model.Experience, error) {
	e, err := s.experiences.FindByID(ctx, experienceID)
	if err != nil {
		return nil, fmt.Errorf("職歴の取得に失敗しました: %w", err)
	}
	return s.access.CheckAccess(ctx, e, developerID, externalUserID)
}

// Create は開発者に職歴を追加する。
func (s *Service) Create(ctx context.Context, externalUserID, developerID string, in Input) (*model.Experience, error) {
	dev, err := s.parent(ctx, externalUserID, developerID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e := &model.Experience{
		ID:          uuid.New().String(),
		DeveloperID: dev.ID,
		Developer:   dev,
		Company:     clean.Company,
		Position:    clean.Position,
		Description: clean.Description,
		StartDate:   clean.StartDate,
		EndDate:     clean.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.experiences.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update は職歴を更新する。
func (s *Service) Update(ctx context.Context, externalUserID, developerID, experienceID string, in Input) (*model.Experience, error) {
	e, err := s.Get(ctx, externalUserID, developerID, experienceID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	e.Company = clean.Company
	e.Position = clean.Position
	e.Description = clean.Description
	e.StartDate = clean.StartDate
	e.EndDate = clean.EndDate
	e.UpdatedAt = time.Now()
	if err := s.experiences.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete は職歴を削除する。
func (s *Service) Delete(ctx context.Context, externalUserID, developerID, experienceID string) error {
	if _, err := s.Get(ctx, externalUserID, developerID, experienceID); err != nil {
		return err
	}
	return s.experiences.Delete(ctx, experienceID)
}

func (s *Service) parent(ctx context.Context, externalUserID, developerID string) (*model.Developer, error) {
	dev, err := s.developers.FindByID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("開発者の取得に失敗しました: %w", err)
	}
	return s.devAccess.CheckAccess(ctx, dev, externalUserID)
}

// normalize は入力をサニタイズし、日付を日単位に切り詰めてから検証する。
func (s *Service) normalize(in Input) (Input, error) {
	out := Input{
		Company:     s.sanitizer.SanitizePlainText(in.Company),
		Position:    s.sanitizer.SanitizePlainText(in.Position),
		Description: s.sanitizer.SanitizeRichText(in.Description),
		StartDate:   truncateToDate(in.StartDate),
	}
	if in.EndDate != nil {
		end := truncateToDate(*in.EndDate)
		out.EndDate = &end
	}

	switch {
	case out.Company == "":
		return Input{}, model.NewValidationError("company is required")
	case utf8.RuneCountInString(out.Company) > maxCompanyLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("company must be at most %d characters", maxCompanyLength))
	case out.Position == "":
		return Input{}, model.NewValidationError("position is required")
	case utf8.RuneCountInString(out.Position) > maxPositionLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("position must be at most %d characters", maxPositionLength))
	case utf8.RuneCountInString(out.Description) > maxDescriptionLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	case out.StartDate.IsZero():
		return Input{}, model.NewValidationError("start_date is required")
	case out.EndDate != nil && out.EndDate.Before(out.StartDate):
		return Input{}, model.NewValidationError("end_date must not be before start_date")
	}
	return out, nil
}

// truncateToDate はDATE列に合わせて時刻をUTCの日付に切り詰める。
func truncateToDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
