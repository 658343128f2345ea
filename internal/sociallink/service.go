// Package sociallink は開発者のSNSリンクのドメインロジックを提供する。
package sociallink

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
	maxPlatformLength = 50
	maxURLLength      = 2048
)

// Input はSNSリンクの作成・更新時の入力値。
type Input struct {
	Platform string
	URL      string
}

// Service はSNSリンクのサービス層。
type Service struct {
	links      repository.SocialLinkRepository
	developers repository.DeveloperRepository
	devAccess  *access.DeveloperAccessor
	access     *access.SocialLinkAccessor
	sanitizer  security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	links repository.SocialLinkRepository,
	developers repository.DeveloperRepository,
	devAccess *access.DeveloperAccessor,
	linkAccess *access.SocialLinkAccessor,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		links:      links,
		developers: developers,
		devAccess:  devAccess,
		access:     linkAccess,
		sanitizer:  sanitizer,
	}
}

// List は開発者のSNSリンク一覧を返す。
func (s *Service) List(ctx context.Context, externalUserID, developerID string) ([]*model.SocialLink, error) {
	if _, err := s.parent(ctx, externalUserID, developerID); err != nil {
		return nil, err
	}
	links, err := s.links.ListByDeveloperID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list social links: %w", err)
	}
	return links, nil
}

// Get はSNSリンクを取得する。
func (s *Service) Get(ctx context.Context, externalUserID, developerID, linkID string) (*model.SocialLink, error) {
	l, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to find social link: %w", err)
	}
	return s.access.CheckAccess(ctx, l, developerID, externalUserID)
}

// Create は開発者にSNSリンクを追加する。
func (s *Service) Create(ctx context.Context, externalUserID, developerID string, in Input) (*model.SocialLink, error) {
	dev, err := s.parent(ctx, externalUserID, developerID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	l := &model.SocialLink{
		ID:          uuid.New().String(),
		DeveloperID: dev.ID,
		Developer:   dev,
		Platform:    clean.Platform,
		URL:         clean.URL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.links.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Update はSNSリンクを更新する。
func (s *Service) Update(ctx context.Context, externalUserID, developerID, linkID string, in Input) (*model.SocialLink, error) {
	l, err := s.Get(ctx, externalUserID, developerID, linkID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	l.Platform = clean.Platform
	l.URL = clean.URL
	l.UpdatedAt = time.Now()
	if err := s.links.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete はSNSリンクを削除する。
func (s *Service) Delete(ctx context.Context, externalUserID, developerID, linkID string) error {
	if _, err := s.Get(ctx, externalUserID, developerID, linkID); err != nil {
		return err
	}
	return s.links.Delete(ctx, linkID)
}

func (s *Service) parent(ctx context.Context, externalUserID, developerID string) (*model.Developer, error) {
	dev, err := s.developers.FindByID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find developer: %w", err)
	}
	return s.devAccess.CheckAccess(ctx, dev, externalUserID)
}

// normalize はプラットフォーム名を小文字に揃え、URLを検証する。
func (s *Service) normalize(in Input) (Input, error) {
	out := Input{
		Platform: strings.ToLower(s.sanitizer.SanitizePlainText(in.Platform)),
		URL:      strings.TrimSpace(in.URL),
	}

	switch {
	case out.Platform == "":
		return Input{}, model.NewValidationError("platform is required")
	case utf8.RuneCountInString(out.Platform) > maxPlatformLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("platform must be at most %d characters", maxPlatformLength))
	case out.URL == "":
		return Input{}, model.NewValidationError("url is required")
	case len(out.URL) > maxURLLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("url must be at most %d bytes", maxURLLength))
	}
	if err := security.ValidateExternalURL(out.URL); err != nil {
		return Input{}, model.NewValidationError(err.Error())
	}
	return out, nil
}
