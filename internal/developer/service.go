// Package developer は開発者プロフィールのドメインロジックを提供する。
package developer

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/devfolio/internal/access"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/repository"
	"github.com/hitoshi/devfolio/internal/security"
)

// 入力値の上限（文字数）
const (
	maxNameLength     = 100
	maxTitleLength    = 100
	maxSummaryLength  = 5000
	maxLocationLength = 100
)

// Input は開発者の作成・更新時の入力値。
type Input struct {
	Name     string
	Title    string
	Summary  string
	Location string
	Email    string
}

// PermissionRevoker は削除されたリソースへの権限を全ユーザーから取り消すインターフェース。
// permission.Managerが実装する。
type PermissionRevoker interface {
	RemoveSpecificPermissionFromAllUsers(ctx context.Context, resource, resourceID string) (int64, error)
}

// Service は開発者プロフィールのサービス層。
type Service struct {
	developers  repository.DeveloperRepository
	access      *access.DeveloperAccessor
	permissions PermissionRevoker
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	developers repository.DeveloperRepository,
	accessor *access.DeveloperAccessor,
	permissions PermissionRevoker,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		developers:  developers,
		access:      accessor,
		permissions: permissions,
		sanitizer:   sanitizer,
	}
}

// List はユーザーがアクセスできる開発者の一覧を作成順で返す。
func (s *Service) List(ctx context.Context, externalUserID string) ([]*model.Developer, error) {
	all, err := s.developers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("開発者一覧の取得に失敗しました: %w", err)
	}
	return s.access.FilterAccessible(ctx, all, externalUserID)
}

// Get は開発者を取得する。存在しなければNotFound、権限がなければAccessDenied。
func (s *Service) Get(ctx context.Context, externalUserID, developerID string) (*model.Developer, error) {
	d, err := s.developers.FindByID(ctx, developerID)
	if err != nil {
		return nil, fmt.Errorf("開発者の取得に失敗しました: %w", err)
	}
	return s.access.CheckAccess(ctx, d, externalUserID)
}

// Create は開発者を作成する。作成者は権限の付与なしで以後アクセスできる。
func (s *Service) Create(ctx context.Context, externalUserID string, in Input) (*model.Developer, error) {
	if externalUserID == "" {
		return nil, model.NewUnauthorizedError()
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	d := &model.Developer{
		ID:          uuid.New().String(),
		Name:        clean.Name,
		Title:       clean.Title,
		Summary:     clean.Summary,
		Location:    clean.Location,
		Email:       clean.Email,
		CreatedByID: externalUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.developers.Create(ctx, d); err != nil {
		return nil, err
	}

	slog.Info("開発者を作成しました",
		slog.String("developer_id", d.ID),
		slog.String("created_by", externalUserID),
	)
	return d, nil
}

// Update は開発者情報を更新する。作成者は変更しない。
func (s *Service) Update(ctx context.Context, externalUserID, developerID string, in Input) (*model.Developer, error) {
	d, err := s.Get(ctx, externalUserID, developerID)
	if err != nil {
		return nil, err
	}
	clean, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	d.Name = clean.Name
	d.Title = clean.Title
	d.Summary = clean.Summary
	d.Location = clean.Location
	d.Email = clean.Email
	d.UpdatedAt = time.Now()

	if err := s.developers.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete は開発者を削除し、その開発者を指すSpecific権限を全ユーザーから取り消す。
// 権限の取り消しに失敗しても削除は成功として扱い、残った権限はクリーンアップジョブが削除する。
func (s *Service) Delete(ctx context.Context, externalUserID, developerID string) error {
	if _, err := s.Get(ctx, externalUserID, developerID); err != nil {
		return err
	}
	if err := s.developers.Delete(ctx, developerID); err != nil {
		return err
	}

	revoked, err := s.permissions.RemoveSpecificPermissionFromAllUsers(ctx, model.ResourceDevelopers, developerID)
	if err != nil {
		slog.Error("削除した開発者の権限の取り消しに失敗しました",
			slog.String("developer_id", developerID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	slog.Info("開発者を削除しました",
		slog.String("developer_id", developerID),
		slog.Int64("revoked_permissions", revoked),
	)
	return nil
}

// normalize は入力をサニタイズしてから検証する。
func (s *Service) normalize(in Input) (Input, error) {
	out := Input{
		Name:     s.sanitizer.SanitizePlainText(in.Name),
		Title:    s.sanitizer.SanitizePlainText(in.Title),
		Summary:  s.sanitizer.SanitizeRichText(in.Summary),
		Location: s.sanitizer.SanitizePlainText(in.Location),
		Email:    s.sanitizer.SanitizePlainText(in.Email),
	}

	switch {
	case out.Name == "":
		return Input{}, model.NewValidationError("name is required")
	case utf8.RuneCountInString(out.Name) > maxNameLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case utf8.RuneCountInString(out.Title) > maxTitleLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	case utf8.RuneCountInString(out.Summary) > maxSummaryLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("summary must be at most %d characters", maxSummaryLength))
	case utf8.RuneCountInString(out.Location) > maxLocationLength:
		return Input{}, model.NewValidationError(fmt.Sprintf("location must be at most %d characters", maxLocationLength))
	}

	if out.Email != "" {
		addr, err := mail.ParseAddress(out.Email)
		if err != nil || addr.Address != out.Email {
			return Input{}, model.NewValidationError("email is invalid")
		}
	}
	return out, nil
}
