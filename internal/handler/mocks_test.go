package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/devfolio/internal/developer"
	"github.com/hitoshi/devfolio/internal/experience"
	"github.com/hitoshi/devfolio/internal/middleware"
	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/project"
	"github.com/hitoshi/devfolio/internal/skill"
	"github.com/hitoshi/devfolio/internal/sociallink"
)

// --- 開発者 ---

type mockDeveloperService struct {
	listFn   func(ctx context.Context, ext string) ([]*model.Developer, error)
	getFn    func(ctx context.Context, ext, id string) (*model.Developer, error)
	createFn func(ctx context.Context, ext string, in developer.Input) (*model.Developer, error)
	updateFn func(ctx context.Context, ext, id string, in developer.Input) (*model.Developer, error)
	deleteFn func(ctx context.Context, ext, id string) error
}

func (m *mockDeveloperService) List(ctx context.Context, ext string) ([]*model.Developer, error) {
	return m.listFn(ctx, ext)
}

func (m *mockDeveloperService) Get(ctx context.Context, ext, id string) (*model.Developer, error) {
	return m.getFn(ctx, ext, id)
}

func (m *mockDeveloperService) Create(ctx context.Context, ext string, in developer.Input) (*model.Developer, error) {
	return m.createFn(ctx, ext, in)
}

func (m *mockDeveloperService) Update(ctx context.Context, ext, id string, in developer.Input) (*model.Developer, error) {
	return m.updateFn(ctx, ext, id, in)
}

func (m *mockDeveloperService) Delete(ctx context.Context, ext, id string) error {
	return m.deleteFn(ctx, ext, id)
}

// --- スキル ---

type mockSkillService struct {
	listFn   func(ctx context.Context, ext, devID string) ([]*model.DeveloperSkill, error)
	getFn    func(ctx context.Context, ext, devID, id string) (*model.DeveloperSkill, error)
	createFn func(ctx context.Context, ext, devID string, in skill.Input) (*model.DeveloperSkill, error)
	updateFn func(ctx context.Context, ext, devID, id string, in skill.Input) (*model.DeveloperSkill, error)
	deleteFn func(ctx context.Context, ext, devID, id string) error
}

func (m *mockSkillService) List(ctx context.Context, ext, devID string) ([]*model.DeveloperSkill, error) {
	return m.listFn(ctx, ext, devID)
}

func (m *mockSkillService) Get(ctx context.Context, ext, devID, id string) (*model.DeveloperSkill, error) {
	return m.getFn(ctx, ext, devID, id)
}

func (m *mockSkillService) Create(ctx context.Context, ext, devID string, in skill.Input) (*model.DeveloperSkill, error) {
	return m.createFn(ctx, ext, devID, in)
}

func (m *mockSkillService) Update(ctx context.Context, ext, devID, id string, in skill.Input) (*model.DeveloperSkill, error) {
	return m.updateFn(ctx, ext, devID, id, in)
}

func (m *mockSkillService) Delete(ctx context.Context, ext, devID, id string) error {
	return m.deleteFn(ctx, ext, devID, id)
}

// --- 職歴 ---

type mockExperienceService struct {
	listFn   func(ctx context.Context, ext, devID string) ([]*model.Experience, error)
	getFn    func(ctx context.Context, ext, devID, id string) (*model.Experience, error)
	createFn func(ctx context.Context, ext, devID string, in experience.Input) (*model.Experience, error)
	updateFn func(ctx context.Context, ext, devID, id string, in experience.Input) (*model.Experience, error)
	deleteFn func(ctx context.Context, ext, devID, id string) error
}

func (m *mockExperienceService) List(ctx context.Context, ext, devID string) ([]*model.Experience, error) {
	return m.listFn(ctx, ext, devID)
}

func (m *mockExperienceService) Get(ctx context.Context, ext, devID, id string) (*model.Experience, error) {
	return m.getFn(ctx, ext, devID, id)
}

func (m *mockExperienceService) Create(ctx context.Context, ext, devID string, in experience.Input) (*model.Experience, error) {
	return m.createFn(ctx, ext, devID, in)
}

func (m *mockExperienceService) Update(ctx context.Context, ext, devID, id string, in experience.Input) (*model.Experience, error) {
	return m.updateFn(ctx, ext, devID, id, in)
}

func (m *mockExperienceService) Delete(ctx context.Context, ext, devID, id string) error {
	return m.deleteFn(ctx, ext, devID, id)
}

// --- プロジェクト ---

type mockProjectService struct {
	listFn   func(ctx context.Context, ext, devID string) ([]*model.Project, error)
	getFn    func(ctx context.Context, ext, devID, id string) (*model.Project, error)
	createFn func(ctx context.Context, ext, devID string, in project.Input) (*model.Project, error)
	updateFn func(ctx context.Context, ext, devID, id string, in project.Input) (*model.Project, error)
	deleteFn func(ctx context.Context, ext, devID, id string) error
}

func (m *mockProjectService) List(ctx context.Context, ext, devID string) ([]*model.Project, error) {
	return m.listFn(ctx, ext, devID)
}

func (m *mockProjectService) Get(ctx context.Context, ext, devID, id string) (*model.Project, error) {
	return m.getFn(ctx, ext, devID, id)
}

func (m *mockProjectService) Create(ctx context.Context, ext, devID string, in project.Input) (*model.Project, error) {
	return m.createFn(ctx, ext, devID, in)
}

func (m *mockProjectService) Update(ctx context.Context, ext, devID, id string, in project.Input) (*model.Project, error) {
	return m.updateFn(ctx, ext, devID, id, in)
}

func (m *mockProjectService) Delete(ctx context.Context, ext, devID, id string) error {
	return m.deleteFn(ctx, ext, devID, id)
}

// --- SNSリンク ---

type mockSocialLinkService struct {
	listFn   func(ctx context.Context, ext, devID string) ([]*model.SocialLink, error)
	getFn    func(ctx context.Context, ext, devID, id string) (*model.SocialLink, error)
	createFn func(ctx context.Context, ext, devID string, in sociallink.Input) (*model.SocialLink, error)
	updateFn func(ctx context.Context, ext, devID, id string, in sociallink.Input) (*model.SocialLink, error)
	deleteFn func(ctx context.Context, ext, devID, id string) error
}

func (m *mockSocialLinkService) List(ctx context.Context, ext, devID string) ([]*model.SocialLink, error) {
	return m.listFn(ctx, ext, devID)
}

func (m *mockSocialLinkService) Get(ctx context.Context, ext, devID, id string) (*model.SocialLink, error) {
	return m.getFn(ctx, ext, devID, id)
}

func (m *mockSocialLinkService) Create(ctx context.Context, ext, devID string, in sociallink.Input) (*model.SocialLink, error) {
	return m.createFn(ctx, ext, devID, in)
}

func (m *mockSocialLinkService) Update(ctx context.Context, ext, devID, id string, in sociallink.Input) (*model.SocialLink, error) {
	return m.updateFn(ctx, ext, devID, id, in)
}

func (m *mockSocialLinkService) Delete(ctx context.Context, ext, devID, id string) error {
	return m.deleteFn(ctx, ext, devID, id)
}

// --- 権限管理 ---

type mockPermissionAdmin struct {
	giveAllFn      func(ctx context.Context, ext, resource string) (*model.Permission, error)
	giveSpecificFn func(ctx context.Context, ext, resource, id string) (*model.Permission, error)
	removeUserFn   func(ctx context.Context, ext, resource, id string) (bool, error)
	removeAllFn    func(ctx context.Context, resource, id string) (int64, error)
	listFn         func(ctx context.Context, ext string) ([]*model.Permission, error)
}

func (m *mockPermissionAdmin) GiveUserAllPermission(ctx context.Context, ext, resource string) (*model.Permission, error) {
	return m.giveAllFn(ctx, ext, resource)
}

func (m *mockPermissionAdmin) GiveUserSpecificPermission(ctx context.Context, ext, resource, id string) (*model.Permission, error) {
	return m.giveSpecificFn(ctx, ext, resource, id)
}

func (m *mockPermissionAdmin) RemoveUserSpecificPermission(ctx context.Context, ext, resource, id string) (bool, error) {
	return m.removeUserFn(ctx, ext, resource, id)
}

func (m *mockPermissionAdmin) RemoveSpecificPermissionFromAllUsers(ctx context.Context, resource, id string) (int64, error) {
	return m.removeAllFn(ctx, resource, id)
}

func (m *mockPermissionAdmin) ListUserPermissions(ctx context.Context, ext string) ([]*model.Permission, error) {
	return m.listFn(ctx, ext)
}

// --- ヘルパー ---

// newAuthedRequest は認証済みユーザーIDとchiのURLパラメータを設定したリクエストを生成する。
func newAuthedRequest(method, target, body, userID string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = middleware.ContextWithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}
