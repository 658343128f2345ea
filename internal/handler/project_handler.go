package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/project"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	List(ctx context.Context, externalUserID, developerID string) ([]*model.Project, error)
	Get(ctx context.Context, externalUserID, developerID, projectID string) (*model.Project, error)
	Create(ctx context.Context, externalUserID, developerID string, in project.Input) (*model.Project, error)
	Update(ctx context.Context, externalUserID, developerID, projectID string, in project.Input) (*model.Project, error)
	Delete(ctx context.Context, externalUserID, developerID, projectID string) error
}

// ProjectHandler はプロジェクトのHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

type projectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	SkillIDs    []string `json:"skill_ids"`
}

type projectResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Skills      []skillResponse `json:"skills"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProjectResponse(p *model.Project) projectResponse {
	skills := make([]skillResponse, len(p.Skills))
	for i, s := range p.Skills {
		skills[i] = toSkillResponse(s)
	}
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		URL:         p.URL,
		Skills:      skills,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// List は開発者のスキルに紐付くプロジェクト一覧を返す。
// GET /api/developers/{developerID}/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.service.List(r.Context(), userID, pathParam(r, "developerID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]projectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toProjectResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はプロジェクトを返す。
// GET /api/developers/{developerID}/projects/{projectID}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "projectID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Create はプロジェクトを追加する。
// POST /api/developers/{developerID}/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), userID, pathParam(r, "developerID"), project.Input(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// Update はプロジェクトを更新する。関連スキルは指定内容で置き換える。
// PUT /api/developers/{developerID}/projects/{projectID}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "projectID"), project.Input(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// Delete はプロジェクトを削除する。
// DELETE /api/developers/{developerID}/projects/{projectID}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "projectID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
