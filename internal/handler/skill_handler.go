package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/skill"
)

// SkillServiceInterface はスキルハンドラーが必要とするサービスインターフェース。
type SkillServiceInterface interface {
	List(ctx context.Context, externalUserID, developerID string) ([]*model.DeveloperSkill, error)
	Get(ctx context.Context, externalUserID, developerID, skillID string) (*model.DeveloperSkill, error)
	Create(ctx context.Context, externalUserID, developerID string, in skill.Input) (*model.DeveloperSkill, error)
	Update(ctx context.Context, externalUserID, developerID, skillID string, in skill.Input) (*model.DeveloperSkill, error)
	Delete(ctx context.Context, externalUserID, developerID, skillID string) error
}

// SkillHandler はスキルのHTTPハンドラー。
type SkillHandler struct {
	service SkillServiceInterface
}

// NewSkillHandler はSkillHandlerを生成する。
func NewSkillHandler(service SkillServiceInterface) *SkillHandler {
	return &SkillHandler{service: service}
}

type skillRequest struct {
	Name              string `json:"name"`
	Level             int    `json:"level"`
	YearsOfExperience int    `json:"years_of_experience"`
}

type skillResponse struct {
	ID                string    `json:"id"`
	DeveloperID       string    `json:"developer_id"`
	Name              string    `json:"name"`
	Level             int       `json:"level"`
	YearsOfExperience int       `json:"years_of_experience"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toSkillResponse(s *model.DeveloperSkill) skillResponse {
	return skillResponse{
		ID:                s.ID,
		DeveloperID:       s.DeveloperID,
		Name:              s.Name,
		Level:             s.Level,
		YearsOfExperience: s.YearsOfExperience,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// List は開発者のスキル一覧を返す。
// GET /api/developers/{developerID}/skills
func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	skills, err := h.service.List(r.Context(), userID, pathParam(r, "developerID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]skillResponse, len(skills))
	for i, s := range skills {
		resp[i] = toSkillResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はスキルを返す。
// GET /api/developers/{developerID}/skills/{skillID}
func (h *SkillHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "skillID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillResponse(s))
}

// Create はスキルを追加する。
// POST /api/developers/{developerID}/skills
func (h *SkillHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req skillRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.Create(r.Context(), userID, pathParam(r, "developerID"), skill.Input(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSkillResponse(s))
}

// Update はスキルを更新する。
// PUT /api/developers/{developerID}/skills/{skillID}
func (h *SkillHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req skillRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.service.Update(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "skillID"), skill.Input(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillResponse(s))
}

// Delete はスキルを削除する。
// DELETE /api/developers/{developerID}/skills/{skillID}
func (h *SkillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "skillID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
