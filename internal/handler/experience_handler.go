package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/devfolio/internal/experience"
	"github.com/hitoshi/devfolio/internal/model"
)

// dateLayout は職歴の開始日・終了日のJSON表現。
const dateLayout = "2006-01-02"

// ExperienceServiceInterface は職歴ハンドラーが必要とするサービスインターフェース。
type ExperienceServiceInterface interface {
	List(ctx context.Context, externalUserID, developerID string) ([]*model.Experience, error)
	Get(ctx context.Context, externalUserID, developerID, experienceID string) (*model.Experience, error)
	Create(ctx context.Context, externalUserID, developerID string, in experience.Input) (*model.Experience, error)
	Update(ctx context.Context, externalUserID, developerID, experienceID string, in experience.Input) (*model.Experience, error)
	Delete(ctx context.Context, externalUserID, developerID, experienceID string) error
}

// ExperienceHandler は職歴のHTTPハンドラー。
type ExperienceHandler struct {
	service ExperienceServiceInterface
}

// NewExperienceHandler はExperienceHandlerを生成する。
func NewExperienceHandler(service ExperienceServiceInterface) *ExperienceHandler {
	return &ExperienceHandler{service: service}
}

type experienceRequest struct {
	Company     string  `json:"company"`
	Position    string  `json:"position"`
	Description string  `json:"description"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// input は日付文字列を解釈してサービス層の入力に変換する。
// 開始日の空文字列はサービス層の必須チェックに任せる。
func (req experienceRequest) input() (experience.Input, error) {
	in := experience.Input{
		Company:     req.Company,
		Position:    req.Position,
		Description: req.Description,
	}
	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return in, model.NewValidationError("start_date must be YYYY-MM-DD")
		}
		in.StartDate = start
	}
	if req.EndDate != nil && *req.EndDate != "" {
		end, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return in, model.NewValidationError("end_date must be YYYY-MM-DD")
		}
		in.EndDate = &end
	}
	return in, nil
}

type experienceResponse struct {
	ID          string    `json:"id"`
	DeveloperID string    `json:"developer_id"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Description string    `json:"description"`
	StartDate   string    `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toExperienceResponse(e *model.Experience) experienceResponse {
	resp := experienceResponse{
		ID:          e.ID,
		DeveloperID: e.DeveloperID,
		Company:     e.Company,
		Position:    e.Position,
		Description: e.Description,
		StartDate:   e.StartDate.Format(dateLayout),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.EndDate != nil {
		end := e.EndDate.Format(dateLayout)
		resp.EndDate = &end
	}
	return resp
}

// List は開発者の職歴一覧を返す。
// GET /api/developers/{developerID}/experiences
func (h *ExperienceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	exps, err := h.service.List(r.Context(), userID, pathParam(r, "developerID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]experienceResponse, len(exps))
	for i, e := range exps {
		resp[i] = toExperienceResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は職歴を返す。
// GET /api/developers/{developerID}/experiences/{experienceID}
func (h *ExperienceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "experienceID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExperienceResponse(e))
}

// Create は職歴を追加する。
// POST /api/developers/{developerID}/experiences
func (h *ExperienceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req experienceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	e, err := h.service.Create(r.Context(), userID, pathParam(r, "developerID"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExperienceResponse(e))
}

// Update は職歴を更新する。
// PUT /api/developers/{developerID}/experiences/{experienceID}
func (h *ExperienceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req experienceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	e, err := h.service.Update(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "experienceID"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExperienceResponse(e))
}

// Delete は職歴を削除する。
// DELETE /api/developers/{developerID}/experiences/{experienceID}
func (h *ExperienceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "experienceID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
