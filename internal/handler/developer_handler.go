package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/devfolio/internal/developer"
	"github.com/hitoshi/devfolio/internal/model"
)

// DeveloperServiceInterface は開発者ハンドラーが必要とするサービスインターフェース。
type DeveloperServiceInterface interface {
	List(ctx context.Context, externalUserID string) ([]*model.Developer, error)
	Get(ctx context.Context, externalUserID, developerID string) (*model.Developer, error)
	Create(ctx context.Context, externalUserID string, in developer.Input) (*model.Developer, error)
	Update(ctx context.Context, externalUserID, developerID string, in developer.Input) (*model.Developer, error)
	Delete(ctx context.Context, externalUserID, developerID string) error
}

// DeveloperHandler は開発者プロフィールのHTTPハンドラー。
type DeveloperHandler struct {
	service DeveloperServiceInterface
}

// NewDeveloperHandler はDeveloperHandlerを生成する。
func NewDeveloperHandler(service DeveloperServiceInterface) *DeveloperHandler {
	return &DeveloperHandler{service: service}
}

// developerRequest は開発者の作成・更新リクエストのボディ。
type developerRequest struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Location string `json:"location"`
	Email    string `json:"email"`
}

func (req developerRequest) input() developer.Input {
	return developer.Input{
		Name:     req.Name,
		Title:    req.Title,
		Summary:  req.Summary,
		Location: req.Location,
		Email:    req.Email,
	}
}

// developerResponse は開発者のAPIレスポンス。
type developerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Location    string    `json:"location"`
	Email       string    `json:"email"`
	CreatedByID string    `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDeveloperResponse(d *model.Developer) developerResponse {
	return developerResponse{
		ID:          d.ID,
		Name:        d.Name,
		Title:       d.Title,
		Summary:     d.Summary,
		Location:    d.Location,
		Email:       d.Email,
		CreatedByID: d.CreatedByID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// List はユーザーがアクセスできる開発者の一覧を返す。
// GET /api/developers
func (h *DeveloperHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	devs, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]developerResponse, len(devs))
	for i, d := range devs {
		resp[i] = toDeveloperResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は開発者を返す。
// GET /api/developers/{developerID}
func (h *DeveloperHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(r.Context(), userID, pathParam(r, "developerID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeveloperResponse(d))
}

// Create は開発者を作成する。作成者は以後この開発者にアクセスできる。
// POST /api/developers
func (h *DeveloperHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req developerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.service.Create(r.Context(), userID, req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeveloperResponse(d))
}

// Update は開発者情報を更新する。
// PUT /api/developers/{developerID}
func (h *DeveloperHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req developerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.service.Update(r.Context(), userID, pathParam(r, "developerID"), req.input())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeveloperResponse(d))
}

// Delete は開発者を削除する。
// DELETE /api/developers/{developerID}
func (h *DeveloperHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, pathParam(r, "developerID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
