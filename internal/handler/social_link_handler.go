package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/devfolio/internal/model"
	"github.com/hitoshi/devfolio/internal/sociallink"
)

// SocialLinkServiceInterface はSNSリンクハンドラーが必要とするサービスインターフェース。
type SocialLinkServiceInterface interface {
	List(ctx context.Context, externalUserID, developerID string) ([]*model.SocialLink, error)
	Get(ctx context.Context, externalUserID, developerID, linkID string) (*model.SocialLink, error)
	Create(ctx context.Context, externalUserID, developerID string, in sociallink.Input) (*model.SocialLink, error)
	Update(ctx context.Context, externalUserID, developerID, linkID string, in sociallink.Input) (*model.SocialLink, error)
	Delete(ctx context.Context, externalUserID, developerID, linkID string) error
}

// SocialLinkHandler はSNSリンクのHTTPハンドラー。
type SocialLinkHandler struct {
	service SocialLinkServiceInterface
}

// NewSocialLinkHandler はSocialLinkHandlerを生成する。
func NewSocialLinkHandler(service SocialLinkServiceInterface) *SocialLinkHandler {
	return &SocialLinkHandler{service: service}
}

type socialLinkRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type socialLinkResponse struct {
	ID          string    `json:"id"`
	DeveloperID string    `json:"developer_id"`
	Platform    string    `json:"platform"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toSocialLinkResponse(l *model.SocialLink) socialLinkResponse {
	return socialLinkResponse{
		ID:          l.ID,
		DeveloperID: l.DeveloperID,
		Platform:    l.Platform,
		URL:         l.URL,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// List は開発者のSNSリンク一覧を返す。
// GET /api/developers/{developerID}/social-links
func (h *SocialLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	links, err := h.service.List(r.Context(), userID, pathParam(r, "developerID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]socialLinkResponse, len(links))
	for i, l := range links {
		resp[i] = toSocialLinkResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はSNSリンクを返す。
// GET /api/developers/{developerID}/social-links/{linkID}
func (h *SocialLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	l, err := h.service.Get(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "linkID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSocialLinkResponse(l))
}

// Create はSNSリンクを追加する。
// POST /api/developers/{developerID}/social-links
func (h *SocialLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req socialLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.service.Create(r.Context(), userID, pathParam(r, "developerID"), sociallink.Input(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSocialLinkResponse(l))
}

// Update はSNSリンクを更新する。
// PUT /api/developers/{developerID}/social-links/{linkID}
func (h *SocialLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req socialLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.service.Update(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "linkID"), sociallink.Input(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSocialLinkResponse(l))
}

// Delete はSNSリンクを削除する。
// DELETE /api/developers/{developerID}/social-links/{linkID}
func (h *SocialLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, pathParam(r, "developerID"), pathParam(r, "linkID")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
