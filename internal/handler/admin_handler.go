package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/devfolio/internal/model"
)

// PermissionAdmin は権限管理ハンドラーが必要とするサービスインターフェース。
type PermissionAdmin interface {
	GiveUserAllPermission(ctx context.Context, externalUserID, resource string) (*model.Permission, error)
	GiveUserSpecificPermission(ctx context.Context, externalUserID, resource, resourceID string) (*model.Permission, error)
	RemoveUserSpecificPermission(ctx context.Context, externalUserID, resource, resourceID string) (bool, error)
	RemoveSpecificPermissionFromAllUsers(ctx context.Context, resource, resourceID string) (int64, error)
	ListUserPermissions(ctx context.Context, externalUserID string) ([]*model.Permission, error)
}

// AdminHandler は管理者向けの権限管理HTTPハンドラー。
// ルーターで管理者クレームを要求するミドルウェアの後ろに置く。
type AdminHandler struct {
	permissions PermissionAdmin
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(permissions PermissionAdmin) *AdminHandler {
	return &AdminHandler{permissions: permissions}
}

// grantRequest は権限付与リクエストのボディ。resource_idを省略するとAll権限になる。
type grantRequest struct {
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id"`
}

// revokeRequest は権限取り消しリクエストのボディ。
type revokeRequest struct {
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id"`
}

type permissionResponse struct {
	ID         string    `json:"id"`
	Resource   string    `json:"resource"`
	ResourceID *string   `json:"resource_id"`
	Scope      string    `json:"scope"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPermissionResponse(p *model.Permission) permissionResponse {
	return permissionResponse{
		ID:         p.ID,
		Resource:   p.Resource,
		ResourceID: p.ResourceID,
		Scope:      string(p.Scope),
		CreatedAt:  p.CreatedAt,
	}
}

// ListUserPermissions はユーザーの権限一覧を返す。
// GET /api/admin/users/{externalUserID}/permissions
func (h *AdminHandler) ListUserPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.permissions.ListUserPermissions(r.Context(), pathParam(r, "externalUserID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]permissionResponse, len(perms))
	for i, p := range perms {
		resp[i] = toPermissionResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Grant はユーザーに権限を付与する。
// POST /api/admin/users/{externalUserID}/permissions
func (h *AdminHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	externalUserID := pathParam(r, "externalUserID")
	var (
		p   *model.Permission
		err error
	)
	if strings.TrimSpace(req.ResourceID) == "" {
		p, err = h.permissions.GiveUserAllPermission(r.Context(), externalUserID, req.Resource)
	} else {
		p, err = h.permissions.GiveUserSpecificPermission(r.Context(), externalUserID, req.Resource, req.ResourceID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPermissionResponse(p))
}

// RevokeFromUser はユーザーのSpecific権限を1件取り消す。該当がなければ404を返す。
// DELETE /api/admin/users/{externalUserID}/permissions
func (h *AdminHandler) RevokeFromUser(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	removed, err := h.permissions.RemoveUserSpecificPermission(r.Context(), pathParam(r, "externalUserID"), req.Resource, req.ResourceID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !removed {
		handleServiceError(w, model.NewNotFoundError("権限", req.ResourceID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RevokeFromAllUsers は全ユーザーから指定インスタンスのSpecific権限を削除する。
// DELETE /api/admin/permissions
func (h *AdminHandler) RevokeFromAllUsers(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	removed, err := h.permissions.RemoveSpecificPermissionFromAllUsers(r.Context(), req.Resource, req.ResourceID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed_count": removed})
}
