// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/devfolio/internal/auth"
	"github.com/hitoshi/devfolio/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーの外部IDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	claimsContextKey = contextKey("claims")
)

// TokenVerifier はBearerトークンの検証に必要なインターフェース。
// auth.TokenVerifierが実装する。
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// トークンのsubをユーザーの外部IDとしてリクエストコンテキストに注入する。
// トークンがない、または不正なリクエストには401 Unauthorizedを返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteAPIError(w, model.NewUnauthorizedError())
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				slog.Warn("invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteAPIError(w, model.NewUnauthorizedError())
				return
			}

			noteUserID(r.Context(), claims.Subject)
			ctx := ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireClaim はトークンが指定の権限クレームを持つ場合のみ通過させるミドルウェアを返す。
// NewAuthMiddlewareの後に配置する。権限がない場合は403 Forbiddenを返す。
func RequireClaim(permission string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteAPIError(w, model.NewUnauthorizedError())
				return
			}
			if !claims.HasPermission(permission) {
				slog.Warn("admin permission required",
					slog.String("user_id", claims.Subject),
					slog.String("permission", permission),
				)
				WriteAPIError(w, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserIDFromContext はリクエストコンテキストからユーザーの外部IDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーの外部IDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithClaims はコンテキストに検証済みクレームとその外部IDを注入する。
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return ContextWithUserID(ctx, claims.Subject)
}

// ClaimsFromContext はリクエストコンテキストから検証済みクレームを取得する。
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}
