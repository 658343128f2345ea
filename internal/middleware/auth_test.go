package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/devfolio/internal/auth"
)

type mockVerifier struct {
	verifyFn func(raw string) (*auth.Claims, error)
}

func (m *mockVerifier) Verify(raw string) (*auth.Claims, error) {
	return m.verifyFn(raw)
}

func acceptToken(want string, claims *auth.Claims) *mockVerifier {
	return &mockVerifier{verifyFn: func(raw string) (*auth.Claims, error) {
		if raw != want {
			return nil, auth.ErrInvalidToken
		}
		return claims, nil
	}}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	mw := NewAuthMiddleware(acceptToken("good", &auth.Claims{Subject: "auth0|alice"}))

	var captured string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/developers", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured != "auth0|alice" {
		t.Errorf("userID = %q, want %q", captured, "auth0|alice")
	}
}

func TestAuthMiddleware_RejectsMissingOrInvalidToken(t *testing.T) {
	mw := NewAuthMiddleware(acceptToken("good", &auth.Claims{Subject: "alice"}))
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	headers := []string{"", "good", "Basic good", "Bearer ", "Bearer bad"}
	for _, h := range headers {
		req := httptest.NewRequest(http.MethodGet, "/api/developers", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d, want %d", h, w.Code, http.StatusUnauthorized)
		}
	}
	if called {
		t.Error("handler should not be called for unauthenticated requests")
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	mw := NewAuthMiddleware(acceptToken("good", &auth.Claims{Subject: "alice"}))
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestRequireClaim(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireClaim("manage:permissions")(inner)

	tests := []struct {
		name   string
		ctx    context.Context
		status int
	}{
		{"クレームなし", context.Background(), http.StatusUnauthorized},
		{"権限なし", ContextWithClaims(context.Background(), &auth.Claims{Subject: "bob"}), http.StatusForbidden},
		{"権限あり", ContextWithClaims(context.Background(), &auth.Claims{Subject: "admin", Permissions: []string{"manage:permissions"}}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/permissions", nil).WithContext(tt.ctx)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}

	ctx := ContextWithUserID(context.Background(), "alice")
	got, err := UserIDFromContext(ctx)
	if err != nil || got != "alice" {
		t.Errorf("UserIDFromContext = %q, %v", got, err)
	}

	if _, ok := ClaimsFromContext(ctx); ok {
		t.Error("ContextWithUserID should not set claims")
	}
}

func TestAuthMiddleware_VerifierErrorIsNotLeaked(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{verifyFn: func(string) (*auth.Claims, error) {
		return nil, errors.New("signature is invalid: secret details")
	}})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if body := w.Body.String(); strings.Contains(body, "secret details") {
		t.Errorf("response leaks verifier error: %s", body)
	}
}

