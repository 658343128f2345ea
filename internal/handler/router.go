package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	AdminPermission   string
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector

	// 運用エンドポイント。Gathererがnilなら/metricsを公開しない
	Gatherer      prometheus.Gatherer
	HealthChecker HealthChecker

	// リソース
	DeveloperService  DeveloperServiceInterface
	SkillService      SkillServiceInterface
	ExperienceService ExperienceServiceInterface
	ProjectService    ProjectServiceInterface
	SocialLinkService SocialLinkServiceInterface

	// 権限管理
	PermissionAdmin PermissionAdmin
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Auth → RateLimit(General) → RateLimit(Write)
//
// /health と /metrics は認証の外に配置する。/api/admin はさらに管理者クレームを要求する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Collector
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, collector))

	// --- 認証不要のルート ---
	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	developerHandler := NewDeveloperHandler(deps.DeveloperService)
	skillHandler := NewSkillHandler(deps.SkillService)
	experienceHandler := NewExperienceHandler(deps.ExperienceService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	socialLinkHandler := NewSocialLinkHandler(deps.SocialLinkService)
	adminHandler := NewAdminHandler(deps.PermissionAdmin)

	// --- 認証が必要なルート ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.WriteMiddleware())

		r.Route("/developers", func(r chi.Router) {
			r.Get("/", developerHandler.List)
			r.Post("/", developerHandler.Create)

			r.Route("/{developerID}", func(r chi.Router) {
				r.Get("/", developerHandler.Get)
				r.Put("/", developerHandler.Update)
				r.Delete("/", developerHandler.Delete)

				r.Route("/skills", func(r chi.Router) {
					r.Get("/", skillHandler.List)
					r.Post("/", skillHandler.Create)
					r.Get("/{skillID}", skillHandler.Get)
					r.Put("/{skillID}", skillHandler.Update)
					r.Delete("/{skillID}", skillHandler.Delete)
				})

				r.Route("/experiences", func(r chi.Router) {
					r.Get("/", experienceHandler.List)
					r.Post("/", experienceHandler.Create)
					r.Get("/{experienceID}", experienceHandler.Get)
					r.Put("/{experienceID}", experienceHandler.Update)
					r.Delete("/{experienceID}", experienceHandler.Delete)
				})

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", projectHandler.List)
					r.Post("/", projectHandler.Create)
					r.Get("/{projectID}", projectHandler.Get)
					r.Put("/{projectID}", projectHandler.Update)
					r.Delete("/{projectID}", projectHandler.Delete)
				})

				r.Route("/social-links", func(r chi.Router) {
					r.Get("/", socialLinkHandler.List)
					r.Post("/", socialLinkHandler.Create)
					r.Get("/{linkID}", socialLinkHandler.Get)
					r.Put("/{linkID}", socialLinkHandler.Update)
					r.Delete("/{linkID}", socialLinkHandler.Delete)
				})
			})
		})

		// 権限管理
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireClaim(deps.AdminPermission))

			r.Route("/users/{externalUserID}/permissions", func(r chi.Router) {
				r.Get("/", adminHandler.ListUserPermissions)
				r.Post("/", adminHandler.Grant)
				r.Delete("/", adminHandler.RevokeFromUser)
			})
			r.Delete("/permissions", adminHandler.RevokeFromAllUsers)
		})
	})

	return r
}
