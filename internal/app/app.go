package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/devfolio/internal/access"
	"github.com/hitoshi/devfolio/internal/auth"
	"github.com/hitoshi/devfolio/internal/config"
	"github.com/hitoshi/devfolio/internal/database"
	"github.com/hitoshi/devfolio/internal/developer"
	"github.com/hitoshi/devfolio/internal/experience"
	"github.com/hitoshi/devfolio/internal/handler"
	"github.com/hitoshi/devfolio/internal/logger"
	"github.com/hitoshi/devfolio/internal/metrics"
	"github.com/hitoshi/devfolio/internal/middleware"
	"github.com/hitoshi/devfolio/internal/permission"
	"github.com/hitoshi/devfolio/internal/project"
	"github.com/hitoshi/devfolio/internal/repository"
	"github.com/hitoshi/devfolio/internal/security"
	"github.com/hitoshi/devfolio/internal/skill"
	"github.com/hitoshi/devfolio/internal/sociallink"
	"github.com/hitoshi/devfolio/internal/user"
	"github.com/hitoshi/devfolio/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envファイルと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envがあれば読み込む（既存の環境変数が優先）
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		slog.Warn("unknown log level, keeping info", slog.String("log_level", cfg.LogLevel))
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。サブコマンドを省略した場合はserveとして起動する。
func Run(w io.Writer, args []string) error {
	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.Execute()
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// newMetricsRegistry はアプリケーションのメトリクスとGoランタイムのメトリクスを登録したレジストリを返す。
func newMetricsRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// newPermissionManager はCLIとAPIで共有する権限管理サービスを構築する。
func newPermissionManager(db *sql.DB, collector metrics.MetricsCollector) (*permission.Manager, *user.Manager) {
	userRepo := repository.NewPostgresUserRepo(db)
	users := user.NewManager(userRepo, collector)
	perms := permission.NewManager(users, userRepo, repository.NewPostgresPermissionRepo(db), collector)
	return perms, users
}

// newVerifier はConfigからJWTの検証器を構築する。
func newVerifier(cfg *config.Config) (*auth.TokenVerifier, error) {
	if err := cfg.RequireAuth(); err != nil {
		return nil, err
	}
	return auth.NewTokenVerifier(auth.VerifierConfig{
		Secret:           []byte(cfg.JWTSecret),
		PublicKeyPEM:     []byte(cfg.JWTPublicKey),
		Issuer:           cfg.JWTIssuer,
		Audience:         cfg.JWTAudience,
		PermissionsClaim: cfg.PermissionsClaim,
		Leeway:           30 * time.Second,
	})
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. トークン検証器（DB接続より先に設定不備を検出する）
	verifier, err := newVerifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure token verifier: %w", err)
	}

	// 2. DB接続
	db, err := openDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// 3. メトリクス
	reg, collector := newMetricsRegistry()

	// 4. リポジトリの初期化
	developerRepo := repository.NewPostgresDeveloperRepo(db)
	skillRepo := repository.NewPostgresSkillRepo(db)
	experienceRepo := repository.NewPostgresExperienceRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	socialLinkRepo := repository.NewPostgresSocialLinkRepo(db)

	// 5. アクセス制御
	permissions, users := newPermissionManager(db, collector)
	devAccess := access.NewDeveloperAccessor(users, collector)
	skillAccess := access.NewDeveloperSkillAccessor(devAccess)
	expAccess := access.NewExperienceAccessor(devAccess)
	linkAccess := access.NewSocialLinkAccessor(devAccess)
	projectAccess := access.NewProjectAccessor(skillAccess)

	// 6. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()
	developerService := developer.NewService(developerRepo, devAccess, permissions, sanitizer)
	skillService := skill.NewService(skillRepo, developerRepo, devAccess, skillAccess, sanitizer)
	experienceService := experience.NewService(experienceRepo, developerRepo, devAccess, expAccess, sanitizer)
	projectService := project.NewService(projectRepo, skillRepo, developerRepo, devAccess, projectAccess, sanitizer)
	socialLinkService := sociallink.NewService(socialLinkRepo, developerRepo, devAccess, linkAccess, sanitizer)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Verifier:          verifier,
		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		AdminPermission:   cfg.AdminPermission,
		Logger:            slog.Default(),
		Collector:         collector,
		Gatherer:          reg,
		HealthChecker:     db,

		DeveloperService:  developerService,
		SkillService:      skillService,
		ExperienceService: experienceService,
		ProjectService:    projectService,
		SocialLinkService: socialLinkService,

		PermissionAdmin: permissions,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 参照先のなくなった権限のクリーンアップを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	_, collector := newMetricsRegistry()
	job := cleanup.NewPermissionCleanupJob(db, slog.Default(), collector)

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	// クリーンアップをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// downがfalseなら未適用のマイグレーションをすべて適用し、trueなら最新の1つを戻す。
func runMigrate(cfg *config.Config, down bool) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.Bool("down", down),
	)

	migrateFn := database.RunMigrations
	if down {
		migrateFn = database.RollbackMigration
	}

	version, err := migrateFn(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// healthcheckPort はhealthcheckサブコマンドが使うポートを返す。
// 設定全体を読み込まずにSERVER_PORTだけを参照する。
func healthcheckPort() string {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return "8080"
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	u.RawQuery = ""
	return u.Redacted()
}
