package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// JWT
	JWTSecret        string
	JWTPublicKey     string // PEM形式。設定されている場合はRS256で検証する
	JWTIssuer        string
	JWTAudience      string
	PermissionsClaim string
	AdminPermission  string

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitWrite   int

	// Worker
	CleanupInterval time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// LoadDotEnv は指定された.envファイルを環境変数に読み込む。
// 既に設定されている環境変数は上書きしない。存在しないファイルは無視する。
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// JWT（serveでのみ必須。RequireAuthで検証する）
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	// 1行で渡された場合に備え、エスケープされた改行を戻す
	cfg.JWTPublicKey = strings.ReplaceAll(os.Getenv("JWT_PUBLIC_KEY"), `\n`, "\n")
	cfg.JWTIssuer = getEnvString("JWT_ISSUER", "")
	cfg.JWTAudience = getEnvString("JWT_AUDIENCE", "")
	cfg.PermissionsClaim = getEnvString("PERMISSIONS_CLAIM", "permissions")
	cfg.AdminPermission = getEnvString("ADMIN_PERMISSION", "manage:permissions")

	// Optional fields with defaults
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 30)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// RequireAuth はトークン検証用の鍵が設定されていることを確認する。
// JWT_SECRETとJWT_PUBLIC_KEYのどちらか一方が必要。
func (c *Config) RequireAuth() error {
	if c.JWTSecret == "" && c.JWTPublicKey == "" {
		return errors.New("required environment variables are not set: one of [JWT_SECRET JWT_PUBLIC_KEY]")
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
