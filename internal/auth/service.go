// Package auth はBearerトークン（JWT）の検証を提供する。
//
// トークンは外部のIdPが発行し、subクレームをユーザーの外部IDとして扱う。
// 権限クレームは管理APIの認可にのみ使い、開発者へのアクセス判定には使わない。
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンの検証に失敗したことを表す。
var ErrInvalidToken = errors.New("invalid token")

// Claims は検証済みトークンから取り出した情報。
type Claims struct {
	Subject     string
	Permissions []string
}

// HasPermission はトークンが指定の権限クレームを持つかを返す。
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// VerifierConfig はTokenVerifierの設定。
// SecretとPublicKeyPEMはどちらか一方を指定する。両方ある場合はPublicKeyPEM（RS256）を優先する。
type VerifierConfig struct {
	Secret           []byte // HS256
	PublicKeyPEM     []byte // RS256
	Issuer           string // 空の場合は検証しない
	Audience         string // 空の場合は検証しない
	PermissionsClaim string // デフォルト: permissions
	Leeway           time.Duration
}

// TokenVerifier はJWTの署名と標準クレームを検証する。
type TokenVerifier struct {
	parser           *jwt.Parser
	key              any
	permissionsClaim string
}

// NewTokenVerifier はTokenVerifierを生成する。鍵が未指定または不正な場合はエラーを返す。
func NewTokenVerifier(cfg VerifierConfig) (*TokenVerifier, error) {
	var (
		key    any
		method string
	)
	switch {
	case len(cfg.PublicKeyPEM) > 0:
		pub, err := jwt.ParseRSAPublicKeyFromPEM(cfg.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		key, method = pub, jwt.SigningMethodRS256.Alg()
	case len(cfg.Secret) > 0:
		key, method = cfg.Secret, jwt.SigningMethodHS256.Alg()
	default:
		return nil, errors.New("either a JWT secret or a public key is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{method}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claim := cfg.PermissionsClaim
	if claim == "" {
		claim = "permissions"
	}

	return &TokenVerifier{
		parser:           jwt.NewParser(opts...),
		key:              key,
		permissionsClaim: claim,
	}, nil
}

// Verify はトークンを検証し、クレームを返す。
// 署名・有効期限・発行者・対象者のいずれかが不正、またはsubが空の場合はErrInvalidTokenをラップして返す。
func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	mc := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(raw, mc, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return &Claims{
		Subject:     sub,
		Permissions: permissionsFrom(mc[v.permissionsClaim]),
	}, nil
}

// permissionsFrom は権限クレームを文字列の配列として取り出す。
// 配列形式とスペース区切りの文字列形式（scope形式）の両方を受け付ける。
func permissionsFrom(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	case string:
		return strings.Fields(t)
	}
	return nil
}
