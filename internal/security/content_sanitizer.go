// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はプロフィールの自由記述欄をサニタイズし、
// 保存した内容がフロントエンドでXSSを起こさないようにする。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はプロフィール入力のサニタイズ機能のインターフェースを定義する。
// 開発者・職歴・プロジェクトの保存前に使用される。
type ContentSanitizerService interface {
	// SanitizeRichText は自己紹介や職務内容などの自由記述をサニタイズする。
	// 許可タグ（p, br, a, ul, ol, li, strong, em, code）のみを通過させ、
	// script, iframe, style, imgタグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeRichText(raw string) string

	// SanitizePlainText は名前や肩書きなどの1行テキストから全てのタグを除去し、前後の空白を取り除く。
	SanitizePlainText(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, strong, em, code
//   - 禁止タグ: script, iframe, style, img および全てのon*イベント属性
//   - aのhref属性: http/httpsの絶対URLのみ
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 画像はプロフィールでは扱わないため許可しない
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "code",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	return &contentSanitizer{
		rich:  p,
		plain: bluemonday.StrictPolicy(),
	}
}

// SanitizeRichText は自由記述をサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeRichText(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// SanitizePlainText は全てのタグを除去したテキストを返す。
// 結果はHTMLではなく平文として扱うため、エスケープされた文字は元に戻す。
func (s *contentSanitizer) SanitizePlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(raw)))
}

// ValidateExternalURL はプロフィールに載せる外部リンクがhttp/httpsの絶対URLであることを検証する。
// 空文字列は未設定として許可する。
func ValidateExternalURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must be absolute: %q", raw)
	}
	return nil
}
