// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, access, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is はエラーコードが一致する場合にtrueを返す。
// errors.Is(err, model.ErrAccessDenied) のように種別判定に使う。
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// 定義済みエラーコード
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeAccessDenied = "ACCESS_DENIED"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
)

// 種別判定用のセンチネル。メッセージは持たずコードのみで比較する。
var (
	ErrNotFound     = &APIError{Code: ErrCodeNotFound}
	ErrAccessDenied = &APIError{Code: ErrCodeAccessDenied}
	ErrValidation   = &APIError{Code: ErrCodeValidation}
)

// NewNotFoundError はリソース未検出エラーを生成する。idが空の場合はメッセージに含めない。
func NewNotFoundError(resource, id string) *APIError {
	msg := fmt.Sprintf("指定された%sが見つかりません。", resource)
	if id != "" {
		msg = fmt.Sprintf("指定された%sが見つかりません: %s", resource, id)
	}
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  msg,
		Category: "resource",
		Action:   "IDを確認してください。",
	}
}

// NewAccessDeniedError はアクセス拒否エラーを生成する。
// リソースの存在有無を推測されないよう、IDはメッセージに含めない。
func NewAccessDeniedError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeAccessDenied,
		Message:  fmt.Sprintf("%sへのアクセス権限がありません。", resource),
		Category: "access",
		Action:   "リソースの作成者または管理者に権限の付与を依頼してください。",
	}
}

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "有効なアクセストークンを指定してください。",
	}
}

// NewForbiddenError は管理操作に必要な権限クレームがない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者権限を持つアカウントで再度お試しください。",
	}
}
