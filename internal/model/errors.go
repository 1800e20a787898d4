// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// クライアントに返すメッセージと、入力起因の場合は対象フィールドを含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, reference, conflict, system
	Action   string // 利用者向け対処方法
	Field    string // 問題のある入力フィールド（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidField       = "INVALID_FIELD"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeNoValidFields      = "NO_VALID_FIELDS"
	ErrCodeDuplicate          = "DUPLICATE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidOTP         = "INVALID_OTP"
	ErrCodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// NewMissingFieldsError は必須項目不足のエラーを生成する。
func NewMissingFieldsError(fields ...string) *APIError {
	e := &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Missing required fields: " + strings.Join(fields, ", "),
		Category: "validation",
		Action:   "必須項目をすべて指定してください。",
	}
	if len(fields) == 1 {
		e.Message = "Missing required field: " + fields[0]
		e.Field = fields[0]
	}
	return e
}

// NewInvalidFieldError は型や範囲が不正な入力のエラーを生成する。
func NewInvalidFieldError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidField,
		Message:  message,
		Category: "validation",
		Action:   "入力値の形式を確認してください。",
		Field:    field,
	}
}

// NewNotNumericError は数値として解釈できない入力値のエラーを生成する。
func NewNotNumericError(field string) *APIError {
	return NewInvalidFieldError(field, field+" must be a numeric value")
}

// NewInvalidRoleError はロールが許可セット外の場合のエラーを生成する。
func NewInvalidRoleError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  "Role must be either 'admin' or 'officer'",
		Category: "validation",
		Action:   "roleには admin または officer を指定してください。",
		Field:    "role",
	}
}

// NewInvalidStatusError はステータス値が許可セット外の場合のエラーを生成する。
func NewInvalidStatusError(allowed []string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  "Invalid status",
		Category: "validation",
		Action:   "statusには次のいずれかを指定してください: " + strings.Join(allowed, ", "),
		Field:    "status",
	}
}

// NewNoValidFieldsError は更新可能な項目が1つも含まれない場合のエラーを生成する。
func NewNoValidFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoValidFields,
		Message:  "No valid fields provided for update.",
		Category: "validation",
		Action:   "更新可能な項目を指定してください。",
	}
}

// NewDuplicateError は一意制約違反のエラーを生成する。
func NewDuplicateError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicate,
		Message:  message,
		Category: "conflict",
		Action:   "別の値を指定してください。",
		Field:    field,
	}
}

// NewNotFoundError は対象エンティティが見つからない場合のエラーを生成する。
// entityは "Address" のような表示名を指定する。
func NewNotFoundError(entity string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  entity + " not found",
		Category: "reference",
		Action:   "IDを確認してください。",
	}
}

// NewParentNotFoundError は参照先（親）エンティティが存在しない場合のエラーを生成する。
// メッセージには欠落している親の名前を含め、fieldには参照元の入力項目を設定する。
func NewParentNotFoundError(entity, field string) *APIError {
	e := NewNotFoundError(entity)
	e.Field = field
	return e
}

// NewInvalidCredentialsError はログイン失敗のエラーを生成する。
// ユーザー不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "ユーザー名またはメールアドレスとパスワードを確認してください。",
	}
}

// NewInvalidOTPError はOTPが無効または期限切れの場合のエラーを生成する。
func NewInvalidOTPError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOTP,
		Message:  "Invalid or expired OTP",
		Category: "auth",
		Action:   "パスワードリセットを再度リクエストしてください。",
		Field:    "otp",
	}
}

// NewPasswordTooShortError はパスワード長不足のエラーを生成する。
func NewPasswordTooShortError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("Password must be at least %d characters", minLength),
		Category: "validation",
		Action:   "より長いパスワードを指定してください。",
		Field:    "new_password",
	}
}

// NewPasswordMismatchError は現在のパスワードが一致しない場合のエラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Current password is incorrect",
		Category: "auth",
		Action:   "現在のパスワードを確認してください。",
		Field:    "current_password",
	}
}

// NewUnauthorizedError は認証トークンが無い場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication token required",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidTokenError はトークン検証に失敗した場合のエラーを生成する。
// 期限切れ・署名不正・形式不正を区別しない。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Invalid or expired token",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewForbiddenError はロール不足のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Access denied. Insufficient permissions.",
		Category: "auth",
		Action:   "権限のあるアカウントでログインしてください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Invalid JSON request body",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewStorageUnavailableError は外部ストレージが未設定の場合のエラーを生成する。
func NewStorageUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageUnavailable,
		Message:  "Image storage is not configured",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}
