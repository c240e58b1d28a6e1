// Package apperror はAPIで返すエラーの分類とHTTPステータスへの対応付けを提供する。
//
// ハンドラは下位層のエラーをこのパッケージの *Error に変換して応答する。
// 内部エラーの原因（Cause）はログにのみ出力し、レスポンスには含めない。
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの分類。
type Kind int

const (
	// KindInternal は想定外のストア・署名エラー。
	KindInternal Kind = iota
	// KindValidation は必須項目の欠落や不正な入力。
	KindValidation
	// KindAuthentication は認証情報やトークンの不備。
	KindAuthentication
	// KindAuthorization は認証済みだが権限が不足している場合。
	KindAuthorization
	// KindNotFound は指定IDのリソースが存在しない場合。
	KindNotFound
)

// String はKindの名前を返す。
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindNotFound:
		return "NotFoundError"
	default:
		return "InternalError"
	}
}

// HTTPStatus はKindに対応するHTTPステータスコードを返す。
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FieldError は項目単位の入力エラー。
type FieldError struct {
	// Field はJSON上の項目名。
	Field string `json:"field"`
	// Message は利用者向けのメッセージ。
	Message string `json:"message"`
}

// Error はAPIエラー。
type Error struct {
	// Kind はエラーの分類。
	Kind Kind
	// Message は利用者向けのメッセージ。
	Message string
	// Fields は入力エラーの詳細。
	Fields []FieldError
	// Cause は原因となった下位層のエラー。
	Cause error
}

// Error はエラー文字列を返す。
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error { return e.Cause }

// Is は同じKindの *Error と一致する。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Status はHTTPステータスコードを返す。
func (e *Error) Status() int { return e.Kind.HTTPStatus() }

// Body はレスポンスボディを返す。
func (e *Error) Body() map[string]any {
	body := map[string]any{"error": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	return body
}

// WithCause は原因エラーを設定して自身を返す。
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Validation は入力エラーを生成する。
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Authentication は認証エラーを生成する。
func Authentication(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Authorization は権限エラーを生成する。
func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// NotFound はリソース未検出エラーを生成する。
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal は内部エラーを生成する。
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// From は任意のエラーを *Error に変換する。*Error でなければ内部エラーとして扱う。
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("内部サーバーエラーが発生しました", err)
}
