// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// ErrorKind はAppErrorの種別を表す。
// 種別ごとに対応するHTTPステータスコードが一意に決まる。
type ErrorKind int

const (
	// KindValidation は入力検証エラー（400）。
	KindValidation ErrorKind = iota
	// KindAuthentication は認証エラー（401）。
	KindAuthentication
	// KindAuthorization は認可エラー（403）。
	KindAuthorization
	// KindNotFound はリソース未検出エラー（404）。
	KindNotFound
	// KindConflict は一意制約違反などの競合エラー（409）。
	KindConflict
	// KindRateLimit はレート制限超過エラー（429）。
	KindRateLimit
	// KindInternal は想定外の内部エラー（500）。
	KindInternal
)

// HTTPStatus は種別に対応するHTTPステータスコードを返す。
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError はAPI全体で使用するタグ付きエラー型。
// 継承階層ではなく種別フィールドで分類し、ハンドラー層の
// 単一の変換関数でHTTPレスポンスへ写像する。
type AppError struct {
	Kind    ErrorKind
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return e.Message
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewAuthenticationError は認証エラーを生成する。
func NewAuthenticationError(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message}
}

// NewAuthorizationError は認可エラーを生成する。
func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

// NewNotFoundError はリソース未検出エラーを生成する。
// メッセージは「<resource> not found」の形式になる。
func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewConflictError は一意フィールドの重複エラーを生成する。
// メッセージは「<field> already exists」の形式になる。
func NewConflictError(field string) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf("%s already exists", field)}
}
