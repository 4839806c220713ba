// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/security"
	"github.com/hitoshi/todoman/internal/validation"
)

// maxBodyBytes はリクエストボディの上限サイズ。
const maxBodyBytes = 1 << 20 // 1MB

// errorResponse はAPIエラーレスポンスの統一フォーマット。
// statusは4xxで"fail"、5xxで"error"となる。
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAppError はAppErrorを統一フォーマットのHTTPレスポンスへ変換する。
func writeAppError(w http.ResponseWriter, appErr *model.AppError) {
	statusCode := appErr.Kind.HTTPStatus()
	status := "error"
	if statusCode < 500 {
		status = "fail"
	}
	writeJSON(w, statusCode, errorResponse{Status: status, Message: appErr.Message})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPレスポンスに変換する。
// AppError以外のエラーは詳細をログのみに記録し、一般的なメッセージの500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		writeAppError(w, appErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	message := "Something went wrong!"
	if devMode {
		message = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: message})
}

// devMode は開発モードフラグ。trueの場合のみ内部エラーの詳細を
// レスポンスに含める。NewRouterで1回だけ設定される。
var devMode bool

// BodyDecoder はリクエストボディのサニタイズ・検証・デコードをまとめて行う。
type BodyDecoder struct {
	sanitizer security.InputSanitizerService
}

// NewBodyDecoder はBodyDecoderを生成する。
func NewBodyDecoder(sanitizer security.InputSanitizerService) *BodyDecoder {
	return &BodyDecoder{sanitizer: sanitizer}
}

// Decode はボディをJSONとしてデコードし、全文字列フィールドを
// サニタイズしてからスキーマで検証し、結果をdstへ詰め替える。
// 検証はサニタイズ後の値に対して行われる。
func (d *BodyDecoder) Decode(r *http.Request, schema validation.Schema, dst any) *model.AppError {
	var body map[string]any
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		return model.NewValidationError("Invalid JSON body")
	}

	d.sanitizer.SanitizeMap(body)

	if msg := schema.FirstError(body); msg != "" {
		return model.NewValidationError(msg)
	}

	// サニタイズ済みボディを型付きDTOへ詰め替える
	raw, err := json.Marshal(body)
	if err != nil {
		return model.NewValidationError("Invalid JSON body")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return model.NewValidationError("Invalid JSON body")
	}

	return nil
}

// requireUserID はコンテキストから認証済みユーザーIDを取り出す。
// 認証ミドルウェア配下では失敗しないはずだが、欠落時は統一401を返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAppError(w, model.NewAuthenticationError("Invalid or missing token"))
		return "", false
	}
	return userID, true
}
