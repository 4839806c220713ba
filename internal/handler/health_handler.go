package handler

import (
	"net/http"
	"time"
)

// healthResponse はヘルスチェックレスポンス。
type healthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// NewHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// レート制限の対象外で、監視系からのポーリングを想定している。
func NewHealthHandler(environment string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:      "success",
			Message:     "Server is healthy",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Environment: environment,
		})
	}
}
