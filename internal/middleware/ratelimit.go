package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// KeyFunc はレート制限キーをリクエストから導出する関数。
type KeyFunc func(r *http.Request) string

// RejectionRecorder はレート制限による拒否をメトリクスに記録するインターフェース。
// metrics.Collectorの部分集合として定義する。
type RejectionRecorder interface {
	RecordRateLimitRejected(limiter string)
}

// LimiterConfig は1つの固定ウィンドウリミッターの設定を保持する。
type LimiterConfig struct {
	Name    string        // ログ・メトリクス用の識別名
	Limit   int           // ウィンドウあたりの上限リクエスト数
	Window  time.Duration // ウィンドウ長
	Message string        // 429レスポンスのメッセージ
	KeyFunc KeyFunc       // 制限キーの導出（IPまたはユーザーID）
}

// FixedWindowLimiter は固定ウィンドウ方式のレート制限ミドルウェア。
// カウンタの保持はCounterStoreに委譲し、各リミッターは独立した
// キー空間とウィンドウを持つ。
type FixedWindowLimiter struct {
	store    CounterStore
	config   LimiterConfig
	recorder RejectionRecorder
}

// NewFixedWindowLimiter はFixedWindowLimiterを生成する。
// recorderはnilでもよい。
func NewFixedWindowLimiter(store CounterStore, config LimiterConfig, recorder RejectionRecorder) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:    store,
		config:   config,
		recorder: recorder,
	}
}

// Middleware はレート制限を適用するミドルウェアを返す。
// すべてのレスポンスにX-RateLimit-Limit/Remaining/Resetヘッダーを付与し、
// 上限超過時はウィンドウリセットまでの秒数をretryAfterとして429で応答する。
// カウンタストアの障害時は制限をかけずに通す（fail open）。
func (l *FixedWindowLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := l.config.Name + ":" + l.config.KeyFunc(r)

			count, resetAt, err := l.store.Incr(r.Context(), key, l.config.Window)
			if err != nil {
				slog.Error("rate limit counter store failed",
					slog.String("limiter", l.config.Name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := l.config.Limit - count
			if remaining < 0 {
				remaining = 0
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.config.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if count > l.config.Limit {
				l.reject(w, r, resetAt)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// reject は429 Too Many Requestsレスポンスを書き込む。
// retryAfterはウィンドウリセットまでの秒数（最小0）。
func (l *FixedWindowLimiter) reject(w http.ResponseWriter, r *http.Request, resetAt time.Time) {
	retryAfter := int(time.Until(resetAt).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}

	slog.Warn("rate limit exceeded",
		slog.String("limiter", l.config.Name),
		slog.String("path", r.URL.Path),
	)
	if l.recorder != nil {
		l.recorder.RecordRateLimitRejected(l.config.Name)
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]any{
		"status":     "error",
		"message":    l.config.Message,
		"retryAfter": retryAfter,
	})
}

// ClientIPKey はクライアントIPアドレスを制限キーとして返すKeyFunc。
// リバースプロキシ背後ではX-Forwarded-Forの先頭エントリを優先する。
func ClientIPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserOrIPKey は認証済みならユーザーID、未認証ならクライアントIPを
// 制限キーとして返すKeyFunc。
func UserOrIPKey(r *http.Request) string {
	if userID, err := UserIDFromContext(r.Context()); err == nil {
		return "user:" + userID
	}
	return "ip:" + ClientIPKey(r)
}
