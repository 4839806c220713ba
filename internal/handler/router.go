package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// レート制限（固定ウィンドウ方式）
	GeneralLimiter    *middleware.FixedWindowLimiter
	AuthLimiter       *middleware.FixedWindowLimiter
	PerUserLimiter    *middleware.FixedWindowLimiter
	TodoCreateLimiter *middleware.FixedWindowLimiter

	// サービス
	AuthService    AuthServiceInterface
	ProfileService ProfileServiceInterface
	TodoService    TodoServiceInterface
	AdminService   AdminServiceInterface

	// 入力サニタイズ
	Sanitizer security.InputSanitizerService

	// メトリクス
	MetricsRecorder middleware.HTTPMetricsRecorder
	MetricsGatherer prometheus.Gatherer

	// 開発モードでは内部エラーの詳細をレスポンスに含める
	Environment string
	DevMode     bool
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → CORS → Recovery → Logging → RateLimit(General) → Auth
//
// /metrics と /api/health はレート制限の対象外。
func NewRouter(deps *RouterDeps) http.Handler {
	devMode = deps.DevMode

	r := chi.NewRouter()

	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.MetricsRecorder))

	decoder := NewBodyDecoder(deps.Sanitizer)
	authHandler := NewAuthHandler(deps.AuthService, deps.ProfileService, decoder)
	todoHandler := NewTodoHandler(deps.TodoService, decoder)
	adminHandler := NewAdminHandler(deps.AdminService, decoder)

	// Prometheusメトリクス公開
	r.Get("/metrics", metrics.Handler(deps.MetricsGatherer).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// ヘルスチェック（レート制限なし）
		r.Get("/health", NewHealthHandler(deps.Environment))

		r.Group(func(r chi.Router) {
			r.Use(deps.GeneralLimiter.Middleware())

			// --- 認証不要のルート ---
			r.Post("/register", authHandler.Register)
			// ログインのみブルートフォース対策の専用レート制限を追加
			r.With(deps.AuthLimiter.Middleware()).Post("/login", authHandler.Login)

			// --- 認証が必要なルート ---
			r.Group(func(r chi.Router) {
				r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

				r.Post("/logout", authHandler.Logout)
				r.Get("/profile", authHandler.GetProfile)
				r.Put("/profile", authHandler.UpdateProfile)

				// Todo管理（ユーザー単位のレート制限を追加）
				r.Route("/todos", func(r chi.Router) {
					r.Use(deps.PerUserLimiter.Middleware())

					r.Get("/", todoHandler.List)
					// POST /api/todos - 作成専用レート制限を追加
					r.With(deps.TodoCreateLimiter.Middleware()).Post("/", todoHandler.Create)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", todoHandler.Get)
						r.Put("/", todoHandler.Update)
						r.Delete("/", todoHandler.Delete)
					})
				})

				// 管理者専用ルート
				r.Route("/admin", func(r chi.Router) {
					r.Get("/users", adminHandler.ListUsers)
					r.Route("/users/{id}", func(r chi.Router) {
						r.Get("/", adminHandler.GetUser)
						r.Put("/role", adminHandler.UpdateRole)
						r.Delete("/", adminHandler.DeleteUser)
					})
					r.Get("/stats", adminHandler.GetStats)
				})
			})
		})
	})

	return r
}
