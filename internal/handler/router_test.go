package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/security"
	"github.com/hitoshi/todoman/internal/todo"
)

// stubVerifier は"token-<userID>"形式のトークンを受け付けるTokenVerifier。
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if userID, ok := strings.CutPrefix(token, "token-"); ok {
		return userID, nil
	}
	return "", errors.New("invalid token")
}

// newRouterDeps はテスト用のRouterDepsを組み立てる。
// レート制限は上限を十分大きくして通常テストでは発火しないようにする。
func newRouterDeps(t *testing.T, store middleware.CounterStore, generalLimit int) *RouterDeps {
	t.Helper()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	limiter := func(name string, limit int, keyFunc middleware.KeyFunc) *middleware.FixedWindowLimiter {
		return middleware.NewFixedWindowLimiter(store, middleware.LimiterConfig{
			Name:    name,
			Limit:   limit,
			Window:  time.Minute,
			Message: "Too many requests from this IP, please try again later.",
			KeyFunc: keyFunc,
		}, collector)
	}

	return &RouterDeps{
		TokenVerifier:     stubVerifier{},
		CORSAllowedOrigin: "http://localhost:3000",
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),

		GeneralLimiter:    limiter("general", generalLimit, middleware.ClientIPKey),
		AuthLimiter:       limiter("auth", 1000, middleware.ClientIPKey),
		PerUserLimiter:    limiter("user", 1000, middleware.UserOrIPKey),
		TodoCreateLimiter: limiter("todo_create", 1000, middleware.UserOrIPKey),

		AuthService:    &mockAuthService{},
		ProfileService: &mockProfileService{},
		TodoService:    &mockTodoService{},
		AdminService:   &mockAdminService{},

		Sanitizer: security.NewInputSanitizer(),

		MetricsRecorder: collector,
		MetricsGatherer: registry,

		Environment: "test",
	}
}

func TestRouter_Health(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	router := NewRouter(newRouterDeps(t, store, 1000))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := decodeResponse(t, w)
	if body["status"] != "success" || body["environment"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestRouter_Metrics(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	router := NewRouter(newRouterDeps(t, store, 1000))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	router := NewRouter(newRouterDeps(t, store, 1000))

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/todos"},
		{http.MethodPost, "/api/todos"},
		{http.MethodGet, "/api/profile"},
		{http.MethodPost, "/api/logout"},
		{http.MethodGet, "/api/admin/users"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			req := httptest.NewRequest(rt.method, rt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRouter_RateLimitHeaders(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	router := NewRouter(newRouterDeps(t, store, 100))

	req := httptest.NewRequest(http.MethodPost, "/api/register", jsonBody(t, map[string]any{
		"username": "tanaka",
		"email":    "tanaka@gmail.com",
		"password": "Passw0rd!",
	}))
	req.RemoteAddr = "192.0.2.1:1000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-RateLimit-Limit") != "100" {
		t.Errorf("X-RateLimit-Limit = %q, want 100", w.Header().Get("X-RateLimit-Limit"))
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining missing")
	}
}

func TestRouter_RateLimitExceeded(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	router := NewRouter(newRouterDeps(t, store, 2))

	var w *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/register", jsonBody(t, map[string]any{
			"username": "tanaka",
			"email":    "tanaka@gmail.com",
			"password": "Passw0rd!",
		}))
		req.RemoteAddr = "192.0.2.1:1000"
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	body := decodeResponse(t, w)
	if body["status"] != "error" {
		t.Errorf("status = %q, want error", body["status"])
	}
	if _, ok := body["retryAfter"]; !ok {
		t.Error("retryAfter missing from 429 body")
	}

	// ヘルスチェックはレート制限の対象外
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	hw := httptest.NewRecorder()
	router.ServeHTTP(hw, req)
	if hw.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", hw.Code, http.StatusOK)
	}
}

func TestRouter_CORSHeaders(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	router := NewRouter(newRouterDeps(t, store, 1000))

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

// TestRouter_TodoLifecycle は登録からTodoの作成・完了・削除までの
// 一連のフローをルーター経由で検証する。
func TestRouter_TodoLifecycle(t *testing.T) {
	store := middleware.NewMemoryCounterStore()
	defer store.Stop()

	// 1ユーザー分のインメモリ状態を持つモックサービス
	todos := map[string]*model.Todo{}
	deps := newRouterDeps(t, store, 1000)
	deps.AuthService = &mockAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*auth.Result, error) {
			return &auth.Result{Token: "token-user-1", Username: username, Email: email}, nil
		},
	}
	deps.TodoService = &mockTodoService{
		createFn: func(ctx context.Context, userID string, input todo.CreateInput) (*model.Todo, error) {
			td := &model.Todo{ID: "t1", UserID: userID, Title: input.Title, Tags: []string{}}
			todos[td.ID] = td
			return td, nil
		},
		updateFn: func(ctx context.Context, userID, todoID string, input todo.UpdateInput) (*model.Todo, error) {
			td, ok := todos[todoID]
			if !ok || td.UserID != userID {
				return nil, model.NewNotFoundError("Todo")
			}
			if input.Completed != nil {
				td.Completed = *input.Completed
			}
			return td, nil
		},
		getFn: func(ctx context.Context, userID, todoID string) (*model.Todo, error) {
			td, ok := todos[todoID]
			if !ok || td.UserID != userID {
				return nil, model.NewNotFoundError("Todo")
			}
			return td, nil
		},
		deleteFn: func(ctx context.Context, userID, todoID string) error {
			td, ok := todos[todoID]
			if !ok || td.UserID != userID {
				return model.NewNotFoundError("Todo")
			}
			delete(todos, todoID)
			return nil
		},
	}

	router := NewRouter(deps)

	do := func(method, path, token string, body map[string]any) *httptest.ResponseRecorder {
		var req *http.Request
		if body != nil {
			req = httptest.NewRequest(method, path, jsonBody(t, body))
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 登録してトークンを得る
	w := do(http.MethodPost, "/api/register", "", map[string]any{
		"username": "tanaka",
		"email":    "tanaka@gmail.com",
		"password": "Passw0rd!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", w.Code, w.Body.String())
	}
	token := decodeResponse(t, w)["token"].(string)

	// Todoを作成
	w = do(http.MethodPost, "/api/todos", token, map[string]any{"title": "buy milk"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	todoID := decodeResponse(t, w)["id"].(string)

	// 完了に切り替え
	w = do(http.MethodPut, "/api/todos/"+todoID, token, map[string]any{"completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}
	if decodeResponse(t, w)["completed"] != true {
		t.Error("todo should be completed")
	}

	// 他ユーザーのトークンでは見えない
	w = do(http.MethodGet, "/api/todos/"+todoID, "token-user-2", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// 削除
	w = do(http.MethodDelete, "/api/todos/"+todoID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}

	// 削除後の取得は404
	w = do(http.MethodGet, "/api/todos/"+todoID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
