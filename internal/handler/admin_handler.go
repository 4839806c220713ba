package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/admin"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
	"github.com/hitoshi/todoman/internal/validation"
)

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	RequireAdmin(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, page, limit int, search string) (*admin.UserListResult, error)
	GetUser(ctx context.Context, userID string) (*admin.UserDetail, error)
	UpdateRole(ctx context.Context, userID string, role model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, userID string) error
	GetStats(ctx context.Context) (*admin.Stats, error)
}

// AdminHandler はユーザー管理と統計のHTTPハンドラー。
// 各操作の前に呼び出し元のadminロールを検証する。
type AdminHandler struct {
	service AdminServiceInterface
	decoder *BodyDecoder
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, decoder *BodyDecoder) *AdminHandler {
	return &AdminHandler{service: service, decoder: decoder}
}

// requireAdmin は認証済みユーザーIDを取り出し、adminロールを検証する。
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return "", false
	}
	if err := h.service.RequireAdmin(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return userID, true
}

// userListResponse は管理者向けユーザー一覧レスポンス。
type userListResponse struct {
	Users      []userResponse `json:"users"`
	Pagination paginationInfo `json:"pagination"`
}

// userDetailResponse はユーザー詳細とTodo統計のレスポンス。
type userDetailResponse struct {
	User           userResponse `json:"user"`
	TodosCount     int          `json:"todosCount"`
	CompletedTodos int          `json:"completedTodos"`
	CompletionRate float64      `json:"completionRate"`
}

// roleUpdateRequest はロール変更リクエストのボディ。
type roleUpdateRequest struct {
	Role string `json:"role"`
}

// recentTodoResponse は統計に含める直近Todo。所有者のユーザー名を含む。
type recentTodoResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// statsResponse はシステム統計レスポンス。
type statsResponse struct {
	TotalUsers     int                  `json:"totalUsers"`
	TotalTodos     int                  `json:"totalTodos"`
	CompletedTodos int                  `json:"completedTodos"`
	CompletionRate float64              `json:"completionRate"`
	ActiveUsers    int                  `json:"activeUsers"`
	RecentUsers    []userResponse       `json:"recentUsers"`
	RecentTodos    []recentTodoResponse `json:"recentTodos"`
}

// ListUsers はユーザー一覧をページネーション付きで返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	page := 1
	limit := 10
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	result, err := h.service.ListUsers(r.Context(), page, limit, r.URL.Query().Get("search"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	users := make([]userResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, userListResponse{
		Users: users,
		Pagination: paginationInfo{
			CurrentPage: result.CurrentPage,
			TotalPages:  result.TotalPages,
			TotalCount:  result.Total,
			HasNextPage: result.CurrentPage < result.TotalPages,
			HasPrevPage: result.CurrentPage > 1,
			Limit:       limit,
		},
	})
}

// GetUser は単一ユーザーの詳細とTodo統計を返す。
// GET /api/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	detail, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userDetailResponse{
		User:           toUserResponse(detail.User),
		TodosCount:     detail.TodosCount,
		CompletedTodos: detail.CompletedTodos,
		CompletionRate: detail.CompletionRate,
	})
}

// UpdateRole は対象ユーザーのロールを変更する。
// PUT /api/admin/users/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	var req roleUpdateRequest
	if appErr := h.decoder.Decode(r, validation.RoleUpdateSchema(), &req); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	u, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User role updated successfully",
		"user":    toUserResponse(u),
	})
}

// DeleteUser は対象ユーザーと所有Todoを削除する。
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// toRecentTodoResponses はTodoWithOwnerをレスポンス表現へ変換する。
func toRecentTodoResponses(todos []repository.TodoWithOwner) []recentTodoResponse {
	out := make([]recentTodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, recentTodoResponse{
			ID:        t.ID,
			Title:     t.Title,
			Completed: t.Completed,
			Username:  t.Username,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

// GetStats はシステム全体の統計を返す。
// GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}

	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	recentUsers := make([]userResponse, 0, len(stats.RecentUsers))
	for _, u := range stats.RecentUsers {
		recentUsers = append(recentUsers, toUserResponse(u))
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalUsers:     stats.TotalUsers,
		TotalTodos:     stats.TotalTodos,
		CompletedTodos: stats.CompletedTodos,
		CompletionRate: stats.CompletionRate,
		ActiveUsers:    stats.ActiveUsers,
		RecentUsers:    recentUsers,
		RecentTodos:    toRecentTodoResponses(stats.RecentTodos),
	})
}
