package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/todo"
	"github.com/hitoshi/todoman/internal/validation"
)

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	List(ctx context.Context, userID string, q model.TodoListQuery) (*todo.ListResult, error)
	Get(ctx context.Context, userID, todoID string) (*model.Todo, error)
	Create(ctx context.Context, userID string, input todo.CreateInput) (*model.Todo, error)
	Update(ctx context.Context, userID, todoID string, input todo.UpdateInput) (*model.Todo, error)
	Delete(ctx context.Context, userID, todoID string) error
}

// TodoHandler はTodo CRUDのHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
	decoder *BodyDecoder
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface, decoder *BodyDecoder) *TodoHandler {
	return &TodoHandler{service: service, decoder: decoder}
}

// --- リクエスト/レスポンス型 ---

// todoCreateRequest はTodo作成リクエストのボディ。
type todoCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     *string  `json:"dueDate"`
	Reminder    *string  `json:"reminder"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
}

// todoUpdateRequest はTodo更新リクエストのボディ。未指定フィールドは変更しない。
type todoUpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Completed   *bool     `json:"completed"`
	DueDate     *string   `json:"dueDate"`
	Reminder    *string   `json:"reminder"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
}

// todoResponse はTodoのレスポンス表現。
type todoResponse struct {
	ID          string     `json:"id"`
	User        string     `json:"user"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	Reminder    *time.Time `json:"reminder"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// paginationInfo は一覧レスポンスのページネーション情報。
type paginationInfo struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	Limit       int  `json:"limit"`
}

// filtersInfo は一覧レスポンスに含める適用済みフィルター。
type filtersInfo struct {
	Search    string `json:"search"`
	Status    string `json:"status"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// todoListResponse はTodo一覧レスポンス。
type todoListResponse struct {
	Todos      []todoResponse `json:"todos"`
	Pagination paginationInfo `json:"pagination"`
	Filters    filtersInfo    `json:"filters"`
}

// toTodoResponse はmodel.Todoをレスポンス表現へ変換する。
func toTodoResponse(t *model.Todo) todoResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return todoResponse{
		ID:          t.ID,
		User:        t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		Reminder:    t.Reminder,
		Priority:    string(t.Priority),
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// parseListQuery はクエリパラメータを一覧クエリへ変換する。
// 数値として解釈できない page/limit はデフォルト値にフォールバックする。
func parseListQuery(values url.Values) model.TodoListQuery {
	q := model.TodoListQuery{
		Page:      1,
		Limit:     10,
		Search:    values.Get("search"),
		Status:    model.TodoStatusAll,
		SortBy:    "createdAt",
		SortOrder: "desc",
	}
	if v := values.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Page = n
		}
	}
	if v := values.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Limit = n
		}
	}
	if v := values.Get("status"); v != "" {
		q.Status = model.TodoStatusFilter(v)
	}
	if v := values.Get("sortBy"); v != "" {
		q.SortBy = v
	}
	if v := values.Get("sortOrder"); v != "" {
		q.SortOrder = v
	}
	return q
}

// parseOptionalTime はRFC3339文字列ポインタをtime.Timeポインタへ変換する。
// 空文字列はnil（クリア指定）として扱う。
func parseOptionalTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

// List は認証済みユーザーのTodo一覧をページネーション付きで返す。
// GET /api/todos
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := parseListQuery(r.URL.Query())
	result, err := h.service.List(r.Context(), userID, q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	todos := make([]todoResponse, 0, len(result.Todos))
	for _, t := range result.Todos {
		todos = append(todos, toTodoResponse(t))
	}

	writeJSON(w, http.StatusOK, todoListResponse{
		Todos: todos,
		Pagination: paginationInfo{
			CurrentPage: q.Page,
			TotalPages:  result.TotalPages,
			TotalCount:  result.TotalCount,
			HasNextPage: q.Page*q.Limit < result.TotalCount,
			HasPrevPage: q.Page > 1,
			Limit:       q.Limit,
		},
		Filters: filtersInfo{
			Search:    q.Search,
			Status:    string(q.Status),
			SortBy:    q.SortBy,
			SortOrder: q.SortOrder,
		},
	})
}

// Get は単一のTodoを返す。他ユーザーのTodoは404。
// GET /api/todos/{id}
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(t))
}

// Create は新しいTodoを作成する。
// POST /api/todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req todoCreateRequest
	if appErr := h.decoder.Decode(r, validation.TodoCreateSchema(), &req); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	t, err := h.service.Create(r.Context(), userID, todo.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     parseOptionalTime(req.DueDate),
		Reminder:    parseOptionalTime(req.Reminder),
		Priority:    model.Priority(req.Priority),
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTodoResponse(t))
}

// Update はTodoを部分更新する。
// PUT /api/todos/{id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req todoUpdateRequest
	if appErr := h.decoder.Decode(r, validation.TodoUpdateSchema(), &req); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	input := todo.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueDate:     parseOptionalTime(req.DueDate),
		Reminder:    parseOptionalTime(req.Reminder),
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		input.Priority = &p
	}

	t, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTodoResponse(t))
}

// Delete はTodoを削除する。
// DELETE /api/todos/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted successfully"})
}
