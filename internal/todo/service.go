// Package todo はTodo管理のドメインロジックを提供する。
package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// maxListLimit は一覧取得の1ページ上限件数。
const maxListLimit = 100

// Service はTodo管理のサービス層。
// すべての操作は呼び出しユーザーのIDでスコープされる。
type Service struct {
	todoRepo repository.TodoRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(todoRepo repository.TodoRepository) *Service {
	return &Service{todoRepo: todoRepo}
}

// ListResult は一覧取得の結果。ページ分の項目と条件一致総数を持つ。
type ListResult struct {
	Todos      []*model.Todo
	TotalCount int
	TotalPages int
}

// List は所有Todoの一覧を検索・フィルタ・ソート・ページネーション付きで返す。
// page < 1 または limit が [1,100] の範囲外の場合は検証エラーを返す。
func (s *Service) List(ctx context.Context, userID string, q model.TodoListQuery) (*ListResult, error) {
	if q.Page < 1 || q.Limit < 1 || q.Limit > maxListLimit {
		return nil, model.NewValidationError("Invalid pagination parameters. Page must be >= 1, limit must be between 1 and 100.")
	}
	if !q.Status.IsValid() {
		return nil, model.NewValidationError("Status must be all, completed, or pending")
	}

	todos, total, err := s.todoRepo.List(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	totalPages := (total + q.Limit - 1) / q.Limit

	return &ListResult{
		Todos:      todos,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Get は指定IDの所有Todoを返す。他ユーザー所有のIDは存在として扱わない。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Todo, error) {
	todo, err := s.todoRepo.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	if todo == nil {
		return nil, model.NewNotFoundError("Todo")
	}
	return todo, nil
}

// CreateInput はTodo作成の入力。
type CreateInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Reminder    *time.Time
	Priority    model.Priority
	Tags        []string
}

// Create はTodoを作成する。優先度未指定時はmediumになる。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Todo, error) {
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	todo := &model.Todo{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		DueDate:     input.DueDate,
		Reminder:    input.Reminder,
		Priority:    priority,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

// UpdateInput はTodo更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
	Reminder    *time.Time
	Priority    *model.Priority
	Tags        []string
}

// Update は所有Todoを部分更新する。
// 対象が存在しない、または他ユーザー所有の場合は未検出エラーを返す。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Todo, error) {
	todo, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.Description != nil {
		todo.Description = *input.Description
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}
	if input.DueDate != nil {
		todo.DueDate = input.DueDate
	}
	if input.Reminder != nil {
		todo.Reminder = input.Reminder
	}
	if input.Priority != nil {
		todo.Priority = *input.Priority
	}
	if input.Tags != nil {
		todo.Tags = input.Tags
	}
	todo.UpdatedAt = time.Now()

	updated, err := s.todoRepo.Update(ctx, todo)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	if !updated {
		return nil, model.NewNotFoundError("Todo")
	}

	return todo, nil
}

// Delete は所有Todoを削除する。
// 対象が存在しない、または他ユーザー所有の場合は未検出エラーを返す。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.todoRepo.DeleteByIDAndUser(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Todo")
	}
	return nil
}
