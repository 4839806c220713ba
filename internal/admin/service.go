// Package admin は管理者向けのユーザー管理・統計のドメインロジックを提供する。
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// activeUserWindow はアクティブユーザー集計の対象期間。
const activeUserWindow = 7 * 24 * time.Hour

// recentUsersLimit / recentTodosLimit は統計に含める直近レコード数。
const (
	recentUsersLimit = 5
	recentTodosLimit = 10
)

// Service は管理者操作のサービス層。
// 呼び出し前にロールチェック（RequireAdmin）を通過していることを前提とする。
type Service struct {
	userRepo repository.UserRepository
	todoRepo repository.TodoRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, todoRepo repository.TodoRepository) *Service {
	return &Service{
		userRepo: userRepo,
		todoRepo: todoRepo,
	}
}

// RequireAdmin は呼び出しユーザーを再取得し、管理者ロールを要求する。
// ユーザーが存在しない場合は認証エラー、ロール不足は認可エラーを返す。
func (s *Service) RequireAdmin(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewAuthenticationError("Invalid or missing token")
	}
	if user.Role != model.RoleAdmin {
		return model.NewAuthorizationError("Access denied. Admin only.")
	}
	return nil
}

// UserListResult はユーザー一覧の結果。
type UserListResult struct {
	Users       []*model.User
	Total       int
	TotalPages  int
	CurrentPage int
}

// ListUsers はユーザー一覧をusername/emailの部分一致検索付きで返す。
// pageとlimitは不正値の場合デフォルト（1, 10）に丸める。
func (s *Service) ListUsers(ctx context.Context, page, limit int, search string) (*UserListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	users, total, err := s.userRepo.List(ctx, search, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResult{
		Users:       users,
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

// UserDetail はユーザー詳細とTodo集計を結合した結果。
type UserDetail struct {
	User           *model.User
	TodosCount     int
	CompletedTodos int
	CompletionRate float64
}

// GetUser は指定ユーザーの詳細をTodo数・完了数・完了率付きで返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*UserDetail, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User")
	}

	todosCount, err := s.todoRepo.CountByUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}
	completed, err := s.todoRepo.CountByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed todos: %w", err)
	}

	return &UserDetail{
		User:           user,
		TodosCount:     todosCount,
		CompletedTodos: completed,
		CompletionRate: completionRate(completed, todosCount),
	}, nil
}

// UpdateRole は指定ユーザーのロールを変更する。
// roleがuser/admin以外の場合は検証エラーを返す。
func (s *Service) UpdateRole(ctx context.Context, userID string, role model.Role) (*model.User, error) {
	if !role.IsValid() {
		return nil, model.NewValidationError("Invalid role")
	}

	updated, err := s.userRepo.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if !updated {
		return nil, model.NewNotFoundError("User")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError("User")
	}
	return user, nil
}

// DeleteUser は指定ユーザーを削除する。
// 所有するTodoは外部キーのCASCADEで同時に削除される。
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	deleted, err := s.userRepo.DeleteByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("User")
	}
	return nil
}

// Stats はシステム全体の統計。
type Stats struct {
	TotalUsers     int
	TotalTodos     int
	CompletedTodos int
	CompletionRate float64
	ActiveUsers    int
	RecentUsers    []*model.User
	RecentTodos    []repository.TodoWithOwner
}

// GetStats はシステム全体の統計を返す。
// アクティブユーザーはlast_loginが7日以内のユーザー数。
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	totalUsers, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	totalTodos, err := s.todoRepo.CountAll(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos: %w", err)
	}
	completedTodos, err := s.todoRepo.CountAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed todos: %w", err)
	}
	activeUsers, err := s.userRepo.CountActiveSince(ctx, time.Now().Add(-activeUserWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	recentUsers, err := s.userRepo.ListRecent(ctx, recentUsersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	recentTodos, err := s.todoRepo.ListRecent(ctx, recentTodosLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent todos: %w", err)
	}

	return &Stats{
		TotalUsers:     totalUsers,
		TotalTodos:     totalTodos,
		CompletedTodos: completedTodos,
		CompletionRate: completionRate(completedTodos, totalTodos),
		ActiveUsers:    activeUsers,
		RecentUsers:    recentUsers,
		RecentTodos:    recentTodos,
	}, nil
}

// completionRate は完了率をパーセントで返す。分母0のときは0。
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
