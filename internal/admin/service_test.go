package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// mockUserRepo はrepository.UserRepositoryのモック実装。
type mockUserRepo struct {
	findByIDFn         func(ctx context.Context, id string) (*model.User, error)
	updateRoleFn       func(ctx context.Context, id string, role model.Role) (bool, error)
	listFn             func(ctx context.Context, search string, offset, limit int) ([]*model.User, int, error)
	listRecentFn       func(ctx context.Context, limit int) ([]*model.User, error)
	countAllFn         func(ctx context.Context) (int, error)
	countActiveSinceFn func(ctx context.Context, since time.Time) (int, error)
	deleteByIDFn       func(ctx context.Context, id string) (bool, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (bool, error) {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	return true, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (m *mockUserRepo) List(ctx context.Context, search string, offset, limit int) ([]*model.User, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, search, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockUserRepo) ListRecent(ctx context.Context, limit int) ([]*model.User, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

func (m *mockUserRepo) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	if m.countActiveSinceFn != nil {
		return m.countActiveSinceFn(ctx, since)
	}
	return 0, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return true, nil
}

// mockTodoRepo はrepository.TodoRepositoryのモック実装。
type mockTodoRepo struct {
	countByUserFn func(ctx context.Context, userID string, completedOnly bool) (int, error)
	countAllFn    func(ctx context.Context, completedOnly bool) (int, error)
	listRecentFn  func(ctx context.Context, limit int) ([]repository.TodoWithOwner, error)
}

func (m *mockTodoRepo) FindByIDAndUser(ctx context.Context, id, userID string) (*model.Todo, error) {
	return nil, nil
}

func (m *mockTodoRepo) List(ctx context.Context, userID string, q model.TodoListQuery) ([]*model.Todo, int, error) {
	return nil, 0, nil
}

func (m *mockTodoRepo) Create(ctx context.Context, todo *model.Todo) error { return nil }

func (m *mockTodoRepo) Update(ctx context.Context, todo *model.Todo) (bool, error) {
	return true, nil
}

func (m *mockTodoRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	return true, nil
}

func (m *mockTodoRepo) CountByUser(ctx context.Context, userID string, completedOnly bool) (int, error) {
	if m.countByUserFn != nil {
		return m.countByUserFn(ctx, userID, completedOnly)
	}
	return 0, nil
}

func (m *mockTodoRepo) CountAll(ctx context.Context, completedOnly bool) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx, completedOnly)
	}
	return 0, nil
}

func (m *mockTodoRepo) ListRecent(ctx context.Context, limit int) ([]repository.TodoWithOwner, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}

func TestService_RequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		wantKind model.ErrorKind
		wantOK   bool
	}{
		{
			name:   "adminロール",
			user:   &model.User{ID: "u1", Role: model.RoleAdmin},
			wantOK: true,
		},
		{
			name:     "userロールは拒否",
			user:     &model.User{ID: "u1", Role: model.RoleUser},
			wantKind: model.KindAuthorization,
		},
		{
			name:     "ユーザー不在",
			user:     nil,
			wantKind: model.KindAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
					return tt.user, nil
				},
			}
			svc := NewService(repo, &mockTodoRepo{})

			err := svc.RequireAdmin(context.Background(), "u1")
			if tt.wantOK {
				if err != nil {
					t.Errorf("RequireAdmin() error = %v, want nil", err)
				}
				return
			}

			var appErr *model.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("error = %v, want AppError", err)
			}
			if appErr.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", appErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestService_RequireAdmin_Message(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleUser}, nil
		},
	}
	svc := NewService(repo, &mockTodoRepo{})

	err := svc.RequireAdmin(context.Background(), "u1")

	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Message != "Access denied. Admin only." {
		t.Errorf("message = %q, want %q", appErr.Message, "Access denied. Admin only.")
	}
}

func TestService_ListUsers_ClampsPagination(t *testing.T) {
	var gotOffset, gotLimit int
	repo := &mockUserRepo{
		listFn: func(ctx context.Context, search string, offset, limit int) ([]*model.User, int, error) {
			gotOffset, gotLimit = offset, limit
			return []*model.User{}, 0, nil
		},
	}
	svc := NewService(repo, &mockTodoRepo{})

	// 範囲外の値はデフォルトに丸める
	result, err := svc.ListUsers(context.Background(), 0, 500, "")
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if gotOffset != 0 {
		t.Errorf("offset = %d, want 0", gotOffset)
	}
	if gotLimit != 10 {
		t.Errorf("limit = %d, want 10", gotLimit)
	}
	if result.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", result.CurrentPage)
	}
}

func TestService_GetUser_WithTodoStats(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "tanaka"}, nil
		},
	}
	todoRepo := &mockTodoRepo{
		countByUserFn: func(ctx context.Context, userID string, completedOnly bool) (int, error) {
			if completedOnly {
				return 3, nil
			}
			return 4, nil
		},
	}
	svc := NewService(repo, todoRepo)

	detail, err := svc.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if detail.TodosCount != 4 || detail.CompletedTodos != 3 {
		t.Errorf("counts = %d/%d, want 4/3", detail.TodosCount, detail.CompletedTodos)
	}
	if detail.CompletionRate != 75.0 {
		t.Errorf("CompletionRate = %v, want 75.0", detail.CompletionRate)
	}
}

func TestService_GetUser_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockTodoRepo{})

	_, err := svc.GetUser(context.Background(), "missing")

	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Kind != model.KindNotFound {
		t.Errorf("kind = %v, want KindNotFound", appErr.Kind)
	}
}

func TestService_UpdateRole(t *testing.T) {
	t.Run("不正なロール", func(t *testing.T) {
		svc := NewService(&mockUserRepo{}, &mockTodoRepo{})

		_, err := svc.UpdateRole(context.Background(), "u1", "superuser")

		var appErr *model.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("error = %v, want AppError", err)
		}
		if appErr.Kind != model.KindValidation {
			t.Errorf("kind = %v, want KindValidation", appErr.Kind)
		}
	})

	t.Run("対象不在", func(t *testing.T) {
		repo := &mockUserRepo{
			updateRoleFn: func(ctx context.Context, id string, role model.Role) (bool, error) {
				return false, nil
			},
		}
		svc := NewService(repo, &mockTodoRepo{})

		_, err := svc.UpdateRole(context.Background(), "missing", model.RoleAdmin)

		var appErr *model.AppError
		if !errors.As(err, &appErr) {
			t.Fatalf("error = %v, want AppError", err)
		}
		if appErr.Kind != model.KindNotFound {
			t.Errorf("kind = %v, want KindNotFound", appErr.Kind)
		}
	})

	t.Run("成功時は更新後のユーザーを返す", func(t *testing.T) {
		repo := &mockUserRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return &model.User{ID: id, Role: model.RoleAdmin}, nil
			},
		}
		svc := NewService(repo, &mockTodoRepo{})

		user, err := svc.UpdateRole(context.Background(), "u1", model.RoleAdmin)
		if err != nil {
			t.Fatalf("UpdateRole() error = %v", err)
		}
		if user.Role != model.RoleAdmin {
			t.Errorf("role = %q, want %q", user.Role, model.RoleAdmin)
		}
	})
}

func TestService_DeleteUser_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, &mockTodoRepo{})

	err := svc.DeleteUser(context.Background(), "missing")

	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Kind != model.KindNotFound {
		t.Errorf("kind = %v, want KindNotFound", appErr.Kind)
	}
}

func TestService_GetStats(t *testing.T) {
	repo := &mockUserRepo{
		countAllFn: func(ctx context.Context) (int, error) { return 12, nil },
		countActiveSinceFn: func(ctx context.Context, since time.Time) (int, error) {
			// 直近7日間のアクティブユーザーを数える
			if time.Since(since) < 6*24*time.Hour || time.Since(since) > 8*24*time.Hour {
				t.Errorf("since = %v, want about 7 days ago", since)
			}
			return 5, nil
		},
		listRecentFn: func(ctx context.Context, limit int) ([]*model.User, error) {
			if limit != 5 {
				t.Errorf("recent users limit = %d, want 5", limit)
			}
			return []*model.User{{ID: "u1"}}, nil
		},
	}
	todoRepo := &mockTodoRepo{
		countAllFn: func(ctx context.Context, completedOnly bool) (int, error) {
			if completedOnly {
				return 10, nil
			}
			return 40, nil
		},
		listRecentFn: func(ctx context.Context, limit int) ([]repository.TodoWithOwner, error) {
			if limit != 10 {
				t.Errorf("recent todos limit = %d, want 10", limit)
			}
			return []repository.TodoWithOwner{
				{Todo: model.Todo{ID: "t1"}, Username: "tanaka"},
			}, nil
		},
	}
	svc := NewService(repo, todoRepo)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.TotalUsers != 12 || stats.TotalTodos != 40 || stats.CompletedTodos != 10 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.CompletionRate != 25.0 {
		t.Errorf("CompletionRate = %v, want 25.0", stats.CompletionRate)
	}
	if stats.ActiveUsers != 5 {
		t.Errorf("ActiveUsers = %d, want 5", stats.ActiveUsers)
	}
	if len(stats.RecentUsers) != 1 || len(stats.RecentTodos) != 1 {
		t.Errorf("recent lists = %d users / %d todos, want 1/1", len(stats.RecentUsers), len(stats.RecentTodos))
	}
}

func TestCompletionRate_ZeroTotal(t *testing.T) {
	if got := completionRate(0, 0); got != 0 {
		t.Errorf("completionRate(0, 0) = %v, want 0", got)
	}
}
