// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// username/emailの一意制約違反はmodel.KindConflictのAppErrorとして返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はusername・email・updated_atを更新する。
	// 一意制約違反はmodel.KindConflictのAppErrorとして返す。
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdateRole は指定ユーザーのロールを更新する。
	// 対象が存在しない場合は更新せずfalseを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (bool, error)

	// UpdateLastLogin はログイン成功時刻を記録する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// List はユーザー一覧をusername/emailの部分一致検索付きで返す。
	// 作成日時の降順で、ページ分の行と検索条件に一致する総数を返す。
	List(ctx context.Context, search string, offset, limit int) ([]*model.User, int, error)

	// ListRecent は作成日時の降順で直近のユーザーを返す。
	ListRecent(ctx context.Context, limit int) ([]*model.User, error)

	// CountAll は全ユーザー数を返す。
	CountAll(ctx context.Context) (int, error)

	// CountActiveSince はlast_loginが指定時刻以降のユーザー数を返す。
	CountActiveSince(ctx context.Context, since time.Time) (int, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 所有するtodosは外部キーのCASCADEで削除される。
	// 対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// TodoWithOwner はTodoと所有者のユーザー名を結合した構造体。
// 管理者向け統計のrecent todos表示で使用する。
type TodoWithOwner struct {
	model.Todo
	Username string
}

// TodoRepository はTodoデータの永続化インターフェース。
// 一覧・取得・更新・削除はすべて所有ユーザーIDでスコープする。
type TodoRepository interface {
	// FindByIDAndUser は指定IDかつ指定所有者のTodoを取得する。
	// 見つからない（他ユーザー所有を含む）場合はnilを返す。
	FindByIDAndUser(ctx context.Context, id, userID string) (*model.Todo, error)

	// List は所有ユーザーのTodo一覧を検索・フィルタ・ソート・
	// ページネーション付きで返す。ページ分の行と条件一致総数を返す。
	List(ctx context.Context, userID string, q model.TodoListQuery) ([]*model.Todo, int, error)

	// Create はTodoを作成する。
	Create(ctx context.Context, todo *model.Todo) error

	// Update は所有者スコープでTodoを上書き更新する。
	// 対象が存在しない場合は更新せずfalseを返す。
	Update(ctx context.Context, todo *model.Todo) (bool, error)

	// DeleteByIDAndUser は指定IDかつ指定所有者のTodoを削除する。
	// 対象が存在しない場合はfalseを返す。
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)

	// CountByUser は所有ユーザーのTodo数を返す。completedOnlyがtrueの
	// 場合は完了済みのみを数える。
	CountByUser(ctx context.Context, userID string, completedOnly bool) (int, error)

	// CountAll は全Todo数を返す。completedOnlyがtrueの場合は完了済みのみ。
	CountAll(ctx context.Context, completedOnly bool) (int, error)

	// ListRecent は作成日時の降順で直近のTodoを所有者名付きで返す。
	ListRecent(ctx context.Context, limit int) ([]TodoWithOwner, error)
}
