// Package model はドメインモデルを定義する。
package model

import "time"

// Priority はTodoの優先度を表す。
type Priority string

const (
	// PriorityLow は低優先度。
	PriorityLow Priority = "low"
	// PriorityMedium は中優先度（デフォルト）。
	PriorityMedium Priority = "medium"
	// PriorityHigh は高優先度。
	PriorityHigh Priority = "high"
)

// IsValid は優先度が定義済みの値かどうかを返す。
func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Todo はユーザーが所有するTodo項目を表す。
// UserIDは作成時に確定し、以後変更されない。
// 取得・更新・削除は常に所有ユーザーIDでスコープされたクエリを通して行う。
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
	Reminder    *time.Time
	Priority    Priority
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoStatusFilter は一覧取得時の完了状態フィルタを表す。
type TodoStatusFilter string

const (
	// TodoStatusAll は全件を表示するフィルタ。
	TodoStatusAll TodoStatusFilter = "all"
	// TodoStatusCompleted は完了済みのみを表示するフィルタ。
	TodoStatusCompleted TodoStatusFilter = "completed"
	// TodoStatusPending は未完了のみを表示するフィルタ。
	TodoStatusPending TodoStatusFilter = "pending"
)

// IsValid はフィルタが定義済みの値かどうかを返す。
func (f TodoStatusFilter) IsValid() bool {
	return f == TodoStatusAll || f == TodoStatusCompleted || f == TodoStatusPending
}

// TodoListQuery は一覧取得の検索・フィルタ・ソート・ページネーション条件を表す。
type TodoListQuery struct {
	Page      int
	Limit     int
	Search    string
	Status    TodoStatusFilter
	SortBy    string // createdAt, title, updatedAt のいずれか
	SortOrder string // asc または desc
}

// Offset はOFFSET句に渡す値を返す。
func (q TodoListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
