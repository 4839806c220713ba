package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/todoman/internal/model"
)

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
// すべての読み書きは所有ユーザーIDでスコープされる。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

const todoColumns = `id, user_id, title, description, completed, due_date, reminder, priority, tags, created_at, updated_at`

// scanTodo は1行をmodel.Todoに読み込む。tagsはtext[]からスライスへ変換する。
func scanTodo(row interface{ Scan(...any) error }) (*model.Todo, error) {
	todo := &model.Todo{}
	err := row.Scan(
		&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Completed,
		&todo.DueDate, &todo.Reminder, &todo.Priority, pq.Array(&todo.Tags),
		&todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// FindByIDAndUser は指定IDかつ指定所有者のTodoを取得する。
// 他ユーザー所有のIDは存在しないものとして扱い、nilを返す。
func (r *PostgresTodoRepo) FindByIDAndUser(ctx context.Context, id, userID string) (*model.Todo, error) {
	todo, err := scanTodo(r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return todo, nil
}

// List は所有ユーザーのTodo一覧を検索・フィルタ・ソート・ページネーション付きで返す。
func (r *PostgresTodoRepo) List(ctx context.Context, userID string, q model.TodoListQuery) ([]*model.Todo, int, error) {
	where, orderBy, args := buildTodoListClauses(userID, q)

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM todos `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM todos %s %s LIMIT $%d OFFSET $%d`,
		todoColumns, where, orderBy, len(args)+1, len(args)+2,
	)
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*model.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, total, nil
}

// Create はTodoを作成する。
func (r *PostgresTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, user_id, title, description, completed, due_date, reminder, priority, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		todo.ID, todo.UserID, todo.Title, todo.Description, todo.Completed,
		todo.DueDate, todo.Reminder, todo.Priority, pq.Array(todo.Tags),
		todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// Update は所有者スコープでTodoを上書き更新する。
// WHERE句にuser_idを含めることで他ユーザーのTodoは決して更新されない。
func (r *PostgresTodoRepo) Update(ctx context.Context, todo *model.Todo) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE todos
		 SET title = $1, description = $2, completed = $3, due_date = $4,
		     reminder = $5, priority = $6, tags = $7, updated_at = $8
		 WHERE id = $9 AND user_id = $10`,
		todo.Title, todo.Description, todo.Completed, todo.DueDate,
		todo.Reminder, todo.Priority, pq.Array(todo.Tags), todo.UpdatedAt,
		todo.ID, todo.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteByIDAndUser は指定IDかつ指定所有者のTodoを削除する。
func (r *PostgresTodoRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountByUser は所有ユーザーのTodo数を返す。
func (r *PostgresTodoRepo) CountByUser(ctx context.Context, userID string, completedOnly bool) (int, error) {
	query := `SELECT count(*) FROM todos WHERE user_id = $1`
	if completedOnly {
		query += ` AND completed = TRUE`
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count todos by user: %w", err)
	}
	return count, nil
}

// CountAll は全Todo数を返す。
func (r *PostgresTodoRepo) CountAll(ctx context.Context, completedOnly bool) (int, error) {
	query := `SELECT count(*) FROM todos`
	if completedOnly {
		query += ` WHERE completed = TRUE`
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return count, nil
}

// ListRecent は作成日時の降順で直近のTodoを所有者名付きで返す。
func (r *PostgresTodoRepo) ListRecent(ctx context.Context, limit int) ([]TodoWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.title, t.description, t.completed, t.due_date,
		        t.reminder, t.priority, t.tags, t.created_at, t.updated_at, u.username
		 FROM todos t
		 JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent todos: %w", err)
	}
	defer rows.Close()

	var todos []TodoWithOwner
	for rows.Next() {
		var t TodoWithOwner
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.DueDate,
			&t.Reminder, &t.Priority, pq.Array(&t.Tags), &t.CreatedAt, &t.UpdatedAt,
			&t.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
