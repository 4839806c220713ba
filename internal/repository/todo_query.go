package repository

import (
	"fmt"
	"strings"

	"github.com/hitoshi/todoman/internal/model"
)

// todoSortColumns はAPIのソートキーから実カラム名への許可リスト。
// マップにないキーはcreated_atへフォールバックし、SQLへ素通しされることはない。
var todoSortColumns = map[string]string{
	"createdAt": "created_at",
	"title":     "title",
	"updatedAt": "updated_at",
}

// likePattern は検索語をILIKEの部分一致パターンへ変換する。
// パターンメタ文字はリテラルとして扱うためエスケープする。
func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(search)
	return "%" + escaped + "%"
}

// buildTodoListClauses は一覧取得クエリのWHERE句・ORDER BY句と
// バインド引数を構築する。所有ユーザーIDのフィルタは常に含まれる。
// ソートキーは単一で、同値の並びはストレージ順に任せる。
func buildTodoListClauses(userID string, q model.TodoListQuery) (where, orderBy string, args []any) {
	conds := []string{"user_id = $1"}
	args = []any{userID}

	if q.Search != "" {
		args = append(args, likePattern(q.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	switch q.Status {
	case model.TodoStatusCompleted:
		conds = append(conds, "completed = TRUE")
	case model.TodoStatusPending:
		conds = append(conds, "completed = FALSE")
	}

	column, ok := todoSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		direction = "ASC"
	}

	where = "WHERE " + strings.Join(conds, " AND ")
	orderBy = fmt.Sprintf("ORDER BY %s %s", column, direction)
	return where, orderBy, args
}
