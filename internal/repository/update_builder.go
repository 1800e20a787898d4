package repository

import (
	"fmt"
	"strings"
)

// setBuilder は部分更新用のSET句を組み立てる。
// 列名はリポジトリ内の固定値のみを渡すこと。
type setBuilder struct {
	cols []string
	args []any
}

func (b *setBuilder) add(col string, value any) {
	b.cols = append(b.cols, col)
	b.args = append(b.args, value)
}

func (b *setBuilder) empty() bool {
	return len(b.cols) == 0
}

// build は "UPDATE table SET a = $1, b = $2[, extra] WHERE key = $n" を生成する。
// extraには "updated_at = now()" のような引数を取らない代入を指定する。
func (b *setBuilder) build(table, keyCol string, id int64, extra ...string) (string, []any) {
	sets := make([]string, 0, len(b.cols)+len(extra))
	for i, col := range b.cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	sets = append(sets, extra...)

	args := append(append([]any{}, b.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(sets, ", "), keyCol, len(args))
	return query, args
}
