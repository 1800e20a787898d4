// Package cleanup はパスワードリセットコードの定期削除ジョブを提供する。
// 使用済みまたは期限切れのコードを、保持期間の経過後に削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays は期限切れ・使用済みコードを残しておく日数のデフォルト値。
const DefaultRetentionDays = 7

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は不要になったリセットコードの削除ジョブ。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: DefaultRetentionDays,
	}
}

const purgeQuery = `DELETE FROM password_resets
WHERE (used = TRUE OR expires_at < now())
  AND created_at < now() - $1::interval`

// Run は保持期間を過ぎた使用済み・期限切れのリセットコードを削除し、削除件数を返す。
// 削除対象がない場合もエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	days := j.RetentionDays
	if days < 0 {
		days = 0
	}
	interval := fmt.Sprintf("%d days", days)

	result, err := j.db.ExecContext(ctx, purgeQuery, interval)
	if err != nil {
		j.logger.Error("password reset purge failed",
			slog.String("error", err.Error()),
			slog.Int("retention_days", days),
		)
		return 0, fmt.Errorf("failed to purge password resets: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("failed to read purged row count",
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("failed to read purged row count: %w", err)
	}

	j.logger.Info("password reset purge completed",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", days),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return deleted, nil
}
