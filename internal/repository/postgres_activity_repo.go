package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

// PostgresActivityLogRepo はPostgreSQLを使用した操作ログリポジトリ。
type PostgresActivityLogRepo struct {
	db *sql.DB
}

// NewPostgresActivityLogRepo はPostgresActivityLogRepoを生成する。
func NewPostgresActivityLogRepo(db *sql.DB) *PostgresActivityLogRepo {
	return &PostgresActivityLogRepo{db: db}
}

// Create は操作ログを1件記録する。
func (r *PostgresActivityLogRepo) Create(ctx context.Context, userID int64, role model.Role, activity string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, role, activity) VALUES ($1, $2, $3)`,
		userID, string(role), activity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// List は新しい順に最大limit件を返す。
func (r *PostgresActivityLogRepo) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, role, activity, created_at
		 FROM activity_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	logs := []*model.ActivityLog{}
	for rows.Next() {
		l := &model.ActivityLog{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Role, &l.Activity, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity logs: %w", err)
	}
	return logs, nil
}

// compile-time interface check
var _ ActivityLogRepository = (*PostgresActivityLogRepo)(nil)
