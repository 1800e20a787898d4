package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/foodapi/internal/model"
)

// PostgresResetRepo はPostgreSQLを使用したパスワードリセットチケットのリポジトリ。
type PostgresResetRepo struct {
	db *sql.DB
}

// NewPostgresResetRepo はPostgresResetRepoを生成する。
func NewPostgresResetRepo(db *sql.DB) *PostgresResetRepo {
	return &PostgresResetRepo{db: db}
}

// Create はチケットを保存し、採番されたIDを設定する。
func (r *PostgresResetRepo) Create(ctx context.Context, ticket *model.ResetTicket) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO password_resets (user_id, otp, expires_at, used)
		 VALUES ($1, $2, $3, FALSE)
		 RETURNING id`,
		ticket.UserID, ticket.Code, ticket.ExpiresAt,
	).Scan(&ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to insert password reset: %w", err)
	}
	return nil
}

// FindActiveByCode はexpires_atがnowより後で未使用のチケットを検索する。
// 複数該当した場合は最も新しく発行されたものを返す。
func (r *PostgresResetRepo) FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.ResetTicket, error) {
	t := &model.ResetTicket{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, otp, expires_at, used
		 FROM password_resets
		 WHERE otp = $1 AND used = FALSE AND expires_at > $2
		 ORDER BY id DESC
		 LIMIT 1`,
		code, now,
	).Scan(&t.ID, &t.UserID, &t.Code, &t.ExpiresAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find password reset: %w", err)
	}
	return t, nil
}

// Consume は未使用のチケットを使用済みにする。
// 条件付きUPDATEの影響行数で判定するため、並行した二重消費でもtrueは一度だけ返る。
func (r *PostgresResetRepo) Consume(ctx context.Context, userID int64, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET used = TRUE
		 WHERE user_id = $1 AND otp = $2 AND used = FALSE`,
		userID, code,
	)
	if err != nil {
		return false, fmt.Errorf("failed to consume password reset: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ResetRepository = (*PostgresResetRepo)(nil)
