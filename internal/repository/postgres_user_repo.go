package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

const userColumns = `user_id, role, username, email, profile_image, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func scanUser(row interface{ Scan(...any) error }, withHash bool) (*model.User, error) {
	u := &model.User{}
	dest := []any{&u.ID, &u.Role, &u.Username, &u.Email, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt}
	if withHash {
		dest = append(dest, &u.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg), false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := r.findOne(ctx, "user_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByUsername はユーザー名でユーザーを取得する。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := r.findOne(ctx, "username = $1", username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindByLogin はユーザー名またはメールアドレスで1件検索し、パスワードハッシュを含めて返す。
func (r *PostgresUserRepo) FindByLogin(ctx context.Context, identifier string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY user_id LIMIT 1`,
		identifier,
	), true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by login: %w", err)
	}
	return user, nil
}

// FindPasswordHash は指定ユーザーのパスワードハッシュを返す。見つからない場合は空文字を返す。
func (r *PostgresUserRepo) FindPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE user_id = $1`, id,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find password hash: %w", err)
	}
	return hash, nil
}

// List は全ユーザーを新しい順に返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY user_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (role, username, email, password_hash, profile_image)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING user_id, created_at, updated_at`,
		string(user.Role), user.Username, user.Email, user.PasswordHash, user.ProfileImage,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", translateError(err))
	}
	return nil
}

// Update はpatchの非nilフィールドのみを更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, id int64, patch model.UserPatch) error {
	var b setBuilder
	if patch.Role != nil {
		b.add("role", string(*patch.Role))
	}
	if patch.Username != nil {
		b.add("username", *patch.Username)
	}
	if patch.Email != nil {
		b.add("email", *patch.Email)
	}
	if patch.ProfileImage != nil {
		b.add("profile_image", *patch.ProfileImage)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("users", "user_id", id, "updated_at = now()")
	return execAffectingOne(ctx, r.db, "update user", query, args...)
}

// UpdatePasswordHash はパスワードハッシュを置き換える。
func (r *PostgresUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return execAffectingOne(ctx, r.db, "update password hash",
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE user_id = $2`, hash, id)
}

// Delete はユーザーを削除する。
// 関連するaddresses、carts、orders、notifications、password_resetsはCASCADE削除される。
func (r *PostgresUserRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete user", `DELETE FROM users WHERE user_id = $1`, id)
}

// execAffectingOne は更新・削除を実行し、対象行が無ければErrNotFoundを返す。
func execAffectingOne(ctx context.Context, db *sql.DB, action, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, translateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("failed to %s: %w", action, ErrNotFound)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
