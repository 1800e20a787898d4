package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

const managerColumns = `id, name, email, phone, created_at`

// PostgresManagerRepo はPostgreSQLを使用したマネージャーリポジトリ。
type PostgresManagerRepo struct {
	db *sql.DB
}

// NewPostgresManagerRepo はPostgresManagerRepoを生成する。
func NewPostgresManagerRepo(db *sql.DB) *PostgresManagerRepo {
	return &PostgresManagerRepo{db: db}
}

func scanManager(row interface{ Scan(...any) error }, withHash bool) (*model.Manager, error) {
	m := &model.Manager{}
	dest := []any{&m.ID, &m.Name, &m.Email, &m.Phone, &m.CreatedAt}
	if withHash {
		dest = append(dest, &m.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresManagerRepo) findOne(ctx context.Context, action, where string, arg any) (*model.Manager, error) {
	m, err := scanManager(r.db.QueryRowContext(ctx,
		`SELECT `+managerColumns+` FROM managers WHERE `+where+` LIMIT 1`, arg), false)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return m, nil
}

// FindByID は指定IDのマネージャーを取得する。見つからない場合はnilを返す。
func (r *PostgresManagerRepo) FindByID(ctx context.Context, id int64) (*model.Manager, error) {
	return r.findOne(ctx, "find manager by ID", "id = $1", id)
}

// FindByEmail はメールアドレスでマネージャーを取得する。
func (r *PostgresManagerRepo) FindByEmail(ctx context.Context, email string) (*model.Manager, error) {
	return r.findOne(ctx, "find manager by email", "email = $1", email)
}

// FindByName は名前でマネージャーを取得する。
func (r *PostgresManagerRepo) FindByName(ctx context.Context, name string) (*model.Manager, error) {
	return r.findOne(ctx, "find manager by name", "name = $1", name)
}

// FindByLogin は名前またはメールアドレスで1件検索し、パスワードハッシュを含めて返す。
func (r *PostgresManagerRepo) FindByLogin(ctx context.Context, identifier string) (*model.Manager, error) {
	m, err := scanManager(r.db.QueryRowContext(ctx,
		`SELECT `+managerColumns+`, password_hash FROM managers
		 WHERE name = $1 OR email = $1
		 ORDER BY id LIMIT 1`,
		identifier,
	), true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find manager by login: %w", err)
	}
	return m, nil
}

// List は全マネージャーを新しい順に返す。
func (r *PostgresManagerRepo) List(ctx context.Context) ([]*model.Manager, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+managerColumns+` FROM managers ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	managers := []*model.Manager{}
	for rows.Next() {
		m, err := scanManager(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		managers = append(managers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate managers: %w", err)
	}
	return managers, nil
}

// Create はマネージャーを作成する。
func (r *PostgresManagerRepo) Create(ctx context.Context, m *model.Manager) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO managers (name, email, password_hash, phone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		m.Name, m.Email, m.PasswordHash, m.Phone,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert manager: %w", translateError(err))
	}
	return nil
}

// Update はpatchの非nilフィールドのみを更新する。
func (r *PostgresManagerRepo) Update(ctx context.Context, id int64, patch model.ManagerPatch) error {
	var b setBuilder
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.Email != nil {
		b.add("email", *patch.Email)
	}
	if patch.Phone != nil {
		b.add("phone", *patch.Phone)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("managers", "id", id)
	return execAffectingOne(ctx, r.db, "update manager", query, args...)
}

// UpdatePasswordHash はパスワードハッシュを置き換える。
func (r *PostgresManagerRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return execAffectingOne(ctx, r.db, "update manager password hash",
		`UPDATE managers SET password_hash = $1 WHERE id = $2`, hash, id)
}

// Delete はマネージャーを削除する。
func (r *PostgresManagerRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete manager", `DELETE FROM managers WHERE id = $1`, id)
}

// compile-time interface check
var _ ManagerRepository = (*PostgresManagerRepo)(nil)
