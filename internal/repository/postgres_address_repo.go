package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

const addressColumns = `id, user_id, name, contact_number, address_line, landmark, latitude, longitude, is_default, created_at`

// PostgresAddressRepo はPostgreSQLを使用した住所リポジトリ。
type PostgresAddressRepo struct {
	db *sql.DB
}

// NewPostgresAddressRepo はPostgresAddressRepoを生成する。
func NewPostgresAddressRepo(db *sql.DB) *PostgresAddressRepo {
	return &PostgresAddressRepo{db: db}
}

func scanAddress(row interface{ Scan(...any) error }) (*model.Address, error) {
	a := &model.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.ContactNumber, &a.AddressLine,
		&a.Landmark, &a.Latitude, &a.Longitude, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresAddressRepo) list(ctx context.Context, query string, args ...any) ([]*model.Address, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*model.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate addresses: %w", err)
	}
	return addresses, nil
}

// List は全住所をデフォルト優先・新しい順に返す。
func (r *PostgresAddressRepo) List(ctx context.Context) ([]*model.Address, error) {
	return r.list(ctx, `SELECT `+addressColumns+` FROM addresses ORDER BY is_default DESC, id DESC`)
}

// ListByUser はユーザーの住所をデフォルト優先・新しい順に返す。
func (r *PostgresAddressRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Address, error) {
	return r.list(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, id DESC`, userID)
}

// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByID(ctx context.Context, id int64) (*model.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find address by ID: %w", err)
	}
	return a, nil
}

// Create は住所を作成する。
func (r *PostgresAddressRepo) Create(ctx context.Context, a *model.Address) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, name, contact_number, address_line, landmark, latitude, longitude, is_default)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		a.UserID, a.Name, a.ContactNumber, a.AddressLine, a.Landmark, a.Latitude, a.Longitude, a.IsDefault,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}
	return nil
}

// Update はpatchの非nilフィールドのみを更新する。
func (r *PostgresAddressRepo) Update(ctx context.Context, id int64, patch model.AddressPatch) error {
	var b setBuilder
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.ContactNumber != nil {
		b.add("contact_number", *patch.ContactNumber)
	}
	if patch.AddressLine != nil {
		b.add("address_line", *patch.AddressLine)
	}
	if patch.Landmark != nil {
		b.add("landmark", *patch.Landmark)
	}
	if patch.Latitude != nil {
		b.add("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		b.add("longitude", *patch.Longitude)
	}
	if patch.IsDefault != nil {
		b.add("is_default", *patch.IsDefault)
	}
	if b.empty() {
		return nil
	}
	query, args := b.build("addresses", "id", id)
	return execAffectingOne(ctx, r.db, "update address", query, args...)
}

// Delete は住所を削除する。
func (r *PostgresAddressRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete address", `DELETE FROM addresses WHERE id = $1`, id)
}

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Create は通知を作成する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, title, message, is_read)
		 VALUES ($1, $2, $3, FALSE)
		 RETURNING id, created_at`,
		n.UserID, n.Title, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// FindByID は指定IDの通知を取得する。見つからない場合はnilを返す。
func (r *PostgresNotificationRepo) FindByID(ctx context.Context, id int64) (*model.Notification, error) {
	n := &model.Notification{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, message, is_read, created_at FROM notifications WHERE id = $1`, id,
	).Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification by ID: %w", err)
	}
	return n, nil
}

// ListByUser はユーザーの通知を新しい順に返す。
func (r *PostgresNotificationRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, is_read, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		n := &model.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead は通知を既読にする。
func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "mark notification read",
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
}

// compile-time interface check
var (
	_ AddressRepository      = (*PostgresAddressRepo)(nil)
	_ NotificationRepository = (*PostgresNotificationRepo)(nil)
)
