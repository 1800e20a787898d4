package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// Create はカートを作成する。
func (r *PostgresCartRepo) Create(ctx context.Context, c *model.Cart) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO carts (user_id) VALUES ($1) RETURNING id, created_at`,
		c.UserID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cart: %w", err)
	}
	return nil
}

func (r *PostgresCartRepo) findOne(ctx context.Context, action, query string, arg any) (*model.Cart, error) {
	c := &model.Cart{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return c, nil
}

// FindByID は指定IDのカートを取得する。見つからない場合はnilを返す。
func (r *PostgresCartRepo) FindByID(ctx context.Context, id int64) (*model.Cart, error) {
	return r.findOne(ctx, "find cart by ID",
		`SELECT id, user_id, created_at FROM carts WHERE id = $1`, id)
}

// FindLatestByUser はユーザーの最も新しいカートを返す。
func (r *PostgresCartRepo) FindLatestByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	return r.findOne(ctx, "find cart by user",
		`SELECT id, user_id, created_at FROM carts WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, userID)
}

// Delete はカートを削除する。明細はCASCADE削除される。
func (r *PostgresCartRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete cart", `DELETE FROM carts WHERE id = $1`, id)
}

// PostgresCartItemRepo はPostgreSQLを使用したカート明細リポジトリ。
type PostgresCartItemRepo struct {
	db *sql.DB
}

// NewPostgresCartItemRepo はPostgresCartItemRepoを生成する。
func NewPostgresCartItemRepo(db *sql.DB) *PostgresCartItemRepo {
	return &PostgresCartItemRepo{db: db}
}

// ListByCart はカートの明細を追加順に返す。
func (r *PostgresCartItemRepo) ListByCart(ctx context.Context, cartID int64) ([]*model.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cart_id, food_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY id`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*model.CartItem{}
	for rows.Next() {
		it := &model.CartItem{}
		if err := rows.Scan(&it.ID, &it.CartID, &it.FoodID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}
	return items, nil
}

// FindByID は指定IDの明細を取得する。見つからない場合はnilを返す。
func (r *PostgresCartItemRepo) FindByID(ctx context.Context, id int64) (*model.CartItem, error) {
	it := &model.CartItem{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, cart_id, food_id, quantity FROM cart_items WHERE id = $1`, id,
	).Scan(&it.ID, &it.CartID, &it.FoodID, &it.Quantity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart item by ID: %w", err)
	}
	return it, nil
}

// AddOrIncrement は明細を追加する。同じ料理が既にあれば数量を加算する。
// (cart_id, food_id)の一意制約によるUPSERTのため、並行追加でも明細は1行にまとまる。
func (r *PostgresCartItemRepo) AddOrIncrement(ctx context.Context, cartID, foodID int64, quantity int) (*model.CartItem, error) {
	it := &model.CartItem{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (cart_id, food_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, food_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, cart_id, food_id, quantity`,
		cartID, foodID, quantity,
	).Scan(&it.ID, &it.CartID, &it.FoodID, &it.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return it, nil
}

// UpdateQuantity は明細の数量を更新する。
func (r *PostgresCartItemRepo) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	return execAffectingOne(ctx, r.db, "update cart item",
		`UPDATE cart_items SET quantity = $1 WHERE id = $2`, quantity, id)
}

// Delete は明細を削除する。
func (r *PostgresCartItemRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete cart item", `DELETE FROM cart_items WHERE id = $1`, id)
}

// DeleteByCart はカートの全明細を削除し、削除件数を返す。
func (r *PostgresCartItemRepo) DeleteByCart(ctx context.Context, cartID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var (
	_ CartRepository     = (*PostgresCartRepo)(nil)
	_ CartItemRepository = (*PostgresCartItemRepo)(nil)
)
