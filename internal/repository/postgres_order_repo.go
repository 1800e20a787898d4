package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

const orderColumns = `id, user_id, address_id, status, total_amount, delivery_fee, created_at`

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.TotalAmount, &o.DeliveryFee, &o.CreatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

// Create は注文を作成する。
func (r *PostgresOrderRepo) Create(ctx context.Context, o *model.Order) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, address_id, status, total_amount, delivery_fee)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		o.UserID, o.AddressID, string(o.Status), string(o.TotalAmount), string(o.DeliveryFee),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return o, nil
}

// ListByUser はユーザーの注文を新しい順に返す。
func (r *PostgresOrderRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus は注文ステータスを更新する。
func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	return execAffectingOne(ctx, r.db, "update order status",
		`UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
}

// PostgresOrderItemRepo はPostgreSQLを使用した注文明細リポジトリ。
type PostgresOrderItemRepo struct {
	db *sql.DB
}

// NewPostgresOrderItemRepo はPostgresOrderItemRepoを生成する。
func NewPostgresOrderItemRepo(db *sql.DB) *PostgresOrderItemRepo {
	return &PostgresOrderItemRepo{db: db}
}

// Create は注文明細を作成する。
func (r *PostgresOrderItemRepo) Create(ctx context.Context, it *model.OrderItem) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO order_items (order_id, food_id, quantity, price)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		it.OrderID, it.FoodID, it.Quantity, string(it.Price),
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

// ListByOrder は注文の明細を返す。
func (r *PostgresOrderItemRepo) ListByOrder(ctx context.Context, orderID int64) ([]*model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, food_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []*model.OrderItem{}
	for rows.Next() {
		it := &model.OrderItem{}
		if err := rows.Scan(&it.ID, &it.OrderID, &it.FoodID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return items, nil
}

const paymentColumns = `id, order_id, amount, method, status, transaction_ref, created_at`

// PostgresPaymentRepo はPostgreSQLを使用した支払いリポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.TransactionRef, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// Create は支払いを作成する。
func (r *PostgresPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO payments (order_id, amount, method, status, transaction_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.OrderID, string(p.Amount), p.Method, p.Status, p.TransactionRef,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// FindByID は指定IDの支払いを取得する。見つからない場合はnilを返す。
func (r *PostgresPaymentRepo) FindByID(ctx context.Context, id int64) (*model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment by ID: %w", err)
	}
	return p, nil
}

// ListByOrder は注文の支払いを新しい順に返す。
func (r *PostgresPaymentRepo) ListByOrder(ctx context.Context, orderID int64) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY id DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// UpdateStatus は支払いステータスを更新する。
func (r *PostgresPaymentRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return execAffectingOne(ctx, r.db, "update payment status",
		`UPDATE payments SET status = $1 WHERE id = $2`, status, id)
}

const deliveryColumns = `id, order_id, delivery_person_name, delivery_person_phone, status`

// PostgresDeliveryRepo はPostgreSQLを使用した配達リポジトリ。
type PostgresDeliveryRepo struct {
	db *sql.DB
}

// NewPostgresDeliveryRepo はPostgresDeliveryRepoを生成する。
func NewPostgresDeliveryRepo(db *sql.DB) *PostgresDeliveryRepo {
	return &PostgresDeliveryRepo{db: db}
}

func (r *PostgresDeliveryRepo) findOne(ctx context.Context, action, where string, arg any) (*model.Delivery, error) {
	d := &model.Delivery{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM delivery WHERE `+where+` ORDER BY id DESC LIMIT 1`, arg,
	).Scan(&d.ID, &d.OrderID, &d.PersonName, &d.PersonPhone, &d.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return d, nil
}

// Create は配達を作成する。
func (r *PostgresDeliveryRepo) Create(ctx context.Context, d *model.Delivery) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO delivery (order_id, delivery_person_name, delivery_person_phone, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		d.OrderID, d.PersonName, d.PersonPhone, d.Status,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to insert delivery: %w", err)
	}
	return nil
}

// FindByID は指定IDの配達を取得する。見つからない場合はnilを返す。
func (r *PostgresDeliveryRepo) FindByID(ctx context.Context, id int64) (*model.Delivery, error) {
	return r.findOne(ctx, "find delivery by ID", "id = $1", id)
}

// FindByOrder は注文の最新の配達を返す。
func (r *PostgresDeliveryRepo) FindByOrder(ctx context.Context, orderID int64) (*model.Delivery, error) {
	return r.findOne(ctx, "find delivery by order", "order_id = $1", orderID)
}

// UpdateStatus は配達ステータスを更新する。
func (r *PostgresDeliveryRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return execAffectingOne(ctx, r.db, "update delivery status",
		`UPDATE delivery SET status = $1 WHERE id = $2`, status, id)
}

// compile-time interface check
var (
	_ OrderRepository     = (*PostgresOrderRepo)(nil)
	_ OrderItemRepository = (*PostgresOrderItemRepo)(nil)
	_ PaymentRepository   = (*PostgresPaymentRepo)(nil)
	_ DeliveryRepository  = (*PostgresDeliveryRepo)(nil)
)
