// Package order は注文・注文明細・支払い・配達のドメインロジックを提供する。
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// UserFinder はユーザーの存在確認インターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// AddressFinder は住所の存在確認インターフェース。
type AddressFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Address, error)
}

// FoodFinder は料理の存在確認インターフェース。
type FoodFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Food, error)
}

// Repositories は注文サービスが使う永続化層の組。
type Repositories struct {
	Orders     repository.OrderRepository
	Items      repository.OrderItemRepository
	Payments   repository.PaymentRepository
	Deliveries repository.DeliveryRepository
	Users      UserFinder
	Addresses  AddressFinder
	Foods      FoodFinder
}

// Service は注文のサービス層。
type Service struct {
	orders     repository.OrderRepository
	items      repository.OrderItemRepository
	payments   repository.PaymentRepository
	deliveries repository.DeliveryRepository
	users      UserFinder
	addresses  AddressFinder
	foods      FoodFinder
}

// NewService はServiceを生成する。
func NewService(repos Repositories) *Service {
	return &Service{
		orders:     repos.Orders,
		items:      repos.Items,
		payments:   repos.Payments,
		deliveries: repos.Deliveries,
		users:      repos.Users,
		addresses:  repos.Addresses,
		foods:      repos.Foods,
	}
}

// Create は注文ヘッダーを作成する。明細は別途AddItemで追加する。
// 必須: user_id, address_id, total_amount。delivery_feeの省略時は0、statusの省略時はpending。
func (s *Service) Create(ctx context.Context, f input.Fields) (*model.Order, error) {
	if missing := f.Missing("user_id", "address_id", "total_amount"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	userID, err := requireID(f, "user_id")
	if err != nil {
		return nil, err
	}
	addressID, err := requireID(f, "address_id")
	if err != nil {
		return nil, err
	}
	total, err := parseAmount(f, "total_amount", "Total amount")
	if err != nil {
		return nil, err
	}
	fee, err := parseAmount(f, "delivery_fee", "Delivery fee")
	if err != nil {
		return nil, err
	}
	if fee == nil {
		zero := input.FormatMoney(0)
		fee = &zero
	}
	status := model.OrderStatusPending
	if f.Has("status") {
		v := f.String("status")
		if !slices.Contains(model.OrderStatuses, v) {
			return nil, model.NewInvalidStatusError(model.OrderStatuses)
		}
		status = model.OrderStatus(v)
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if u == nil {
		return nil, model.NewParentNotFoundError("User", "user_id")
	}
	a, err := s.addresses.FindByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to check address: %w", err)
	}
	if a == nil {
		return nil, model.NewParentNotFoundError("Address", "address_id")
	}

	o := &model.Order{
		UserID:      userID,
		AddressID:   addressID,
		Status:      status,
		TotalAmount: *total,
		DeliveryFee: *fee,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	slog.Info("order created",
		slog.Int64("order_id", o.ID),
		slog.Int64("user_id", userID),
	)
	return o, nil
}

// Get は指定IDの注文を取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return nil, model.NewNotFoundError("Order")
	}
	return o, nil
}

// ListByUser はユーザーの注文を新しい順に取得する。
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus は注文ステータスを変更する。
func (s *Service) UpdateStatus(ctx context.Context, id int64, f input.Fields) (*model.Order, error) {
	if missing := f.Missing("status"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}
	status := f.String("status")
	if !slices.Contains(model.OrderStatuses, status) {
		return nil, model.NewInvalidStatusError(model.OrderStatuses)
	}

	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, model.OrderStatus(status)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Order")
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	o.Status = model.OrderStatus(status)
	return o, nil
}

// ListItems は注文の明細を取得する。
func (s *Service) ListItems(ctx context.Context, orderID int64) ([]*model.OrderItem, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

// AddItem は注文に明細を追加する。必須: food_id, quantity, price。
func (s *Service) AddItem(ctx context.Context, orderID int64, f input.Fields) (*model.OrderItem, error) {
	if missing := f.Missing("food_id", "quantity", "price"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	foodID, err := requireID(f, "food_id")
	if err != nil {
		return nil, err
	}
	quantity, _, err := f.Int64("quantity")
	if err != nil {
		return nil, model.NewNotNumericError("quantity")
	}
	if quantity <= 0 {
		return nil, model.NewInvalidFieldError("quantity", "Quantity must be positive")
	}
	if quantity > 1_000_000 {
		return nil, model.NewInvalidFieldError("quantity", "Quantity is too large")
	}
	price, err := parseAmount(f, "price", "Price")
	if err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	food, err := s.foods.FindByID(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("failed to check food: %w", err)
	}
	if food == nil {
		return nil, model.NewParentNotFoundError("Food", "food_id")
	}

	item := &model.OrderItem{
		OrderID:  orderID,
		FoodID:   foodID,
		Quantity: int(quantity),
		Price:    *price,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add order item: %w", err)
	}
	return item, nil
}

// requireID は必須のID項目を整数として返す。
func requireID(f input.Fields, key string) (int64, error) {
	id, _, err := f.Int64(key)
	if err != nil {
		return 0, model.NewNotNumericError(key)
	}
	return id, nil
}

// parseAmount は金額項目を小数点以下2桁に正規化して返す。未指定の場合はnil。
func parseAmount(f input.Fields, key, label string) (*model.Money, error) {
	m, present, err := f.Money(key)
	if !present {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewInvalidFieldError(key, label+" must be a numeric value")
	}
	if v, _ := input.ParseMoney(m); v < 0 {
		return nil, model.NewInvalidFieldError(key, label+" must not be negative")
	}
	return &m, nil
}
