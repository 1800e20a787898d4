// Package cart はカートとカート明細のドメインロジックを提供する。
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// UserFinder はユーザーの存在確認インターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// FoodFinder は料理の存在確認インターフェース。
type FoodFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Food, error)
}

// Service はカートのサービス層。
type Service struct {
	carts repository.CartRepository
	items repository.CartItemRepository
	users UserFinder
	foods FoodFinder
}

// NewService はServiceを生成する。
func NewService(carts repository.CartRepository, items repository.CartItemRepository, users UserFinder, foods FoodFinder) *Service {
	return &Service{carts: carts, items: items, users: users, foods: foods}
}

// Create はユーザーのカートを作成する。
func (s *Service) Create(ctx context.Context, userID int64) (*model.Cart, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if u == nil {
		return nil, model.NewParentNotFoundError("User", "user_id")
	}

	c := &model.Cart{UserID: userID}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return c, nil
}

// GetByUser はユーザーの最新のカートを取得する。
func (s *Service) GetByUser(ctx context.Context, userID int64) (*model.Cart, error) {
	c, err := s.carts.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("Cart")
	}
	return c, nil
}

// Get は指定IDのカートを取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.Cart, error) {
	c, err := s.carts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("Cart")
	}
	return c, nil
}

// Delete はカートを削除する。明細はスキーマのCASCADEで削除される。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("Cart")
		}
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// ListItems はカートの明細を取得する。
func (s *Service) ListItems(ctx context.Context, cartID int64) ([]*model.CartItem, error) {
	if _, err := s.Get(ctx, cartID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

// AddItem はカートに料理を追加する。同じ料理が既にあれば数量を加算する。
// quantityの省略時は1。
func (s *Service) AddItem(ctx context.Context, cartID int64, f input.Fields) (*model.CartItem, error) {
	if missing := f.Missing("food_id"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}
	foodID, _, err := f.Int64("food_id")
	if err != nil {
		return nil, model.NewNotNumericError("food_id")
	}
	quantity, err := parseQuantity(f, 1)
	if err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, cartID); err != nil {
		return nil, err
	}
	food, err := s.foods.FindByID(ctx, foodID)
	if err != nil {
		return nil, fmt.Errorf("failed to check food: %w", err)
	}
	if food == nil {
		return nil, model.NewParentNotFoundError("Food", "food_id")
	}

	item, err := s.items.AddOrIncrement(ctx, cartID, foodID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}
	return item, nil
}

// UpdateItemQuantity は明細の数量を変更する。
func (s *Service) UpdateItemQuantity(ctx context.Context, id int64, f input.Fields) (*model.CartItem, error) {
	if missing := f.Missing("quantity"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}
	quantity, err := parseQuantity(f, 0)
	if err != nil {
		return nil, err
	}

	item, err := s.itemWithParent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.items.UpdateQuantity(ctx, id, quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Cart item")
		}
		return nil, fmt.Errorf("failed to update quantity: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

// DeleteItem は明細を削除する。
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if _, err := s.itemWithParent(ctx, id); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("Cart item")
		}
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// Clear はカートの明細をすべて削除し、削除件数を返す。
func (s *Service) Clear(ctx context.Context, cartID int64) (int64, error) {
	if _, err := s.Get(ctx, cartID); err != nil {
		return 0, err
	}
	n, err := s.items.DeleteByCart(ctx, cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return n, nil
}

// itemWithParent は明細とその親カートの存在を確認する。
func (s *Service) itemWithParent(ctx context.Context, id int64) (*model.CartItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, model.NewNotFoundError("Cart item")
	}

	c, err := s.carts.FindByID(ctx, item.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("Parent cart")
	}
	return item, nil
}

// parseQuantity はquantityを正の整数として返す。未指定の場合はdefaultQtyを使う。
func parseQuantity(f input.Fields, defaultQty int) (int, error) {
	q, present, err := f.Int64("quantity")
	if err != nil {
		return 0, model.NewNotNumericError("quantity")
	}
	if !present {
		q = int64(defaultQty)
	}
	if q <= 0 {
		return 0, model.NewInvalidFieldError("quantity", "Quantity must be positive")
	}
	if q > 1_000_000 {
		return 0, model.NewInvalidFieldError("quantity", "Quantity is too large")
	}
	return int(q), nil
}
