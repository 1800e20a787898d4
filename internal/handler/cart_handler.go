package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	Create(ctx context.Context, userID int64) (*model.Cart, error)
	GetByUser(ctx context.Context, userID int64) (*model.Cart, error)
	Delete(ctx context.Context, id int64) error
	ListItems(ctx context.Context, cartID int64) ([]*model.CartItem, error)
	AddItem(ctx context.Context, cartID int64, f input.Fields) (*model.CartItem, error)
	UpdateItemQuantity(ctx context.Context, id int64, f input.Fields) (*model.CartItem, error)
	DeleteItem(ctx context.Context, id int64) error
	Clear(ctx context.Context, cartID int64) (int64, error)
}

// CartHandler はカートとカート内商品のHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// Create は POST /v1/users/{userId}/cart を処理する。
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	c, err := h.service.Create(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, "create cart", err)
		return
	}
	writeSuccess(w, "cart", c, "Cart created")
}

// GetByUser は GET /v1/users/{userId}/cart を処理する。最新のカートを返す。
func (h *CartHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	c, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, "get cart", err)
		return
	}
	writeSuccess(w, "cart", c, "")
}

// Delete は DELETE /v1/carts/{id} を処理する。
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete cart", err)
		return
	}
	writeSuccess(w, "", nil, "Cart deleted")
}

// ListItems は GET /v1/carts/{cartId}/items を処理する。
func (h *CartHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "cartId")
	if !ok {
		return
	}
	items, err := h.service.ListItems(r.Context(), cartID)
	if err != nil {
		handleServiceError(w, r, "list cart items", err)
		return
	}
	writeList(w, "items", items, "Cart is empty")
}

// AddItem は POST /v1/carts/{cartId}/items を処理する。
// 同じ料理が既にある場合は数量を加算する。
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "cartId")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	item, err := h.service.AddItem(r.Context(), cartID, f)
	if err != nil {
		handleServiceError(w, r, "add item", err)
		return
	}
	writeSuccess(w, "item", item, "Item added to cart")
}

// Clear は DELETE /v1/carts/{cartId}/items を処理する。
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cartID, ok := pathID(w, r, "cartId")
	if !ok {
		return
	}
	n, err := h.service.Clear(r.Context(), cartID)
	if err != nil {
		handleServiceError(w, r, "clear cart", err)
		return
	}
	writeSuccess(w, "deleted", n, "Cart cleared")
}

// UpdateItemQuantity は PATCH /v1/cart-items/{id} を処理する。
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	item, err := h.service.UpdateItemQuantity(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update cart item", err)
		return
	}
	writeSuccess(w, "item", item, "Cart item updated")
}

// DeleteItem は DELETE /v1/cart-items/{id} を処理する。
func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete cart item", err)
		return
	}
	writeSuccess(w, "", nil, "Cart item deleted")
}
