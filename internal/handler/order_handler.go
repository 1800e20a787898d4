package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
// 注文明細・支払い・配達も同じサービスが扱う。
type OrderServiceInterface interface {
	Create(ctx context.Context, f input.Fields) (*model.Order, error)
	Get(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, f input.Fields) (*model.Order, error)

	ListItems(ctx context.Context, orderID int64) ([]*model.OrderItem, error)
	AddItem(ctx context.Context, orderID int64, f input.Fields) (*model.OrderItem, error)

	CreatePayment(ctx context.Context, orderID int64, f input.Fields) (*model.Payment, error)
	ListPayments(ctx context.Context, orderID int64) ([]*model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, f input.Fields) (*model.Payment, error)

	AssignDelivery(ctx context.Context, orderID int64, f input.Fields) (*model.Delivery, error)
	GetDelivery(ctx context.Context, orderID int64) (*model.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, id int64, f input.Fields) (*model.Delivery, error)
}

// OrderHandler は注文・注文明細・支払い・配達のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create は POST /v1/orders を処理する。
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	// 他人名義の注文は管理者のみ作成できる。不正な値の検証はサービス層で行う
	if userID, _, err := f.Int64("user_id"); err == nil && userID > 0 && !requireSelfOrAdmin(w, r, userID) {
		return
	}
	o, err := h.service.Create(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, "create order", err)
		return
	}
	writeSuccess(w, "order", o, "Order created")
}

// Get は GET /v1/orders/{id} を処理する。
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get order", err)
		return
	}
	writeSuccess(w, "order", o, "")
}

// ListByUser は GET /v1/users/{userId}/orders を処理する。
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	list, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, "list orders", err)
		return
	}
	writeList(w, "orders", list, "No orders found")
}

// UpdateStatus は PATCH /v1/orders/{id}/status を処理する。
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update order status", err)
		return
	}
	writeSuccess(w, "order", o, "Order status updated")
}

// ListItems は GET /v1/orders/{orderId}/items を処理する。
func (h *OrderHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	items, err := h.service.ListItems(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, r, "list order items", err)
		return
	}
	writeList(w, "items", items, "No items found for this order")
}

// AddItem は POST /v1/orders/{orderId}/items を処理する。
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	item, err := h.service.AddItem(r.Context(), orderID, f)
	if err != nil {
		handleServiceError(w, r, "add order item", err)
		return
	}
	writeSuccess(w, "item", item, "Order item added")
}

// CreatePayment は POST /v1/orders/{orderId}/payments を処理する。
func (h *OrderHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	p, err := h.service.CreatePayment(r.Context(), orderID, f)
	if err != nil {
		handleServiceError(w, r, "create payment", err)
		return
	}
	writeSuccess(w, "payment", p, "Payment recorded")
}

// ListPayments は GET /v1/orders/{orderId}/payments を処理する。
func (h *OrderHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	list, err := h.service.ListPayments(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, r, "list payments", err)
		return
	}
	writeList(w, "payments", list, "No payments found for this order")
}

// UpdatePaymentStatus は PATCH /v1/payments/{id}/status を処理する。
func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	p, err := h.service.UpdatePaymentStatus(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update payment status", err)
		return
	}
	writeSuccess(w, "payment", p, "Payment status updated")
}

// AssignDelivery は POST /v1/orders/{orderId}/delivery を処理する。
func (h *OrderHandler) AssignDelivery(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	d, err := h.service.AssignDelivery(r.Context(), orderID, f)
	if err != nil {
		handleServiceError(w, r, "assign delivery", err)
		return
	}
	writeSuccess(w, "delivery", d, "Delivery assigned")
}

// GetDelivery は GET /v1/orders/{orderId}/delivery を処理する。
func (h *OrderHandler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	d, err := h.service.GetDelivery(r.Context(), orderID)
	if err != nil {
		handleServiceError(w, r, "get delivery", err)
		return
	}
	writeSuccess(w, "delivery", d, "")
}

// UpdateDeliveryStatus は PATCH /v1/delivery/{id}/status を処理する。
func (h *OrderHandler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	d, err := h.service.UpdateDeliveryStatus(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update delivery status", err)
		return
	}
	writeSuccess(w, "delivery", d, "Delivery status updated")
}
