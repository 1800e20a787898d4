package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
)

// AddressServiceInterface は住所ハンドラーが必要とするサービスインターフェース。
type AddressServiceInterface interface {
	List(ctx context.Context) ([]*model.Address, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Address, error)
	Get(ctx context.Context, id int64) (*model.Address, error)
	Create(ctx context.Context, userID int64, f input.Fields) (*model.Address, error)
	Update(ctx context.Context, id int64, f input.Fields) (*model.Address, error)
	Delete(ctx context.Context, id int64) error
}

// AddressHandler は配達先住所のHTTPハンドラー。
type AddressHandler struct {
	service AddressServiceInterface
}

// NewAddressHandler はAddressHandlerを生成する。
func NewAddressHandler(service AddressServiceInterface) *AddressHandler {
	return &AddressHandler{service: service}
}

// List は GET /v1/addresses を処理する。
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, "list addresses", err)
		return
	}
	writeList(w, "addresses", list, "No addresses found")
}

// ListByUser は GET /v1/users/{userId}/addresses を処理する。
func (h *AddressHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	list, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, "list addresses", err)
		return
	}
	writeList(w, "addresses", list, "No addresses found")
}

// Get は GET /v1/addresses/{id} を処理する。
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get address", err)
		return
	}
	writeSuccess(w, "address", a, "")
}

// Create は POST /v1/users/{userId}/addresses を処理する。
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	a, err := h.service.Create(r.Context(), userID, f)
	if err != nil {
		handleServiceError(w, r, "create address", err)
		return
	}
	writeSuccess(w, "address", a, "Address created")
}

// Update は PATCH /v1/addresses/{id} を処理する。
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	a, err := h.service.Update(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update address", err)
		return
	}
	writeSuccess(w, "address", a, "Address updated")
}

// Delete は DELETE /v1/addresses/{id} を処理する。
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete address", err)
		return
	}
	writeSuccess(w, "", nil, "Address deleted")
}
