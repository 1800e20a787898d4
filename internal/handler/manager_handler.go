package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
)

// ManagerServiceInterface はマネージャーハンドラーが必要とするサービスインターフェース。
type ManagerServiceInterface interface {
	List(ctx context.Context) ([]*model.Manager, error)
	Get(ctx context.Context, id int64) (*model.Manager, error)
	Create(ctx context.Context, f input.Fields) (*model.Manager, error)
	Update(ctx context.Context, id int64, f input.Fields) (*model.Manager, error)
	Delete(ctx context.Context, id int64) error
}

// ManagerHandler はマネージャーアカウント管理のHTTPハンドラー。
type ManagerHandler struct {
	service ManagerServiceInterface
}

// NewManagerHandler はManagerHandlerを生成する。
func NewManagerHandler(service ManagerServiceInterface) *ManagerHandler {
	return &ManagerHandler{service: service}
}

// List は GET /v1/managers を処理する。
func (h *ManagerHandler) List(w http.ResponseWriter, r *http.Request) {
	managers, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, "list managers", err)
		return
	}
	writeList(w, "managers", managers, "No managers found")
}

// Get は GET /v1/managers/{id} を処理する。
func (h *ManagerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get manager", err)
		return
	}
	writeSuccess(w, "manager", m, "")
}

// Create は POST /v1/managers を処理する。
func (h *ManagerHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	m, err := h.service.Create(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, "create manager", err)
		return
	}
	writeSuccess(w, "manager", m, "Manager created")
}

// Update は PATCH /v1/managers/{id} を処理する。
func (h *ManagerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	m, err := h.service.Update(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update manager", err)
		return
	}
	writeSuccess(w, "manager", m, "Manager updated")
}

// Delete は DELETE /v1/managers/{id} を処理する。
func (h *ManagerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete manager", err)
		return
	}
	writeSuccess(w, "", nil, "Manager deleted")
}
