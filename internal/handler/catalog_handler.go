package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
)

// CatalogServiceInterface はカテゴリ・料理ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, f input.Fields) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, f input.Fields) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListFoods(ctx context.Context) ([]*model.Food, error)
	ListFoodsByCategory(ctx context.Context, categoryID int64) ([]*model.Food, error)
	GetFood(ctx context.Context, id int64) (*model.Food, error)
	CreateFood(ctx context.Context, f input.Fields) (*model.Food, error)
	UpdateFood(ctx context.Context, id int64, f input.Fields) (*model.Food, error)
	DeleteFood(ctx context.Context, id int64) error
}

// CatalogHandler はメニュー（カテゴリ・料理）のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListCategories は GET /v1/categories を処理する。
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, r, "list categories", err)
		return
	}
	writeList(w, "categories", list, "No categories found")
}

// GetCategory は GET /v1/categories/{id} を処理する。
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get category", err)
		return
	}
	writeSuccess(w, "category", c, "")
}

// CreateCategory は POST /v1/categories を処理する。
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	c, err := h.service.CreateCategory(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, "create category", err)
		return
	}
	writeSuccess(w, "category", c, "Category created")
}

// UpdateCategory は PATCH /v1/categories/{id} を処理する。
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update category", err)
		return
	}
	writeSuccess(w, "category", c, "Category updated")
}

// DeleteCategory は DELETE /v1/categories/{id} を処理する。
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete category", err)
		return
	}
	writeSuccess(w, "", nil, "Category deleted")
}

// ListFoods は GET /v1/foods を処理する。
func (h *CatalogHandler) ListFoods(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListFoods(r.Context())
	if err != nil {
		handleServiceError(w, r, "list foods", err)
		return
	}
	writeList(w, "foods", list, "No foods found")
}

// ListFoodsByCategory は GET /v1/categories/{categoryId}/foods を処理する。
func (h *CatalogHandler) ListFoodsByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryId")
	if !ok {
		return
	}
	list, err := h.service.ListFoodsByCategory(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "list foods", err)
		return
	}
	writeList(w, "foods", list, "No foods found in this category")
}

// GetFood は GET /v1/foods/{id} を処理する。
func (h *CatalogHandler) GetFood(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	food, err := h.service.GetFood(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get food", err)
		return
	}
	writeSuccess(w, "food", food, "")
}

// CreateFood は POST /v1/foods を処理する。
func (h *CatalogHandler) CreateFood(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	food, err := h.service.CreateFood(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, "create food", err)
		return
	}
	writeSuccess(w, "food", food, "Food created")
}

// UpdateFood は PATCH /v1/foods/{id} を処理する。
func (h *CatalogHandler) UpdateFood(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	food, err := h.service.UpdateFood(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update food", err)
		return
	}
	writeSuccess(w, "food", food, "Food updated")
}

// DeleteFood は DELETE /v1/foods/{id} を処理する。
func (h *CatalogHandler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteFood(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete food", err)
		return
	}
	writeSuccess(w, "", nil, "Food deleted")
}
