// Package catalog はカテゴリと料理のメニュー管理を提供する。
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
	"github.com/hitoshi/foodapi/internal/security"
)

// Service はカテゴリと料理のサービス層。
// 名前はタグを除去し、説明文は限られた書式タグのみ残す。
type Service struct {
	categories repository.CategoryRepository
	foods      repository.FoodRepository
	text       security.Sanitizer
	rich       security.Sanitizer
}

// NewService はServiceを生成する。
func NewService(
	categories repository.CategoryRepository,
	foods repository.FoodRepository,
	text security.Sanitizer,
	rich security.Sanitizer,
) *Service {
	return &Service{
		categories: categories,
		foods:      foods,
		text:       text,
		rich:       rich,
	}
}

func errCategoryTaken() *model.APIError {
	return model.NewDuplicateError("name", "Category already exists with this name")
}

func (s *Service) sanitize(sz security.Sanitizer, v *string) *string {
	if v == nil {
		return nil
	}
	out := sz.Sanitize(*v)
	return &out
}

// ListCategories は全カテゴリを取得する。
func (s *Service) ListCategories(ctx context.Context) ([]*model.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return list, nil
}

// GetCategory は指定IDのカテゴリを取得する。
func (s *Service) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if c == nil {
		return nil, model.NewNotFoundError("Category")
	}
	return c, nil
}

// CreateCategory はカテゴリを作成する。nameは必須で一意。
func (s *Service) CreateCategory(ctx context.Context, f input.Fields) (*model.Category, error) {
	if missing := f.Missing("name"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	name := s.text.Sanitize(f.String("name"))
	if name == "" {
		return nil, model.NewInvalidFieldError("name", "Name cannot be empty")
	}
	if err := s.checkCategoryName(ctx, 0, name); err != nil {
		return nil, err
	}

	c := &model.Category{
		Name:        name,
		Description: s.sanitize(s.rich, f.Optional("description")),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		if _, ok := repository.AsUniqueViolation(err); ok {
			return nil, errCategoryTaken()
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// UpdateCategory はカテゴリを部分更新する。更新可能な項目は name, description。
func (s *Service) UpdateCategory(ctx context.Context, id int64, f input.Fields) (*model.Category, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}

	patch := model.CategoryPatch{
		Name:        s.sanitize(s.text, f.Optional("name")),
		Description: s.sanitize(s.rich, f.Optional("description")),
	}
	if patch.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, model.NewInvalidFieldError("name", "Name cannot be empty")
		}
		if err := s.checkCategoryName(ctx, id, *patch.Name); err != nil {
			return nil, err
		}
	}

	if err := s.categories.Update(ctx, id, patch); err != nil {
		if _, ok := repository.AsUniqueViolation(err); ok {
			return nil, errCategoryTaken()
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Category")
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory はカテゴリを削除する。所属する料理のcategory_idはNULLになる。
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("Category")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *Service) checkCategoryName(ctx context.Context, excludeID int64, name string) error {
	c, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if c != nil && c.ID != excludeID {
		return errCategoryTaken()
	}
	return nil
}

// ListFoods は全料理を取得する。
func (s *Service) ListFoods(ctx context.Context) ([]*model.Food, error) {
	list, err := s.foods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}
	return list, nil
}

// ListFoodsByCategory はカテゴリに属する料理を取得する。
func (s *Service) ListFoodsByCategory(ctx context.Context, categoryID int64) ([]*model.Food, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	list, err := s.foods.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list foods by category: %w", err)
	}
	return list, nil
}

// GetFood は指定IDの料理を取得する。
func (s *Service) GetFood(ctx context.Context, id int64) (*model.Food, error) {
	food, err := s.foods.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get food: %w", err)
	}
	if food == nil {
		return nil, model.NewNotFoundError("Food")
	}
	return food, nil
}

// CreateFood は料理を作成する。必須: name, price。category_idは指定時に存在確認する。
func (s *Service) CreateFood(ctx context.Context, f input.Fields) (*model.Food, error) {
	if missing := f.Missing("name", "price"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	price, err := parsePrice(f)
	if err != nil {
		return nil, err
	}
	categoryID, err := s.parseCategoryID(ctx, f)
	if err != nil {
		return nil, err
	}

	food := &model.Food{
		CategoryID:  categoryID,
		Name:        s.text.Sanitize(f.String("name")),
		Description: s.sanitize(s.rich, f.Optional("description")),
		Price:       *price,
		ImageURL:    s.sanitize(s.text, f.Optional("image_url")),
	}
	if food.Name == "" {
		return nil, model.NewInvalidFieldError("name", "Name cannot be empty")
	}

	if err := s.foods.Create(ctx, food); err != nil {
		return nil, fmt.Errorf("failed to create food: %w", err)
	}
	return food, nil
}

// UpdateFood は料理を部分更新する。
// 更新可能な項目は category_id, name, description, price, image_url。
func (s *Service) UpdateFood(ctx context.Context, id int64, f input.Fields) (*model.Food, error) {
	if _, err := s.GetFood(ctx, id); err != nil {
		return nil, err
	}

	var patch model.FoodPatch
	var err error
	if patch.CategoryID, err = s.parseCategoryID(ctx, f); err != nil {
		return nil, err
	}
	if patch.Price, err = parsePrice(f); err != nil {
		return nil, err
	}
	patch.Name = s.sanitize(s.text, f.Optional("name"))
	patch.Description = s.sanitize(s.rich, f.Optional("description"))
	patch.ImageURL = s.sanitize(s.text, f.Optional("image_url"))

	if patch.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, model.NewInvalidFieldError("name", "Name cannot be empty")
	}

	if err := s.foods.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Food")
		}
		return nil, fmt.Errorf("failed to update food: %w", err)
	}
	return s.GetFood(ctx, id)
}

// DeleteFood は料理を削除する。
func (s *Service) DeleteFood(ctx context.Context, id int64) error {
	if _, err := s.GetFood(ctx, id); err != nil {
		return err
	}
	if err := s.foods.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("Food")
		}
		return fmt.Errorf("failed to delete food: %w", err)
	}
	return nil
}

// parsePrice はpriceを小数点以下2桁に正規化して返す。未指定の場合はnil。
func parsePrice(f input.Fields) (*model.Money, error) {
	price, present, err := f.Money("price")
	if !present {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewInvalidFieldError("price", "Price must be a numeric value")
	}
	if v, _ := input.ParseMoney(price); v < 0 {
		return nil, model.NewInvalidFieldError("price", "Price must not be negative")
	}
	return &price, nil
}

// parseCategoryID はcategory_idを解釈し、カテゴリの存在を確認する。未指定の場合はnil。
func (s *Service) parseCategoryID(ctx context.Context, f input.Fields) (*int64, error) {
	id, present, err := f.Int64("category_id")
	if !present {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewNotNumericError("category_id")
	}

	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check category: %w", err)
	}
	if c == nil {
		return nil, model.NewParentNotFoundError("Category", "category_id")
	}
	return &id, nil
}
