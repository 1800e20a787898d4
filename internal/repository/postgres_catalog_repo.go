package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodapi/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

func (r *PostgresCategoryRepo) findOne(ctx context.Context, action, where string, arg any) (*model.Category, error) {
	c := &model.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE `+where+` LIMIT 1`, arg,
	).Scan(&c.ID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return c, nil
}

// List は全カテゴリを名前順に返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*model.Category{}
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	return r.findOne(ctx, "find category by ID", "id = $1", id)
}

// FindByName は名前でカテゴリを取得する。
func (r *PostgresCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	return r.findOne(ctx, "find category by name", "name = $1", name)
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, c *model.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Description,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", translateError(err))
	}
	return nil
}

// Update はpatchの非nilフィールドのみを更新する。
func (r *PostgresCategoryRepo) Update(ctx context.Context, id int64, patch model.CategoryPatch) error {
	var b setBuilder
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	if b.empty() {
		return nil
	}
	query, args := b.build("categories", "id", id)
	return execAffectingOne(ctx, r.db, "update category", query, args...)
}

// Delete はカテゴリを削除する。所属する料理のcategory_idはNULLになる。
func (r *PostgresCategoryRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete category", `DELETE FROM categories WHERE id = $1`, id)
}

const foodColumns = `id, category_id, name, description, price, image_url, created_at`

// PostgresFoodRepo はPostgreSQLを使用した料理リポジトリ。
type PostgresFoodRepo struct {
	db *sql.DB
}

// NewPostgresFoodRepo はPostgresFoodRepoを生成する。
func NewPostgresFoodRepo(db *sql.DB) *PostgresFoodRepo {
	return &PostgresFoodRepo{db: db}
}

func scanFood(row interface{ Scan(...any) error }) (*model.Food, error) {
	f := &model.Food{}
	if err := row.Scan(&f.ID, &f.CategoryID, &f.Name, &f.Description, &f.Price, &f.ImageURL, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresFoodRepo) list(ctx context.Context, query string, args ...any) ([]*model.Food, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}
	defer rows.Close()

	foods := []*model.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate foods: %w", err)
	}
	return foods, nil
}

// List は全料理を新しい順に返す。
func (r *PostgresFoodRepo) List(ctx context.Context) ([]*model.Food, error) {
	return r.list(ctx, `SELECT `+foodColumns+` FROM foods ORDER BY id DESC`)
}

// ListByCategory はカテゴリに属する料理を返す。
func (r *PostgresFoodRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*model.Food, error) {
	return r.list(ctx, `SELECT `+foodColumns+` FROM foods WHERE category_id = $1 ORDER BY id DESC`, categoryID)
}

// FindByID は指定IDの料理を取得する。見つからない場合はnilを返す。
func (r *PostgresFoodRepo) FindByID(ctx context.Context, id int64) (*model.Food, error) {
	f, err := scanFood(r.db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find food by ID: %w", err)
	}
	return f, nil
}

// Create は料理を作成する。
func (r *PostgresFoodRepo) Create(ctx context.Context, f *model.Food) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO foods (category_id, name, description, price, image_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		f.CategoryID, f.Name, f.Description, string(f.Price), f.ImageURL,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert food: %w", translateError(err))
	}
	return nil
}

// Update はpatchの非nilフィールドのみを更新する。
func (r *PostgresFoodRepo) Update(ctx context.Context, id int64, patch model.FoodPatch) error {
	var b setBuilder
	if patch.CategoryID != nil {
		b.add("category_id", *patch.CategoryID)
	}
	if patch.Name != nil {
		b.add("name", *patch.Name)
	}
	if patch.Description != nil {
		b.add("description", *patch.Description)
	}
	if patch.Price != nil {
		b.add("price", string(*patch.Price))
	}
	if patch.ImageURL != nil {
		b.add("image_url", *patch.ImageURL)
	}
	if b.empty() {
		return nil
	}
	query, args := b.build("foods", "id", id)
	return execAffectingOne(ctx, r.db, "update food", query, args...)
}

// Delete は料理を削除する。
func (r *PostgresFoodRepo) Delete(ctx context.Context, id int64) error {
	return execAffectingOne(ctx, r.db, "delete food", `DELETE FROM foods WHERE id = $1`, id)
}

// compile-time interface check
var (
	_ CategoryRepository = (*PostgresCategoryRepo)(nil)
	_ FoodRepository     = (*PostgresFoodRepo)(nil)
)
