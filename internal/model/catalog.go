package model

import "time"

// Money は小数点以下2桁に正規化された金額の文字列表現。
// NUMERIC(10,2)列とそのまま相互変換する。
type Money string

// Category は料理カテゴリを表す。
type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// CategoryPatch はカテゴリ更新時の部分更新フィールド。
type CategoryPatch struct {
	Name        *string
	Description *string
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil
}

// Food はメニュー上の料理を表す。
type Food struct {
	ID          int64     `json:"id"`
	CategoryID  *int64    `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       Money     `json:"price"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// FoodPatch は料理更新時の部分更新フィールド。
type FoodPatch struct {
	CategoryID  *int64
	Name        *string
	Description *string
	Price       *Money
	ImageURL    *string
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p FoodPatch) IsEmpty() bool {
	return p.CategoryID == nil && p.Name == nil && p.Description == nil && p.Price == nil && p.ImageURL == nil
}
