package model

import "time"

// Cart はユーザーのカートを表す。
type Cart struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem はカート内の料理と数量を表す。
// 同一カート内で同じ料理は1行にまとめる。
type CartItem struct {
	ID       int64 `json:"id"`
	CartID   int64 `json:"cart_id"`
	FoodID   int64 `json:"food_id"`
	Quantity int   `json:"quantity"`
}
