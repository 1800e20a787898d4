// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
//
// 検索系メソッドは対象が見つからない場合に (nil, nil) を返す。
// 入力検証と親エンティティの存在確認はサービス層で行う。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/foodapi/internal/model"
)

// UserRepository はユーザーアカウントの永続化インターフェース。
// PasswordHashを埋めて返すのはFindByLoginのみ。
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByLogin はユーザー名またはメールアドレスで1件検索し、パスワードハッシュを含めて返す。
	FindByLogin(ctx context.Context, identifier string) (*model.User, error)

	// FindPasswordHash は指定ユーザーのパスワードハッシュを返す。見つからない場合は空文字を返す。
	FindPasswordHash(ctx context.Context, id int64) (string, error)

	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
	Create(ctx context.Context, user *model.User) error

	// Update はpatchの非nilフィールドのみを更新する。
	Update(ctx context.Context, id int64, patch model.UserPatch) error

	UpdatePasswordHash(ctx context.Context, id int64, hash string) error

	// Delete はユーザーを削除する。依存する行はスキーマのCASCADEで削除される。
	Delete(ctx context.Context, id int64) error
}

// ManagerRepository はマネージャーアカウントの永続化インターフェース。
type ManagerRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Manager, error)
	FindByEmail(ctx context.Context, email string) (*model.Manager, error)
	FindByName(ctx context.Context, name string) (*model.Manager, error)

	// FindByLogin は名前またはメールアドレスで1件検索し、パスワードハッシュを含めて返す。
	FindByLogin(ctx context.Context, identifier string) (*model.Manager, error)

	List(ctx context.Context) ([]*model.Manager, error)
	Create(ctx context.Context, manager *model.Manager) error
	Update(ctx context.Context, id int64, patch model.ManagerPatch) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// ResetRepository はパスワードリセット用ワンタイムコードの永続化インターフェース。
type ResetRepository interface {
	// Create はチケットを保存する。同一ユーザーの既存チケットは無効化しない。
	Create(ctx context.Context, ticket *model.ResetTicket) error

	// FindActiveByCode はexpires_at > now かつ未使用のチケットを検索する。
	// 複数該当した場合は最も新しく発行されたものを返す。
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.ResetTicket, error)

	// Consume は未使用のチケットを使用済みにする。
	// 実際に更新した場合のみtrueを返すため、同じコードを二度消費することはない。
	Consume(ctx context.Context, userID int64, code string) (bool, error)
}

// ActivityLogRepository は操作ログの永続化インターフェース。
type ActivityLogRepository interface {
	Create(ctx context.Context, userID int64, role model.Role, activity string) error
	// List は新しい順に最大limit件を返す。
	List(ctx context.Context, limit int) ([]*model.ActivityLog, error)
}

// CategoryRepository はカテゴリの永続化インターフェース。
type CategoryRepository interface {
	List(ctx context.Context) ([]*model.Category, error)
	FindByID(ctx context.Context, id int64) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, id int64, patch model.CategoryPatch) error
	Delete(ctx context.Context, id int64) error
}

// FoodRepository は料理の永続化インターフェース。
type FoodRepository interface {
	List(ctx context.Context) ([]*model.Food, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*model.Food, error)
	FindByID(ctx context.Context, id int64) (*model.Food, error)
	Create(ctx context.Context, food *model.Food) error
	Update(ctx context.Context, id int64, patch model.FoodPatch) error
	Delete(ctx context.Context, id int64) error
}

// CartRepository はカートの永続化インターフェース。
type CartRepository interface {
	Create(ctx context.Context, cart *model.Cart) error
	FindByID(ctx context.Context, id int64) (*model.Cart, error)
	// FindLatestByUser はユーザーの最も新しいカートを返す。
	FindLatestByUser(ctx context.Context, userID int64) (*model.Cart, error)
	Delete(ctx context.Context, id int64) error
}

// CartItemRepository はカート明細の永続化インターフェース。
type CartItemRepository interface {
	ListByCart(ctx context.Context, cartID int64) ([]*model.CartItem, error)
	FindByID(ctx context.Context, id int64) (*model.CartItem, error)

	// AddOrIncrement は明細を追加する。同じ料理が既にあれば数量を加算する。
	AddOrIncrement(ctx context.Context, cartID, foodID int64, quantity int) (*model.CartItem, error)

	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	Delete(ctx context.Context, id int64) error
	// DeleteByCart はカートの全明細を削除し、削除件数を返す。
	DeleteByCart(ctx context.Context, cartID int64) (int64, error)
}

// OrderRepository は注文の永続化インターフェース。
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
}

// OrderItemRepository は注文明細の永続化インターフェース。
type OrderItemRepository interface {
	Create(ctx context.Context, item *model.OrderItem) error
	ListByOrder(ctx context.Context, orderID int64) ([]*model.OrderItem, error)
}

// PaymentRepository は支払いの永続化インターフェース。
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id int64) (*model.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*model.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// DeliveryRepository は配達の永続化インターフェース。
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	FindByID(ctx context.Context, id int64) (*model.Delivery, error)
	FindByOrder(ctx context.Context, orderID int64) (*model.Delivery, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// AddressRepository は配送先住所の永続化インターフェース。
type AddressRepository interface {
	List(ctx context.Context) ([]*model.Address, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Address, error)
	FindByID(ctx context.Context, id int64) (*model.Address, error)
	Create(ctx context.Context, address *model.Address) error
	Update(ctx context.Context, id int64, patch model.AddressPatch) error
	Delete(ctx context.Context, id int64) error
}

// NotificationRepository は通知の永続化インターフェース。
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	FindByID(ctx context.Context, id int64) (*model.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}
