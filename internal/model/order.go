package model

import "time"

// OrderStatus は注文の状態を表す。
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses は注文に設定可能な状態の一覧。
var OrderStatuses = []string{
	string(OrderStatusPending),
	string(OrderStatusConfirmed),
	string(OrderStatusPreparing),
	string(OrderStatusOutForDelivery),
	string(OrderStatusDelivered),
	string(OrderStatusCancelled),
}

// Order は注文ヘッダーを表す。明細はOrderItemで保持する。
type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	AddressID   int64       `json:"address_id"`
	Status      OrderStatus `json:"status"`
	TotalAmount Money       `json:"total_amount"`
	DeliveryFee Money       `json:"delivery_fee"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem は注文明細を表す。priceは注文時点の単価。
type OrderItem struct {
	ID       int64 `json:"id"`
	OrderID  int64 `json:"order_id"`
	FoodID   int64 `json:"food_id"`
	Quantity int   `json:"quantity"`
	Price    Money `json:"price"`
}

// PaymentMethods は支払い方法の一覧。
var PaymentMethods = []string{"card", "cash", "momo"}

// PaymentStatuses は支払い状態の一覧。
var PaymentStatuses = []string{"pending", "completed", "failed"}

// Payment は注文に対する支払いを表す。
type Payment struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	Amount         Money     `json:"amount"`
	Method         string    `json:"method"`
	Status         string    `json:"status"`
	TransactionRef *string   `json:"transaction_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeliveryStatuses は配達状態の一覧。
var DeliveryStatuses = []string{"assigned", "on_the_way", "delivered"}

// Delivery は注文の配達担当と状態を表す。
type Delivery struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	PersonName  *string `json:"delivery_person_name"`
	PersonPhone *string `json:"delivery_person_phone"`
	Status      string  `json:"status"`
}
