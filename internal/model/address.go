package model

import "time"

// Address はユーザーの配送先住所を表す。
type Address struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Name          *string   `json:"name"`
	ContactNumber *string   `json:"contact_number"`
	AddressLine   *string   `json:"address_line"`
	Landmark      *string   `json:"landmark"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

// AddressPatch は住所更新時の部分更新フィールド。
type AddressPatch struct {
	Name          *string
	ContactNumber *string
	AddressLine   *string
	Landmark      *string
	Latitude      *float64
	Longitude     *float64
	IsDefault     *bool
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p AddressPatch) IsEmpty() bool {
	return p.Name == nil && p.ContactNumber == nil && p.AddressLine == nil && p.Landmark == nil &&
		p.Latitude == nil && p.Longitude == nil && p.IsDefault == nil
}

// Notification はユーザー宛ての通知を表す。
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
