// Package model はドメインモデルを定義する。
package model

import (
	"slices"
	"time"
)

// Role はアカウントの権限ロールを表す。
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOfficer Role = "officer"
	// RoleManager はマネージャーアカウントにログイン時付与されるロール。
	// managersテーブルにはロール列を持たない。
	RoleManager Role = "manager"
)

// UserRoles はユーザーアカウントに設定可能なロールの集合。
var UserRoles = []Role{RoleAdmin, RoleOfficer}

// IsValidUserRole はユーザーアカウントに設定可能なロールかを判定する。
func IsValidUserRole(role string) bool {
	return slices.Contains(UserRoles, Role(role))
}

// User はユーザーアカウントを表す。
// PasswordHashはJSONに出力しない。
type User struct {
	ID           int64     `json:"user_id"`
	Role         Role      `json:"role"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserPatch はユーザー更新時の部分更新フィールド。
// nilのフィールドは変更しない。
type UserPatch struct {
	Role         *Role
	Username     *string
	Email        *string
	ProfileImage *string
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p UserPatch) IsEmpty() bool {
	return p.Role == nil && p.Username == nil && p.Email == nil && p.ProfileImage == nil
}

// Manager は店舗マネージャーアカウントを表す。
type Manager struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        *string   `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

// ManagerPatch はマネージャー更新時の部分更新フィールド。
type ManagerPatch struct {
	Name  *string
	Email *string
	Phone *string
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p ManagerPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}

// Identity はベアラートークンから復元された認証済み主体を表す。
// 認証ミドルウェアがリクエストコンテキストに格納する。
type Identity struct {
	UserID   int64
	Role     Role
	Username string
}

// ResetTicket はパスワードリセット用のワンタイムコードを表す。
// usedはfalseからtrueへの一方向にのみ遷移する。
type ResetTicket struct {
	ID        int64
	UserID    int64
	Code      string
	ExpiresAt time.Time
	Used      bool
}

// ActivityLog は認証済み主体の書き込み操作の記録を表す。
// user_idはroleがmanagerの場合マネージャーIDを指す。
type ActivityLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	Activity  string    `json:"activity"`
	CreatedAt time.Time `json:"created_at"`
}
