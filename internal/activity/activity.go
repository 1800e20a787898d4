// Package activity は認証済み主体の書き込み操作を操作ログとして記録・参照する。
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

const (
	// DefaultLimit はlimit未指定時の取得件数。
	DefaultLimit = 100
	// MaxLimit は1回に取得できる最大件数。
	MaxLimit = 1000
)

// resourceAreas はパス先頭のリソース名と操作領域の対応。
var resourceAreas = map[string]string{
	"users":         "User management",
	"managers":      "Manager management",
	"categories":    "Catalog",
	"foods":         "Catalog",
	"carts":         "Cart",
	"cart-items":    "Cart",
	"orders":        "Order",
	"payments":      "Order",
	"delivery":      "Order",
	"addresses":     "Address",
	"notifications": "Notification",
}

// userSubresources は /v1/users/{id}/ 配下のリソースで、ユーザー管理以外の領域に属するもの。
var userSubresources = map[string]string{
	"cart":          "Cart",
	"orders":        "Order",
	"addresses":     "Address",
	"notifications": "Notification",
}

// IsWrite はメソッドが記録対象の書き込み操作かを返す。
func IsWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Area はリクエストパスから操作領域を返す。該当しない場合は空文字。
func Area(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[0] != "v1" {
		return ""
	}
	resource := segments[1]
	if resource == "users" && len(segments) >= 4 {
		if area, ok := userSubresources[segments[3]]; ok {
			return area
		}
	}
	return resourceAreas[resource]
}

// Describe は "<Area>: <METHOD> request to <path>" 形式の記録文を返す。
// 領域が無い場合は先頭の領域名を省略する。
func Describe(method, path string) string {
	text := fmt.Sprintf("%s request to %s", method, path)
	if area := Area(path); area != "" {
		return area + ": " + text
	}
	return text
}

// Recorder は操作ログの記録と参照を行う。
type Recorder struct {
	repo repository.ActivityLogRepository
}

// NewRecorder はRecorderを生成する。
func NewRecorder(repo repository.ActivityLogRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record は書き込み操作を1件記録する。
// マネージャーのIDはユーザーIDと別系統のため、ロールと組で保存する。
// 記録の失敗はログに残すのみで呼び出し元には返さない。
func (r *Recorder) Record(ctx context.Context, actor model.Identity, method, path string) {
	if actor.UserID == 0 || actor.Role == "" || !IsWrite(method) {
		return
	}
	if err := r.repo.Create(ctx, actor.UserID, actor.Role, Describe(method, path)); err != nil {
		slog.WarnContext(ctx, "failed to record activity",
			slog.Int64("user_id", actor.UserID),
			slog.String("role", string(actor.Role)),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// List は新しい順に操作ログを取得する。limitが範囲外の場合は補正する。
func (r *Recorder) List(ctx context.Context, limit int) ([]*model.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	logs, err := r.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return logs, nil
}
