package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	ListByUser(ctx context.Context, userID int64) ([]*model.Notification, error)
	Create(ctx context.Context, userID int64, f input.Fields) (*model.Notification, error)
	MarkRead(ctx context.Context, id int64) (*model.Notification, error)
}

// ActivityLister は操作ログの一覧取得インターフェース。
type ActivityLister interface {
	List(ctx context.Context, limit int) ([]*model.ActivityLog, error)
}

// NotificationHandler は通知と操作ログ閲覧のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
	logs    ActivityLister
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface, logs ActivityLister) *NotificationHandler {
	return &NotificationHandler{service: service, logs: logs}
}

// ListByUser は GET /v1/users/{userId}/notifications を処理する。
func (h *NotificationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	list, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, "list notifications", err)
		return
	}
	writeList(w, "notifications", list, "No notifications found")
}

// Create は POST /v1/users/{userId}/notifications を処理する。
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	n, err := h.service.Create(r.Context(), userID, f)
	if err != nil {
		handleServiceError(w, r, "create notification", err)
		return
	}
	writeSuccess(w, "notification", n, "Notification created")
}

// MarkRead は PATCH /v1/notifications/{id}/read を処理する。
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.service.MarkRead(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "mark notification as read", err)
		return
	}
	writeSuccess(w, "notification", n, "Notification marked as read")
}

// ListLogs は GET /v1/logs?limit= を処理する。limitは省略可能。
func (h *NotificationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeAPIError(w, model.NewNotNumericError("limit"))
			return
		}
		limit = n
	}
	logs, err := h.logs.List(r.Context(), limit)
	if err != nil {
		handleServiceError(w, r, "list activity logs", err)
		return
	}
	writeList(w, "logs", logs, "No activity logs found")
}
