// Package handler はHTTPハンドラーを提供する。
//
// ハンドラーは業務エラーを含めてHTTP 200でJSONエンベロープを返す。
// 成功か失敗かはエンベロープのstatusで判定する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/middleware"
	"github.com/hitoshi/foodapi/internal/model"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope はレスポンスボディ。statusとmessageに加えてエンティティキーを持つ。
type envelope map[string]any

// writeJSON は任意の値をJSONとして書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeSuccess は成功エンベロープを書き込む。keyが空の場合はエンティティを含めない。
// messageが空の場合はnullになる。
func writeSuccess(w http.ResponseWriter, key string, data any, message string) {
	body := envelope{"status": statusSuccess, "message": nullable(message)}
	if key != "" {
		body[key] = data
	}
	writeJSON(w, http.StatusOK, body)
}

// writeList は一覧の成功エンベロープを書き込む。空の場合は空配列とemptyMessageを返す。
func writeList[T any](w http.ResponseWriter, key string, rows []T, emptyMessage string) {
	if len(rows) == 0 {
		writeSuccess(w, key, []T{}, emptyMessage)
		return
	}
	writeSuccess(w, key, rows, "")
}

// writeAPIError はAPIErrorをエラーエンベロープとして書き込む。
func writeAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	body := envelope{"status": statusError, "message": apiErr.Message}
	if apiErr.Field != "" {
		body["field"] = apiErr.Field
	}
	writeJSON(w, http.StatusOK, body)
}

// handleServiceError はサービス層のエラーをエンベロープに変換する。
// APIError以外はストレージ障害として記録し、"Failed to <action>: database error" を返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIError(w, apiErr)
		return
	}

	slog.ErrorContext(r.Context(), "request failed",
		slog.String("action", action),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusOK, envelope{
		"status":  statusError,
		"message": "Failed to " + action + ": database error",
	})
}

// decodeFields はリクエストボディをFieldsとして読み込む。
// 解析できない場合はエラーエンベロープを書き込みfalseを返す。
func decodeFields(w http.ResponseWriter, r *http.Request) (input.Fields, bool) {
	f, err := input.Decode(r.Body)
	if err != nil {
		writeAPIError(w, model.NewInvalidRequestError())
		return nil, false
	}
	return f, true
}

// pathID はURLパラメータを正の整数IDとして読み取る。
// 不正な場合はエラーエンベロープを書き込みfalseを返す。
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeAPIError(w, model.NewNotNumericError(name))
		return 0, false
	}
	return id, true
}

// requireSelfOrAdmin は対象ユーザーが本人でも管理者でもない場合に403を返す。
// マネージャーのIDはユーザーIDと別系統のため本人とはみなさない。
func requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, userID int64) bool {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError().Message)
		return false
	}
	if id.Role == model.RoleAdmin {
		return true
	}
	if id.Role == model.RoleManager || id.UserID != userID {
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError().Message)
		return false
	}
	return true
}

// ownUser は /users/{userId}/ 配下のルートを本人と管理者に限定するミドルウェア。
// userIdが数値でない場合はハンドラーのエラー応答に任せる。
func ownUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64); err == nil && !requireSelfOrAdmin(w, r, id) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
