package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorEnvelope はミドルウェアが返すエラーレスポンスの形式。
// ハンドラーのJSONエンベロープと同じ status/message の組を使う。
type ErrorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteErrorResponse はエンベロープ形式のエラーレスポンスを指定のHTTPステータスで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorEnvelope{Status: "error", Message: message}); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// WriteInternalServerError は内部サーバーエラーのレスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
}
