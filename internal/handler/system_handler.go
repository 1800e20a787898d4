package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DB を受け付ける。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// routeError は404/405のレスポンスボディ。
type routeError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Welcome は GET / を処理する。
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Food Ordering API",
		"status":  "running",
	})
}

// Health は GET /health のハンドラーを返す。DBに到達できない場合は503を返す。
func Health(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unavailable",
				"database": "unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"database": "ok",
		})
	}
}

// NotFound は未定義ルートへのリクエストに404を返す。
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, routeError{
		Error:   "Not Found",
		Message: "The requested route does not exist.",
		Status:  http.StatusNotFound,
	})
}

// MethodNotAllowed は定義済みルートへの未対応メソッドに405を返す。
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, routeError{
		Error:   "Method Not Allowed",
		Message: "The requested method is not allowed for this route.",
		Status:  http.StatusMethodNotAllowed,
	})
}
