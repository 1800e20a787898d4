package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/foodapi/internal/model"
)

// ActivityRecorder は操作ログの記録インターフェース。
type ActivityRecorder interface {
	Record(ctx context.Context, actor model.Identity, method, path string)
}

// NewActivityMiddleware は認証済みの書き込みリクエストを処理後に操作ログへ記録するミドルウェアを返す。
// 主体のIDとロールを記録する。認証ミドルウェアより後に配置する。記録の成否はレスポンスに影響しない。
func NewActivityMiddleware(recorder ActivityRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			id, ok := IdentityFromContext(r.Context())
			if !ok {
				return
			}
			recorder.Record(context.WithoutCancel(r.Context()), id, r.Method, r.URL.Path)
		})
	}
}
