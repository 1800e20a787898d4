package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/token"
)

const bearerPrefix = "bearer "

// TokenVerifier はベアラートークンの検証インターフェース。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのベアラートークンを検証するミドルウェアを返す。
// rolesを指定した場合、トークンのロールがそのいずれかでなければ403を返す。
// 検証に成功した主体はIdentityFromContextで取得できる。
func NewAuthMiddleware(verifier TokenVerifier, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError().Message)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError().Message)
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError().Message)
				return
			}

			ctx := ContextWithIdentity(r.Context(), model.Identity{
				UserID:   claims.UserID,
				Role:     model.Role(claims.Role),
				Username: claims.Username,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからトークンを取り出す。接頭辞は大文字小文字を区別しない。
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	raw := strings.TrimSpace(h[len(bearerPrefix):])
	return raw, raw != ""
}
