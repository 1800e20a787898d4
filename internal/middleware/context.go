// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"

	"github.com/hitoshi/foodapi/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	identityContextKey  = contextKey("identity")
	requestIDContextKey = contextKey("request_id")
	requestStateKey     = contextKey("request_state")
)

// requestState はロギングミドルウェアが用意し、下流のミドルウェアが書き込むリクエスト単位の状態。
// 認証はルートグループ内で行われるため、外側のアクセスログへ主体を伝えるのに使う。
type requestState struct {
	identity *model.Identity
}

// IdentityFromContext は認証ミドルウェアが格納した認証済み主体を返す。
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(model.Identity)
	return id, ok
}

// ContextWithIdentity はコンテキストに認証済み主体を格納する。
// 外側のリクエスト状態があれば、アクセスログ用に主体を記録する。
func ContextWithIdentity(ctx context.Context, id model.Identity) context.Context {
	if st, ok := ctx.Value(requestStateKey).(*requestState); ok {
		st.identity = &id
	}
	return context.WithValue(ctx, identityContextKey, id)
}

// RequestIDFromContext はリクエストIDを返す。未設定の場合は空文字。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
