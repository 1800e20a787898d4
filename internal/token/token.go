// Package token はHS256署名のベアラートークンの発行と検証を提供する。
// トークンはサーバー側に保存せず、有効期限まで失効させない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンが不正・署名不一致・期限切れ・必須クレーム欠落のいずれかの場合に返される。
// 呼び出し元には原因を区別させない。
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims はトークンに埋め込むクレーム。
type Claims struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Issuer はトークンの発行と検証を行う。
// 署名鍵と設定は生成後に変更しない。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewIssuer は指定の署名鍵・有効期間・発行者名でIssuerを生成する。
func NewIssuer(secret []byte, ttl time.Duration, issuer string) *Issuer {
	return &Issuer{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue はユーザーID・ロール・ユーザー名を含む署名済みトークンを発行する。
func (i *Issuer) Issue(userID int64, role, username string) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:   userID,
		Role:     role,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 失敗時は常にErrInvalidTokenを返す。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
