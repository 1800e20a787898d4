package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/foodapi/internal/auth"
	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/reset"
)

// AuthServiceInterface はログインハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, identifier, plain string) (*auth.LoginResult, error)
	ManagerLogin(ctx context.Context, identifier, plain string) (*auth.ManagerLoginResult, error)
}

// ResetServiceInterface はパスワードリセットハンドラーが必要とするサービスインターフェース。
type ResetServiceInterface interface {
	Request(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error)
	Verify(ctx context.Context, code string) (*model.User, error)
	Reset(ctx context.Context, code, newPassword string) error
}

// AuthHandler はログインとパスワードリセットのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	resets  ResetServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, resets ResetServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
		resets:  resets,
	}
}

// loginIdentifier はログインIDとして最初に空でない項目を返す。
func loginIdentifier(f input.Fields, keys ...string) string {
	for _, k := range keys {
		if v := f.String(k); v != "" {
			return v
		}
	}
	return ""
}

// Login はユーザー名またはメールアドレスでログインし、トークンを返す。
// POST /v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	password, _ := f.Text("password")

	res, err := h.service.Login(r.Context(), loginIdentifier(f, "identifier", "username", "email"), password)
	if err != nil {
		handleServiceError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":  statusSuccess,
		"user":    res.User,
		"token":   res.Token,
		"message": "Login successful",
	})
}

// ManagerLogin は名前またはメールアドレスでマネージャーとしてログインする。
// POST /v1/managers/login
func (h *AuthHandler) ManagerLogin(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	password, _ := f.Text("password")

	res, err := h.service.ManagerLogin(r.Context(), loginIdentifier(f, "identifier", "name", "email"), password)
	if err != nil {
		handleServiceError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":  statusSuccess,
		"manager": res.Manager,
		"token":   res.Token,
		"message": "Login successful",
	})
}

// RequestReset はリセットコードを発行する。
// 開発環境の場合のみコードと有効期限をレスポンスに含める。
// POST /v1/users/password/request-reset
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	minutes, present, err := f.Int64("ttl_minutes")
	if present && err != nil {
		writeAPIError(w, model.NewNotNumericError("ttl_minutes"))
		return
	}
	// Durationへの変換で桁あふれしないよう先に範囲内へ切り詰める。0以下は既定値を意味する
	minutes = max(0, min(minutes, int64(reset.MaxTTL/time.Minute)))

	issued, err := h.resets.Request(r.Context(), f.String("email"), time.Duration(minutes)*time.Minute)
	if err != nil {
		handleServiceError(w, r, "set OTP", err)
		return
	}

	if !issued.Exposed {
		writeSuccess(w, "", nil, "OTP sent to the registered email address")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"status":     statusSuccess,
		"otp":        issued.Code,
		"expires_at": issued.ExpiresAt,
		"message":    "OTP generated and stored",
	})
}

// VerifyOTP はコードが有効かを確認する。コードは消費しない。
// POST /v1/users/password/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	u, err := h.resets.Verify(r.Context(), f.String("otp"))
	if err != nil {
		handleServiceError(w, r, "verify OTP", err)
		return
	}
	writeSuccess(w, "user", u, "OTP is valid")
}

// ResetPassword はコードを使ってパスワードを変更する。
// POST /v1/users/password/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	next, _ := f.Text("new_password")
	if err := h.resets.Reset(r.Context(), f.String("otp"), next); err != nil {
		handleServiceError(w, r, "update password", err)
		return
	}
	writeSuccess(w, "", nil, "Password updated successfully")
}
