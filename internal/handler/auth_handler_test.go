package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/foodapi/internal/auth"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/reset"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn        func(ctx context.Context, identifier, plain string) (*auth.LoginResult, error)
	managerLoginFn func(ctx context.Context, identifier, plain string) (*auth.ManagerLoginResult, error)
}

func (m *mockAuthService) Login(ctx context.Context, identifier, plain string) (*auth.LoginResult, error) {
	return m.loginFn(ctx, identifier, plain)
}

func (m *mockAuthService) ManagerLogin(ctx context.Context, identifier, plain string) (*auth.ManagerLoginResult, error) {
	return m.managerLoginFn(ctx, identifier, plain)
}

type mockResetService struct {
	requestFn func(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error)
	verifyFn  func(ctx context.Context, code string) (*model.User, error)
	resetFn   func(ctx context.Context, code, newPassword string) error
}

func (m *mockResetService) Request(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error) {
	return m.requestFn(ctx, email, ttl)
}

func (m *mockResetService) Verify(ctx context.Context, code string) (*model.User, error) {
	return m.verifyFn(ctx, code)
}

func (m *mockResetService) Reset(ctx context.Context, code, newPassword string) error {
	return m.resetFn(ctx, code, newPassword)
}

// --- POST /v1/users/login ---

func TestAuthHandler_Login_IdentifierFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "identifier", body: `{"identifier":"ama","password":"pw"}`, want: "ama"},
		{name: "username", body: `{"username":"kofi","password":"pw"}`, want: "kofi"},
		{name: "email", body: `{"email":"esi@example.com","password":"pw"}`, want: "esi@example.com"},
		{name: "blank identifier falls through", body: `{"identifier":" ","email":"esi@example.com","password":"pw"}`, want: "esi@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, identifier, plain string) (*auth.LoginResult, error) {
					got = identifier
					return &auth.LoginResult{User: &model.User{ID: 1}, Token: "tok"}, nil
				},
			}
			h := NewAuthHandler(svc, nil)

			w := httptest.NewRecorder()
			h.Login(w, jsonRequest(http.MethodPost, "/v1/users/login", tt.body))

			assertSuccess(t, w)
			if got != tt.want {
				t.Errorf("identifier = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, identifier, plain string) (*auth.LoginResult, error) {
			if plain != "secret123" {
				t.Errorf("password = %q", plain)
			}
			return &auth.LoginResult{
				User:  &model.User{ID: 4, Role: model.RoleAdmin, Username: "ama", PasswordHash: "$argon2id$x"},
				Token: "signed.jwt.token",
			}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/v1/users/login", `{"username":"ama","password":"secret123"}`))

	raw := w.Body.String()
	body := assertSuccess(t, w)
	if body["token"] != "signed.jwt.token" {
		t.Errorf("token = %v", body["token"])
	}
	if body["message"] != "Login successful" {
		t.Errorf("message = %v", body["message"])
	}
	if strings.Contains(raw, "argon2id") {
		t.Error("response leaks the password hash")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, identifier, plain string) (*auth.LoginResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Login(w, jsonRequest(http.MethodPost, "/v1/users/login", `{"username":"ama","password":"wrong"}`))

	body := assertError(t, w, "Invalid credentials")
	if _, ok := body["token"]; ok {
		t.Error("token must not be present on failure")
	}
}

func TestAuthHandler_ManagerLogin_UsesName(t *testing.T) {
	svc := &mockAuthService{
		managerLoginFn: func(ctx context.Context, identifier, plain string) (*auth.ManagerLoginResult, error) {
			if identifier != "Kojo" {
				t.Errorf("identifier = %q, want Kojo", identifier)
			}
			return &auth.ManagerLoginResult{Manager: &model.Manager{ID: 2, Name: "Kojo"}, Token: "mtok"}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ManagerLogin(w, jsonRequest(http.MethodPost, "/v1/managers/login", `{"name":"Kojo","password":"pw"}`))

	body := assertSuccess(t, w)
	if body["token"] != "mtok" {
		t.Errorf("token = %v", body["token"])
	}
	if m, ok := body["manager"].(map[string]any); !ok || m["name"] != "Kojo" {
		t.Errorf("manager = %v", body["manager"])
	}
}

// --- POST /v1/users/password/request-reset ---

func TestAuthHandler_RequestReset_Development(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	resets := &mockResetService{
		requestFn: func(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error) {
			if email != "ama@example.com" {
				t.Errorf("email = %q", email)
			}
			if ttl != 30*time.Minute {
				t.Errorf("ttl = %v, want 30m", ttl)
			}
			return &reset.Issued{Code: "012345", ExpiresAt: expires, Exposed: true}, nil
		},
	}
	h := NewAuthHandler(nil, resets)

	w := httptest.NewRecorder()
	h.RequestReset(w, jsonRequest(http.MethodPost, "/v1/users/password/request-reset",
		`{"email":"ama@example.com","ttl_minutes":30}`))

	body := assertSuccess(t, w)
	if body["otp"] != "012345" {
		t.Errorf("otp = %v, want 012345", body["otp"])
	}
	if body["expires_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("expires_at = %v", body["expires_at"])
	}
}

func TestAuthHandler_RequestReset_ProductionHidesCode(t *testing.T) {
	resets := &mockResetService{
		requestFn: func(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error) {
			if ttl != 0 {
				t.Errorf("ttl = %v, want 0 (service default)", ttl)
			}
			return &reset.Issued{Code: "999999", ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
	}
	h := NewAuthHandler(nil, resets)

	w := httptest.NewRecorder()
	h.RequestReset(w, jsonRequest(http.MethodPost, "/v1/users/password/request-reset", `{"email":"ama@example.com"}`))

	raw := w.Body.String()
	body := assertSuccess(t, w)
	if _, ok := body["otp"]; ok {
		t.Error("otp must not be present outside development")
	}
	if _, ok := body["expires_at"]; ok {
		t.Error("expires_at must not be present outside development")
	}
	if strings.Contains(raw, "999999") {
		t.Error("response leaks the code")
	}
}

func TestAuthHandler_RequestReset_InvalidTTL(t *testing.T) {
	h := NewAuthHandler(nil, &mockResetService{})

	w := httptest.NewRecorder()
	h.RequestReset(w, jsonRequest(http.MethodPost, "/v1/users/password/request-reset",
		`{"email":"ama@example.com","ttl_minutes":"soon"}`))

	assertError(t, w, "ttl_minutes must be a numeric value")
}

func TestAuthHandler_RequestReset_HugeTTLIsClamped(t *testing.T) {
	resets := &mockResetService{
		requestFn: func(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error) {
			if ttl != reset.MaxTTL {
				t.Errorf("ttl = %v, want %v", ttl, reset.MaxTTL)
			}
			return &reset.Issued{Code: "123456", ExpiresAt: time.Now().Add(ttl)}, nil
		},
	}
	h := NewAuthHandler(nil, resets)

	w := httptest.NewRecorder()
	h.RequestReset(w, jsonRequest(http.MethodPost, "/v1/users/password/request-reset",
		`{"email":"ama@example.com","ttl_minutes":9000000000000000}`))

	assertSuccess(t, w)
}

func TestAuthHandler_RequestReset_UnknownEmail(t *testing.T) {
	resets := &mockResetService{
		requestFn: func(ctx context.Context, email string, ttl time.Duration) (*reset.Issued, error) {
			e := model.NewNotFoundError("User")
			e.Message = "User not found with this email"
			e.Field = "email"
			return nil, e
		},
	}
	h := NewAuthHandler(nil, resets)

	w := httptest.NewRecorder()
	h.RequestReset(w, jsonRequest(http.MethodPost, "/v1/users/password/request-reset", `{"email":"nobody@example.com"}`))

	body := assertError(t, w, "User not found with this email")
	if body["field"] != "email" {
		t.Errorf("field = %v, want email", body["field"])
	}
}

// --- verify-otp / reset ---

func TestAuthHandler_VerifyOTP(t *testing.T) {
	resets := &mockResetService{
		verifyFn: func(ctx context.Context, code string) (*model.User, error) {
			if code != "123456" {
				return nil, model.NewInvalidOTPError()
			}
			return &model.User{ID: 8, Username: "ama"}, nil
		},
	}
	h := NewAuthHandler(nil, resets)

	w := httptest.NewRecorder()
	h.VerifyOTP(w, jsonRequest(http.MethodPost, "/v1/users/password/verify-otp", `{"otp":"123456"}`))
	body := assertSuccess(t, w)
	if body["message"] != "OTP is valid" {
		t.Errorf("message = %v", body["message"])
	}

	w = httptest.NewRecorder()
	h.VerifyOTP(w, jsonRequest(http.MethodPost, "/v1/users/password/verify-otp", `{"otp":"000000"}`))
	assertError(t, w, "Invalid or expired OTP")
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	var gotCode, gotPassword string
	resets := &mockResetService{
		resetFn: func(ctx context.Context, code, newPassword string) error {
			gotCode, gotPassword = code, newPassword
			return nil
		},
	}
	h := NewAuthHandler(nil, resets)

	w := httptest.NewRecorder()
	h.ResetPassword(w, jsonRequest(http.MethodPost, "/v1/users/password/reset",
		`{"otp":"123456","new_password":"brand-new-pass"}`))

	body := assertSuccess(t, w)
	if body["message"] != "Password updated successfully" {
		t.Errorf("message = %v", body["message"])
	}
	if gotCode != "123456" || gotPassword != "brand-new-pass" {
		t.Errorf("Reset(%q, %q)", gotCode, gotPassword)
	}
}
