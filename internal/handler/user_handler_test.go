package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/user"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
// 未設定のメソッドを呼び出すとパニックする。
type mockUserService struct {
	UserServiceInterface
	getFn            func(ctx context.Context, id int64) (*model.User, error)
	createFn         func(ctx context.Context, f input.Fields) (*model.User, error)
	listFn           func(ctx context.Context) ([]*model.User, error)
	updatePasswordFn func(ctx context.Context, id int64, current, next string) error
	uploadFn         func(ctx context.Context, id int64, img user.Image) (*model.User, error)
}

func (m *mockUserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return m.getFn(ctx, id)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	return m.listFn(ctx)
}

func (m *mockUserService) Create(ctx context.Context, f input.Fields) (*model.User, error) {
	return m.createFn(ctx, f)
}

func (m *mockUserService) UpdatePassword(ctx context.Context, id int64, current, next string) error {
	return m.updatePasswordFn(ctx, id, current, next)
}

func (m *mockUserService) UploadProfileImage(ctx context.Context, id int64, img user.Image) (*model.User, error) {
	return m.uploadFn(ctx, id, img)
}

// --- POST /v1/users ---

func TestUserHandler_Create_OmitsPasswordHash(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, f input.Fields) (*model.User, error) {
			if f.String("username") != "ama" {
				t.Errorf("username = %q, want ama", f.String("username"))
			}
			return &model.User{ID: 7, Role: model.RoleOfficer, Username: "ama", Email: "ama@example.com", PasswordHash: "$argon2id$secret"}, nil
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(http.MethodPost, "/v1/users",
		`{"role":"officer","username":"ama","email":"ama@example.com","password":"secret123"}`))

	raw := w.Body.String()
	body := assertSuccess(t, w)
	if body["message"] != "User created successfully" {
		t.Errorf("message = %v", body["message"])
	}
	u, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("user = %v, want object", body["user"])
	}
	if u["user_id"] != float64(7) {
		t.Errorf("user_id = %v, want 7", u["user_id"])
	}
	if strings.Contains(raw, "argon2id") || strings.Contains(raw, "password") {
		t.Errorf("response leaks password data: %s", raw)
	}
}

func TestUserHandler_Create_ValidationError(t *testing.T) {
	svc := &mockUserService{
		createFn: func(ctx context.Context, f input.Fields) (*model.User, error) {
			return nil, model.NewMissingFieldsError("email", "password")
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(http.MethodPost, "/v1/users", `{"role":"admin","username":"x"}`))

	assertError(t, w, "Missing required fields: email, password")
}

func TestUserHandler_List_Empty(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.User, error) { return nil, nil },
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/v1/users", nil))

	body := assertSuccess(t, w)
	if users, ok := body["users"].([]any); !ok || len(users) != 0 {
		t.Errorf("users = %v, want []", body["users"])
	}
	if body["message"] != "No users found" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	svc := &mockUserService{
		getFn: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, model.NewNotFoundError("User")
		},
	}
	h := NewUserHandler(svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/v1/users/9", nil), "id", "9")
	w := httptest.NewRecorder()
	h.Get(w, req)

	assertError(t, w, "User not found")
}

// --- POST /v1/users/password/update ---

func TestUserHandler_UpdatePassword(t *testing.T) {
	tests := []struct {
		name        string
		caller      model.Identity
		body        string
		wantStatus  int
		wantCalled  bool
		wantMessage string
	}{
		{
			name:        "own account",
			caller:      model.Identity{UserID: 3, Role: model.RoleOfficer},
			body:        `{"user_id":3,"current_password":"old-secret","new_password":"new-secret"}`,
			wantStatus:  http.StatusOK,
			wantCalled:  true,
			wantMessage: "Password updated successfully",
		},
		{
			name:        "admin on another account",
			caller:      model.Identity{UserID: 1, Role: model.RoleAdmin},
			body:        `{"user_id":"3","current_password":"old-secret","new_password":"new-secret"}`,
			wantStatus:  http.StatusOK,
			wantCalled:  true,
			wantMessage: "Password updated successfully",
		},
		{
			name:       "officer on another account",
			caller:     model.Identity{UserID: 2, Role: model.RoleOfficer},
			body:       `{"user_id":3,"current_password":"old-secret","new_password":"new-secret"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:        "missing user_id",
			caller:      model.Identity{UserID: 3, Role: model.RoleOfficer},
			body:        `{"current_password":"old-secret","new_password":"new-secret"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Missing required field: user_id",
		},
		{
			name:        "non-numeric user_id",
			caller:      model.Identity{UserID: 3, Role: model.RoleOfficer},
			body:        `{"user_id":"three","current_password":"a","new_password":"b"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "user_id must be a numeric value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockUserService{
				updatePasswordFn: func(ctx context.Context, id int64, current, next string) error {
					called = true
					if id != 3 || current != "old-secret" || next != "new-secret" {
						t.Errorf("UpdatePassword(%d, %q, %q)", id, current, next)
					}
					return nil
				},
			}
			h := NewUserHandler(svc)

			req := withIdentity(jsonRequest(http.MethodPost, "/v1/users/password/update", tt.body), tt.caller.UserID, tt.caller.Role)
			w := httptest.NewRecorder()
			h.UpdatePassword(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("HTTP status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("service called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantMessage != "" {
				body := decodeEnvelope(t, w)
				if body["message"] != tt.wantMessage {
					t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
				}
			}
		})
	}
}

// --- POST /v1/users/{id}/profile-image ---

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUserHandler_UploadProfileImage_Success(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n fake image body")
	url := "http://minio.local/profile-images/users/3/abc.png"

	svc := &mockUserService{
		uploadFn: func(ctx context.Context, id int64, img user.Image) (*model.User, error) {
			if id != 3 {
				t.Errorf("id = %d, want 3", id)
			}
			if img.Filename != "me.png" {
				t.Errorf("Filename = %q, want me.png", img.Filename)
			}
			if img.Size != int64(len(png)) {
				t.Errorf("Size = %d, want %d", img.Size, len(png))
			}
			got, _ := io.ReadAll(img.Body)
			if !bytes.Equal(got, png) {
				t.Error("uploaded body does not match")
			}
			return &model.User{ID: 3, ProfileImage: &url}, nil
		},
	}
	h := NewUserHandler(svc)

	body, contentType := multipartImage(t, "image", "me.png", png)
	req := httptest.NewRequest(http.MethodPost, "/v1/users/3/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	req = withIdentity(withChiURLParam(req, "id", "3"), 3, model.RoleOfficer)
	w := httptest.NewRecorder()

	h.UploadProfileImage(w, req)

	resp := assertSuccess(t, w)
	u := resp["user"].(map[string]any)
	if u["profile_image"] != url {
		t.Errorf("profile_image = %v, want %s", u["profile_image"], url)
	}
}

func TestUserHandler_UploadProfileImage_MissingFile(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	body, contentType := multipartImage(t, "avatar", "me.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/users/3/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	req = withIdentity(withChiURLParam(req, "id", "3"), 3, model.RoleOfficer)
	w := httptest.NewRecorder()

	h.UploadProfileImage(w, req)

	assertError(t, w, "Missing required field: image")
}

func TestUserHandler_UploadProfileImage_OtherUserForbidden(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	body, contentType := multipartImage(t, "image", "me.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/users/3/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	req = withIdentity(withChiURLParam(req, "id", "3"), 4, model.RoleOfficer)
	w := httptest.NewRecorder()

	h.UploadProfileImage(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("HTTP status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUserHandler_UploadProfileImage_StorageNotConfigured(t *testing.T) {
	svc := &mockUserService{
		uploadFn: func(ctx context.Context, id int64, img user.Image) (*model.User, error) {
			return nil, model.NewStorageUnavailableError()
		},
	}
	h := NewUserHandler(svc)

	body, contentType := multipartImage(t, "image", "me.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/users/3/profile-image", body)
	req.Header.Set("Content-Type", contentType)
	req = withIdentity(withChiURLParam(req, "id", "3"), 1, model.RoleAdmin)
	w := httptest.NewRecorder()

	h.UploadProfileImage(w, req)

	assertError(t, w, "Image storage is not configured")
}
