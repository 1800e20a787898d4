package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/user"
)

// maxUploadBytes はプロフィール画像アップロードのリクエストボディ上限。
// 画像本体の上限(5 MiB)にマルチパートのヘッダー分を加えた値。
const maxUploadBytes = 6 << 20

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, f input.Fields) (*model.User, error)
	Update(ctx context.Context, id int64, f input.Fields) (*model.User, error)
	Delete(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, current, next string) error
	UploadProfileImage(ctx context.Context, id int64, img user.Image) (*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List は全ユーザーを返す。
// GET /v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, "list users", err)
		return
	}
	writeList(w, "users", users, "No users found")
}

// Get は指定IDのユーザーを返す。
// GET /v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, "get user", err)
		return
	}
	writeSuccess(w, "user", u, "")
}

// GetByEmail はメールアドレスでユーザーを返す。
// GET /v1/users/email/{email}
func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, r, "get user", err)
		return
	}
	writeSuccess(w, "user", u, "")
}

// GetByUsername はユーザー名でユーザーを返す。
// GET /v1/users/username/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.FindByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, "get user", err)
		return
	}
	writeSuccess(w, "user", u, "")
}

// Create はユーザーを作成する。
// POST /v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	u, err := h.service.Create(r.Context(), f)
	if err != nil {
		handleServiceError(w, r, "create user", err)
		return
	}
	writeSuccess(w, "user", u, "User created successfully")
}

// Update はユーザーを部分更新する。
// PATCH /v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	u, err := h.service.Update(r.Context(), id, f)
	if err != nil {
		handleServiceError(w, r, "update user", err)
		return
	}
	writeSuccess(w, "user", u, "User updated successfully")
}

// Delete はユーザーを削除する。
// DELETE /v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, "delete user", err)
		return
	}
	writeSuccess(w, "", nil, "User deleted successfully")
}

// UpdatePassword は現在のパスワードを確認してパスワードを変更する。
// 管理者以外は自分のアカウントのみ変更できる。
// POST /v1/users/password/update
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeFields(w, r)
	if !ok {
		return
	}
	userID, present, err := f.Int64("user_id")
	if !present {
		writeAPIError(w, model.NewMissingFieldsError("user_id"))
		return
	}
	if err != nil {
		writeAPIError(w, model.NewNotNumericError("user_id"))
		return
	}
	if !requireSelfOrAdmin(w, r, userID) {
		return
	}

	current, _ := f.Text("current_password")
	next, _ := f.Text("new_password")
	if err := h.service.UpdatePassword(r.Context(), userID, current, next); err != nil {
		handleServiceError(w, r, "update password", err)
		return
	}
	writeSuccess(w, "", nil, "Password updated successfully")
}

// UploadProfileImage はマルチパートの image を保存し、ユーザーのprofile_imageを更新する。
// 管理者以外は自分のアカウントのみ変更できる。
// POST /v1/users/{id}/profile-image
func (h *UserHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !requireSelfOrAdmin(w, r, id) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, model.NewInvalidFieldError("image", "Image must not exceed 5 MiB"))
			return
		}
		writeAPIError(w, model.NewMissingFieldsError("image"))
		return
	}
	defer file.Close()

	u, err := h.service.UploadProfileImage(r.Context(), id, user.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		handleServiceError(w, r, "upload profile image", err)
		return
	}
	writeSuccess(w, "user", u, "Profile image updated successfully")
}
