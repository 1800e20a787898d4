// Package user はユーザーアカウント管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// ImageStore はプロフィール画像の保存先インターフェース。
type ImageStore interface {
	// PutProfileImage は画像を保存し、公開URLを返す。
	PutProfileImage(ctx context.Context, userID int64, img Image) (string, error)
}

// Image はアップロードされた画像ファイルを表す。
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Config はユーザーサービスの設定。
type Config struct {
	PasswordMinLength int
}

// Service はユーザーアカウントのサービス層。
// 必須項目・ロール・一意性の検証を行い、パスワードはハッシュ化して保存する。
type Service struct {
	repo   repository.UserRepository
	hasher PasswordHasher
	images ImageStore
	config Config
}

// NewService はServiceの新しいインスタンスを生成する。
// imagesがnilの場合、プロフィール画像のアップロードはエラーになる。
func NewService(repo repository.UserRepository, hasher PasswordHasher, images ImageStore, config Config) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		images: images,
		config: config,
	}
}

func errUsernameTaken() *model.APIError {
	return model.NewDuplicateError("username", "Username already in use by another account")
}

func errEmailTaken() *model.APIError {
	return model.NewDuplicateError("email", "Email already in use by another account")
}

// List は全ユーザーを取得する。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		e := model.NewNotFoundError("User")
		e.Message = fmt.Sprintf("User not found with id %d", id)
		return nil, e
	}
	return u, nil
}

// FindByEmail はメールアドレスでユーザーを取得する。
func (s *Service) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if u == nil {
		e := model.NewNotFoundError("User")
		e.Message = "User not found with this email"
		return nil, e
	}
	return u, nil
}

// FindByUsername はユーザー名でユーザーを取得する。
func (s *Service) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if u == nil {
		e := model.NewNotFoundError("User")
		e.Message = "User not found with this username"
		return nil, e
	}
	return u, nil
}

// Create はユーザーを作成する。
// 必須: role, username, email, password。作成後のユーザーをハッシュなしで返す。
func (s *Service) Create(ctx context.Context, f input.Fields) (*model.User, error) {
	if missing := f.Missing("role", "username", "email", "password"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	role := f.String("role")
	if !model.IsValidUserRole(role) {
		return nil, model.NewInvalidRoleError()
	}

	plain, _ := f.Text("password")
	if err := s.checkPasswordLength(plain, "password"); err != nil {
		return nil, err
	}

	username := f.String("username")
	email := f.String("email")
	if err := s.checkUnique(ctx, 0, &username, &email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &model.User{
		Role:         model.Role(role),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ProfileImage: f.Optional("profile_image"),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if apiErr := uniqueError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	u.PasswordHash = ""

	slog.Info("user created",
		slog.Int64("user_id", u.ID),
		slog.String("role", string(u.Role)),
	)
	return u, nil
}

// Update はユーザーを部分更新する。
// 更新可能な項目は role, username, email, profile_image のみで、それ以外は無視する。
func (s *Service) Update(ctx context.Context, id int64, f input.Fields) (*model.User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing == nil {
		return nil, model.NewNotFoundError("User")
	}

	var patch model.UserPatch
	if f.Has("role") {
		role := f.String("role")
		if !model.IsValidUserRole(role) {
			return nil, model.NewInvalidRoleError()
		}
		r := model.Role(role)
		patch.Role = &r
	}
	if v := f.Optional("username"); v != nil {
		if *v == "" {
			return nil, model.NewInvalidFieldError("username", "Username cannot be empty")
		}
		patch.Username = v
	}
	if v := f.Optional("email"); v != nil {
		if *v == "" {
			return nil, model.NewInvalidFieldError("email", "Email cannot be empty")
		}
		patch.Email = v
	}
	patch.ProfileImage = f.Optional("profile_image")

	if patch.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}

	if err := s.checkUnique(ctx, id, patch.Username, patch.Email); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if apiErr := uniqueError(err); apiErr != nil {
			return nil, apiErr
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("User")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete はユーザーを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if existing == nil {
		return model.NewNotFoundError("User")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("User")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

// UpdatePassword は現在のパスワードを確認したうえでパスワードを変更する。
func (s *Service) UpdatePassword(ctx context.Context, id int64, current, next string) error {
	var missing []string
	if current == "" {
		missing = append(missing, "current_password")
	}
	if next == "" {
		missing = append(missing, "new_password")
	}
	if len(missing) > 0 {
		return model.NewMissingFieldsError(missing...)
	}
	if err := s.checkPasswordLength(next, "new_password"); err != nil {
		return err
	}

	digest, err := s.repo.FindPasswordHash(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get password hash: %w", err)
	}
	if digest == "" {
		return model.NewNotFoundError("User")
	}
	if !s.hasher.Verify(current, digest) {
		return model.NewPasswordMismatchError()
	}

	return s.setPassword(ctx, id, next)
}

// ResetPassword は本人確認済みのユーザーのパスワードを置き換える。
// 最小長の検証のみを行い、現在のパスワードは確認しない。
func (s *Service) ResetPassword(ctx context.Context, id int64, next string) error {
	if err := s.checkPasswordLength(next, "new_password"); err != nil {
		return err
	}
	return s.setPassword(ctx, id, next)
}

// UploadProfileImage は画像を保存し、そのURLをユーザーのprofile_imageに設定する。
func (s *Service) UploadProfileImage(ctx context.Context, id int64, img Image) (*model.User, error) {
	if s.images == nil {
		return nil, model.NewStorageUnavailableError()
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing == nil {
		return nil, model.NewNotFoundError("User")
	}

	url, err := s.images.PutProfileImage(ctx, id, img)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, model.UserPatch{ProfileImage: &url}); err != nil {
		return nil, fmt.Errorf("failed to update profile image: %w", err)
	}
	existing.ProfileImage = &url
	return existing, nil
}

func (s *Service) setPassword(ctx context.Context, id int64, plain string) error {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("User")
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	slog.Info("password updated", slog.Int64("user_id", id))
	return nil
}

func (s *Service) checkPasswordLength(plain, field string) error {
	if len([]rune(plain)) < s.config.PasswordMinLength {
		e := model.NewPasswordTooShortError(s.config.PasswordMinLength)
		e.Field = field
		return e
	}
	return nil
}

// checkUnique はユーザー名・メールアドレスが他のユーザーに使われていないかを確認する。
// excludeIDのユーザー自身は対象外とする。nilの項目は確認しない。
func (s *Service) checkUnique(ctx context.Context, excludeID int64, username, email *string) error {
	if username != nil {
		u, err := s.repo.FindByUsername(ctx, *username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if u != nil && u.ID != excludeID {
			return errUsernameTaken()
		}
	}
	if email != nil {
		u, err := s.repo.FindByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if u != nil && u.ID != excludeID {
			return errEmailTaken()
		}
	}
	return nil
}

// uniqueError は一意制約違反を事前確認と同じ重複エラーに変換する。
// 一意制約違反でなければnilを返す。
func uniqueError(err error) *model.APIError {
	uv, ok := repository.AsUniqueViolation(err)
	if !ok {
		return nil
	}
	switch uv.Field {
	case "username":
		return errUsernameTaken()
	case "email":
		return errEmailTaken()
	default:
		return model.NewDuplicateError(uv.Field, "User already exists with this email or username")
	}
}
