// Package manager は店舗マネージャーアカウント管理のドメインロジックを提供する。
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化インターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Config はマネージャーサービスの設定。
type Config struct {
	PasswordMinLength int
}

// Service はマネージャーアカウントのサービス層。
type Service struct {
	repo   repository.ManagerRepository
	hasher PasswordHasher
	config Config
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ManagerRepository, hasher PasswordHasher, config Config) *Service {
	return &Service{repo: repo, hasher: hasher, config: config}
}

func errNameTaken() *model.APIError {
	return model.NewDuplicateError("name", "Name already in use by another manager")
}

func errEmailTaken() *model.APIError {
	return model.NewDuplicateError("email", "Email already in use by another manager")
}

func errNotFound() *model.APIError {
	return model.NewNotFoundError("Manager")
}

// List は全マネージャーを取得する。
func (s *Service) List(ctx context.Context) ([]*model.Manager, error) {
	managers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	return managers, nil
}

// Get は指定IDのマネージャーを取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.Manager, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get manager: %w", err)
	}
	if m == nil {
		return nil, errNotFound()
	}
	return m, nil
}

// Create はマネージャーを作成する。必須: name, email, password。phoneは任意。
func (s *Service) Create(ctx context.Context, f input.Fields) (*model.Manager, error) {
	if missing := f.Missing("name", "email", "password"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	plain, _ := f.Text("password")
	if len([]rune(plain)) < s.config.PasswordMinLength {
		e := model.NewPasswordTooShortError(s.config.PasswordMinLength)
		e.Field = "password"
		return nil, e
	}

	name := f.String("name")
	email := f.String("email")
	if err := s.checkUnique(ctx, 0, &name, &email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	m := &model.Manager{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        f.Optional("phone"),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if apiErr := uniqueError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}
	m.PasswordHash = ""

	slog.Info("manager created", slog.Int64("manager_id", m.ID))
	return m, nil
}

// Update はマネージャーを部分更新する。更新可能な項目は name, email, phone のみ。
func (s *Service) Update(ctx context.Context, id int64, f input.Fields) (*model.Manager, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	patch := model.ManagerPatch{
		Name:  f.Optional("name"),
		Email: f.Optional("email"),
		Phone: f.Optional("phone"),
	}
	if patch.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, model.NewInvalidFieldError("name", "Name cannot be empty")
	}
	if patch.Email != nil && *patch.Email == "" {
		return nil, model.NewInvalidFieldError("email", "Email cannot be empty")
	}

	if err := s.checkUnique(ctx, id, patch.Name, patch.Email); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if apiErr := uniqueError(err); apiErr != nil {
			return nil, apiErr
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, fmt.Errorf("failed to update manager: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete はマネージャーを削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound()
		}
		return fmt.Errorf("failed to delete manager: %w", err)
	}
	slog.Info("manager deleted", slog.Int64("manager_id", id))
	return nil
}

func (s *Service) checkUnique(ctx context.Context, excludeID int64, name, email *string) error {
	if name != nil {
		m, err := s.repo.FindByName(ctx, *name)
		if err != nil {
			return fmt.Errorf("failed to check manager name: %w", err)
		}
		if m != nil && m.ID != excludeID {
			return errNameTaken()
		}
	}
	if email != nil {
		m, err := s.repo.FindByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("failed to check manager email: %w", err)
		}
		if m != nil && m.ID != excludeID {
			return errEmailTaken()
		}
	}
	return nil
}

func uniqueError(err error) *model.APIError {
	uv, ok := repository.AsUniqueViolation(err)
	if !ok {
		return nil
	}
	if uv.Field == "name" {
		return errNameTaken()
	}
	return errEmailTaken()
}
