// Package address はユーザーの配送先住所を管理する。
package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
	"github.com/hitoshi/foodapi/internal/security"
)

// UserFinder はユーザーの存在確認インターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// Service は住所のサービス層。テキスト項目はタグを除去して保存する。
type Service struct {
	repo      repository.AddressRepository
	users     UserFinder
	sanitizer security.Sanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.AddressRepository, users UserFinder, sanitizer security.Sanitizer) *Service {
	return &Service{repo: repo, users: users, sanitizer: sanitizer}
}

// List は全住所を取得する。
func (s *Service) List(ctx context.Context) ([]*model.Address, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return list, nil
}

// ListByUser はユーザーの住所を取得する。
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*model.Address, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return list, nil
}

// Get は指定IDの住所を取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.Address, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if a == nil {
		return nil, model.NewNotFoundError("Address")
	}
	return a, nil
}

// Create はユーザーの住所を作成する。すべての項目が任意。
func (s *Service) Create(ctx context.Context, userID int64, f input.Fields) (*model.Address, error) {
	patch, err := s.parse(f)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if u == nil {
		return nil, model.NewParentNotFoundError("User", "user_id")
	}

	a := &model.Address{
		UserID:        userID,
		Name:          patch.Name,
		ContactNumber: patch.ContactNumber,
		AddressLine:   patch.AddressLine,
		Landmark:      patch.Landmark,
		Latitude:      patch.Latitude,
		Longitude:     patch.Longitude,
	}
	if patch.IsDefault != nil {
		a.IsDefault = *patch.IsDefault
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}
	return a, nil
}

// Update は住所を部分更新する。
// 更新可能な項目は name, contact_number, address_line, landmark, latitude, longitude, is_default。
func (s *Service) Update(ctx context.Context, id int64, f input.Fields) (*model.Address, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	patch, err := s.parse(f)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, model.NewNoValidFieldsError()
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Address")
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete は住所を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError("Address")
		}
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// parse は入力から住所の項目を取り出す。未指定の項目はnilのまま。
func (s *Service) parse(f input.Fields) (model.AddressPatch, error) {
	var p model.AddressPatch
	p.Name = s.text(f, "name")
	p.ContactNumber = s.text(f, "contact_number")
	p.AddressLine = s.text(f, "address_line")
	p.Landmark = s.text(f, "landmark")

	var err error
	if p.Latitude, err = coordinate(f, "latitude", 90); err != nil {
		return p, err
	}
	if p.Longitude, err = coordinate(f, "longitude", 180); err != nil {
		return p, err
	}

	isDefault, present, err := f.Bool("is_default")
	if err != nil {
		return p, model.NewInvalidFieldError("is_default", "is_default must be a boolean")
	}
	if present {
		p.IsDefault = &isDefault
	}
	return p, nil
}

func (s *Service) text(f input.Fields, key string) *string {
	v := f.Optional(key)
	if v == nil {
		return nil
	}
	out := s.sanitizer.Sanitize(*v)
	return &out
}

// coordinate は緯度・経度を数値として返す。絶対値がlimitを超える場合はエラー。
func coordinate(f input.Fields, key string, limit float64) (*float64, error) {
	v, present, err := f.Float(key)
	if !present {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewNotNumericError(key)
	}
	if v < -limit || v > limit {
		return nil, model.NewInvalidFieldError(key, fmt.Sprintf("%s must be between %g and %g", key, -limit, limit))
	}
	return &v, nil
}
