// Package notification はユーザー宛て通知の作成と既読管理を提供する。
package notification

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

// Service は通知のサービス層。
type Service struct {
	repo      repository.NotificationRepository
	users     UserFinder
	sanitizer security.Sanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.NotificationRepository, users UserFinder, sanitizer security.Sanitizer) *Service {
	return &Service{repo: repo, users: users, sanitizer: sanitizer}
}

// ListByUser はユーザーの通知を新しい順に取得する。
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*model.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// Create はユーザー宛ての通知を作成する。必須: title, message。
func (s *Service) Create(ctx context.Context, userID int64, f input.Fields) (*model.Notification, error) {
	if missing := f.Missing("title", "message"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	n := &model.Notification{
		UserID:  userID,
		Title:   s.sanitizer.Sanitize(f.String("title")),
		Message: s.sanitizer.Sanitize(f.String("message")),
	}
	if n.Title == "" {
		return nil, model.NewInvalidFieldError("title", "Title cannot be empty")
	}
	if n.Message == "" {
		return nil, model.NewInvalidFieldError("message", "Message cannot be empty")
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if u == nil {
		return nil, model.NewParentNotFoundError("User", "user_id")
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// MarkRead は通知を既読にする。
func (s *Service) MarkRead(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if n == nil {
		return nil, model.NewNotFoundError("Notification")
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Notification")
		}
		return nil, fmt.Errorf("failed to mark notification: %w", err)
	}
	n.IsRead = true
	return n, nil
}
