package order

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// AssignDelivery は注文に配達担当を割り当てる。
// delivery_person_name と delivery_person_phone は任意、statusの省略時はassigned。
func (s *Service) AssignDelivery(ctx context.Context, orderID int64, f input.Fields) (*model.Delivery, error) {
	status := model.DeliveryStatuses[0]
	if f.Has("status") {
		status = f.String("status")
		if !slices.Contains(model.DeliveryStatuses, status) {
			return nil, model.NewInvalidStatusError(model.DeliveryStatuses)
		}
	}

	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}

	d := &model.Delivery{
		OrderID:     orderID,
		PersonName:  f.Optional("delivery_person_name"),
		PersonPhone: f.Optional("delivery_person_phone"),
		Status:      status,
	}
	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to assign delivery: %w", err)
	}
	return d, nil
}

// GetDelivery は注文の配達を取得する。
func (s *Service) GetDelivery(ctx context.Context, orderID int64) (*model.Delivery, error) {
	d, err := s.deliveries.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if d == nil {
		return nil, model.NewNotFoundError("Delivery")
	}
	return d, nil
}

// UpdateDeliveryStatus は配達ステータスを変更する。
func (s *Service) UpdateDeliveryStatus(ctx context.Context, id int64, f input.Fields) (*model.Delivery, error) {
	if missing := f.Missing("status"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}
	status := f.String("status")
	if !slices.Contains(model.DeliveryStatuses, status) {
		return nil, model.NewInvalidStatusError(model.DeliveryStatuses)
	}

	d, err := s.deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	if d == nil {
		return nil, model.NewNotFoundError("Delivery")
	}
	if err := s.deliveries.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Delivery")
		}
		return nil, fmt.Errorf("failed to update delivery status: %w", err)
	}
	d.Status = status
	return d, nil
}
