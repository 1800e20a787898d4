package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hitoshi/foodapi/internal/input"
	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/repository"
)

// CreatePayment は注文に支払いを記録する。必須: amount, method。
// statusの省略時はpending。
func (s *Service) CreatePayment(ctx context.Context, orderID int64, f input.Fields) (*model.Payment, error) {
	if missing := f.Missing("amount", "method"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}

	amount, err := parseAmount(f, "amount", "Amount")
	if err != nil {
		return nil, err
	}
	method := f.String("method")
	if !slices.Contains(model.PaymentMethods, method) {
		return nil, model.NewInvalidFieldError("method", "Invalid payment method")
	}
	status := "pending"
	if f.Has("status") {
		status = f.String("status")
		if !slices.Contains(model.PaymentStatuses, status) {
			return nil, model.NewInvalidStatusError(model.PaymentStatuses)
		}
	}

	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}

	p := &model.Payment{
		OrderID:        orderID,
		Amount:         *amount,
		Method:         method,
		Status:         status,
		TransactionRef: f.Optional("transaction_ref"),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	slog.Info("payment recorded",
		slog.Int64("payment_id", p.ID),
		slog.Int64("order_id", orderID),
		slog.String("method", method),
	)
	return p, nil
}

// ListPayments は注文の支払いを新しい順に取得する。
func (s *Service) ListPayments(ctx context.Context, orderID int64) ([]*model.Payment, error) {
	if _, err := s.Get(ctx, orderID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// UpdatePaymentStatus は支払いステータスを変更する。
func (s *Service) UpdatePaymentStatus(ctx context.Context, id int64, f input.Fields) (*model.Payment, error) {
	if missing := f.Missing("status"); len(missing) > 0 {
		return nil, model.NewMissingFieldsError(missing...)
	}
	status := f.String("status")
	if !slices.Contains(model.PaymentStatuses, status) {
		return nil, model.NewInvalidStatusError(model.PaymentStatuses)
	}

	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if p == nil {
		return nil, model.NewNotFoundError("Payment")
	}
	if err := s.payments.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError("Payment")
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	p.Status = status
	return p, nil
}
