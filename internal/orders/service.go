// Package orders reads the shopper's orders and applies administrator
// status changes.
package orders

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
	"github.com/fjod/go_cart/storefront-client/internal/payment"
)

type Client interface {
	OrderHistory(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
	TrackOrder(ctx context.Context, trackingID string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, in api.UpdateOrderStatusRequest) (domain.Order, error)
}

type Service struct {
	client Client
	log    *slog.Logger
}

func NewService(client Client, log *slog.Logger) *Service {
	return &Service{client: client, log: logger.OrDiscard(log)}
}

// History returns the shopper's orders, newest first.
func (s *Service) History(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.client.OrderHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("order history: %w", err)
	}
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return cmp.Compare(b.CreateAt.UnixNano(), a.CreateAt.UnixNano())
	})
	return orders, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	order, err := s.client.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *Service) Track(ctx context.Context, trackingID string) (domain.Order, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return domain.Order{}, ErrTrackingIDRequired
	}
	order, err := s.client.TrackOrder(ctx, trackingID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("track order: %w", err)
	}
	return order, nil
}

// CanUploadProof tells whether the order view should offer a proof upload
// instead of showing a stored proof.
func CanUploadProof(order domain.Order) bool {
	return payment.CanUpload(order)
}

// UpdateStatus moves an order to status (administrator). The transition is
// checked against the current status before anything is sent.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (domain.Order, error) {
	to, ok := domain.ParseOrderStatus(status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransitionTo(current.Status, to) {
		return domain.Order{}, &TransitionError{From: current.Status, To: to}
	}

	updated, err := s.client.UpdateOrderStatus(ctx, api.UpdateOrderStatusRequest{OrderID: id, Status: to})
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}
	s.log.Info("order status updated", logger.Traced(ctx),
		slog.String("order_id", id.String()), slog.String("from", current.Status.String()), slog.String("to", to.String()))
	return updated, nil
}
