package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

type ConfirmOrderRequest struct {
	AddressID     uuid.UUID            `json:"address_id" validate:"required"`
	CartID        uuid.UUID            `json:"cart_id" validate:"required"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" validate:"required,oneof=qr_code bank_transfer"`
}

type UpdateOrderStatusRequest struct {
	OrderID uuid.UUID          `json:"order_id" validate:"required"`
	Status  domain.OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

type orderEnvelope struct {
	Message string       `json:"message"`
	Order   domain.Order `json:"order"`
}

func (c *Client) ConfirmOrder(ctx context.Context, in ConfirmOrderRequest) (domain.Order, error) {
	if err := c.validateInput(in); err != nil {
		return domain.Order{}, err
	}
	var out orderEnvelope
	if err := c.sendJSON(ctx, "confirm_order", http.MethodPost, "/order/confirm", in, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	var out struct {
		Message string         `json:"message"`
		Orders  []domain.Order `json:"orders"`
	}
	if err := c.getJSON(ctx, "order_history", "/order/history", false, &out); err != nil {
		return nil, err
	}
	if out.Orders == nil {
		return []domain.Order{}, nil
	}
	return out.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	var out orderEnvelope
	if err := c.getJSON(ctx, "get_order", fmt.Sprintf("/order/%s", id), false, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) TrackOrder(ctx context.Context, trackingID string) (domain.Order, error) {
	var out orderEnvelope
	path := "/order/tracking/" + url.PathEscape(trackingID)
	if err := c.getJSON(ctx, "track_order", path, false, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, in UpdateOrderStatusRequest) (domain.Order, error) {
	if err := c.validateInput(in); err != nil {
		return domain.Order{}, err
	}
	var out orderEnvelope
	if err := c.sendJSON(ctx, "update_order_status", http.MethodPut, "/order/status", in, &out); err != nil {
		return domain.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) Profile(ctx context.Context) (domain.Profile, error) {
	var out envelope[domain.Profile]
	if err := c.getJSON(ctx, "get_profile", "/users/profile", false, &out); err != nil {
		return domain.Profile{}, err
	}
	return out.Data, nil
}
