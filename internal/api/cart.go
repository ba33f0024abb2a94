package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"snack_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type UpdateItemRequest struct {
	ItemID    uuid.UUID `json:"item_id" validate:"required"`
	ProductID uuid.UUID `json:"snack_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

var errInvalidCart = errors.New("invalid cart data structure")

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var out envelope[*domain.Cart]
	if err := c.getJSON(ctx, "get_cart", "/cart/", false, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("get_cart: %w", errInvalidCart)
	}
	return out.Data, nil
}

func (c *Client) AddCartItem(ctx context.Context, in AddItemRequest) (*domain.Cart, error) {
	if err := c.validateInput(in); err != nil {
		return nil, err
	}
	var out envelope[*domain.Cart]
	if err := c.sendJSON(ctx, "add_cart_item", http.MethodPost, "/cart/", in, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, in UpdateItemRequest) (*domain.Cart, error) {
	if err := c.validateInput(in); err != nil {
		return nil, err
	}
	var out envelope[*domain.Cart]
	if err := c.sendJSON(ctx, "update_cart_item", http.MethodPut, "/cart/", in, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID uuid.UUID) (*domain.Cart, error) {
	var out envelope[*domain.Cart]
	path := fmt.Sprintf("/cart/%s", itemID)
	if err := c.sendJSON(ctx, "remove_cart_item", http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
