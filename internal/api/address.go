package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

// AddressRequest is the create/update payload. PostalCode is not part of
// it: the server derives it from the sub-district.
type AddressRequest struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	ProvinceCode    int        `json:"province_code" validate:"required,gt=0"`
	DistrictCode    int        `json:"district_code" validate:"required,gt=0"`
	SubDistrictCode int        `json:"sub_district_code" validate:"required,gt=0"`
	AddressDetail   string     `json:"address_detail" validate:"required,max=500"`
}

func (c *Client) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	var out envelope[[]domain.Address]
	if err := c.getJSON(ctx, "list_addresses", "/address/", false, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []domain.Address{}, nil
	}
	return out.Data, nil
}

func (c *Client) GetAddress(ctx context.Context, id uuid.UUID) (domain.Address, error) {
	resp, err := c.do(ctx, request{op: "get_address", method: http.MethodGet, path: fmt.Sprintf("/address/%s", id)})
	if err != nil {
		return domain.Address{}, err
	}
	return decodeAddress("get_address", resp.body)
}

func (c *Client) CreateAddress(ctx context.Context, in AddressRequest) (domain.Address, error) {
	return c.writeAddress(ctx, "create_address", http.MethodPost, "/address/", in)
}

func (c *Client) UpdateAddress(ctx context.Context, id uuid.UUID, in AddressRequest) (domain.Address, error) {
	in.ID = &id
	return c.writeAddress(ctx, "update_address", http.MethodPut, fmt.Sprintf("/address/%s", id), in)
}

func (c *Client) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	return c.sendJSON(ctx, "delete_address", http.MethodDelete, fmt.Sprintf("/address/%s", id), nil, nil)
}

func (c *Client) writeAddress(ctx context.Context, op, method, path string, in AddressRequest) (domain.Address, error) {
	if err := c.validateInput(in); err != nil {
		return domain.Address{}, err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.Address{}, fmt.Errorf("%s: marshal request: %w", op, err)
	}
	resp, err := c.do(ctx, request{
		op:          op,
		method:      method,
		path:        path,
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	})
	if err != nil {
		return domain.Address{}, err
	}
	return decodeAddress(op, resp.body)
}

// decodeAddress accepts both `{data: Address}` and a bare Address; the
// server answers writes with the latter.
func decodeAddress(op string, body []byte) (domain.Address, error) {
	var wrapped struct {
		Data *domain.Address `json:"data"`
	}
	if err := decode(op, body, &wrapped); err != nil {
		return domain.Address{}, err
	}
	if wrapped.Data != nil {
		return *wrapped.Data, nil
	}
	var addr domain.Address
	if err := decode(op, body, &addr); err != nil {
		return domain.Address{}, err
	}
	return addr, nil
}
