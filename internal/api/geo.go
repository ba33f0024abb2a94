package api

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

// Geo reads are anonymous.

func (c *Client) Provinces(ctx context.Context) ([]domain.Province, error) {
	var out envelope[[]domain.Province]
	if err := c.getJSON(ctx, "list_provinces", "/address/provinces", true, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Districts(ctx context.Context, provinceCode int) ([]domain.District, error) {
	var out envelope[[]domain.District]
	path := fmt.Sprintf("/address/province/%d/districts", provinceCode)
	if err := c.getJSON(ctx, "list_districts", path, true, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) SubDistricts(ctx context.Context, districtCode int) ([]domain.SubDistrict, error) {
	var out envelope[[]domain.SubDistrict]
	path := fmt.Sprintf("/address/district/%d/sub_districts", districtCode)
	if err := c.getJSON(ctx, "list_sub_districts", path, true, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
