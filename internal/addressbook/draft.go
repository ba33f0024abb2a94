package addressbook

import (
	"strings"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/geo"
)

// Draft is an address ready to be saved. It can only be built from a
// resolved selection, so the three codes always form a valid branch of the
// tree and the postal code never has to be typed in.
type Draft struct {
	ProvinceCode    int    `validate:"required,gt=0"`
	DistrictCode    int    `validate:"required,gt=0"`
	SubDistrictCode int    `validate:"required,gt=0"`
	PostalCode      int    `validate:"required,gt=0"`
	Detail          string `validate:"required,max=500"`
}

func NewDraft(sel geo.Selection, detail string) (Draft, error) {
	if !sel.IsResolved() {
		return Draft{}, ErrSelectionIncomplete
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return Draft{}, ErrDetailRequired
	}
	province, _ := sel.Province()
	district, _ := sel.District()
	sub, _ := sel.SubDistrict()
	return Draft{
		ProvinceCode:    province.Code,
		DistrictCode:    district.Code,
		SubDistrictCode: sub.Code,
		PostalCode:      sub.PostalCode,
		Detail:          detail,
	}, nil
}

func (d Draft) request() api.AddressRequest {
	return api.AddressRequest{
		ProvinceCode:    d.ProvinceCode,
		DistrictCode:    d.DistrictCode,
		SubDistrictCode: d.SubDistrictCode,
		AddressDetail:   d.Detail,
	}
}
