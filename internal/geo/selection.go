package geo

import (
	"slices"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

type Stage int

const (
	Unselected Stage = iota
	ProvinceChosen
	DistrictChosen
	Resolved
)

func (s Stage) String() string {
	switch s {
	case Unselected:
		return "unselected"
	case ProvinceChosen:
		return "province_chosen"
	case DistrictChosen:
		return "district_chosen"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Selection is the cascading province → district → sub-district choice.
// It is a value: transitions return a new Selection and never touch the
// receiver, so a failed step leaves the caller holding the old one.
type Selection struct {
	stage        Stage
	province     domain.Province
	district     domain.District
	subDistrict  domain.SubDistrict
	districts    []domain.District
	subDistricts []domain.SubDistrict
}

func (s Selection) Stage() Stage {
	return s.stage
}

func (s Selection) IsResolved() bool {
	return s.stage == Resolved
}

// WithProvince picks province and the districts fetched for it. Any district
// or sub-district chosen before is dropped, whatever the current stage.
func (s Selection) WithProvince(province domain.Province, districts []domain.District) Selection {
	return Selection{
		stage:     ProvinceChosen,
		province:  province,
		districts: slices.Clone(districts),
	}
}

// CheckDistrict reports whether code can be chosen from the current state.
func (s Selection) CheckDistrict(code int) error {
	if s.stage < ProvinceChosen {
		return ErrProvinceRequired
	}
	if _, ok := s.findDistrict(code); !ok {
		return ErrUnknownDistrict
	}
	return nil
}

// WithDistrict picks a district of the chosen province together with its
// sub-districts, dropping any sub-district chosen before.
func (s Selection) WithDistrict(code int, subDistricts []domain.SubDistrict) (Selection, error) {
	if err := s.CheckDistrict(code); err != nil {
		return s, err
	}
	district, _ := s.findDistrict(code)
	return Selection{
		stage:        DistrictChosen,
		province:     s.province,
		district:     district,
		districts:    s.districts,
		subDistricts: slices.Clone(subDistricts),
	}, nil
}

func (s Selection) WithSubDistrict(code int) (Selection, error) {
	if s.stage < DistrictChosen {
		return s, ErrDistrictRequired
	}
	idx := slices.IndexFunc(s.subDistricts, func(sd domain.SubDistrict) bool { return sd.Code == code })
	if idx < 0 {
		return s, ErrUnknownSubDistrict
	}
	next := s
	next.stage = Resolved
	next.subDistrict = s.subDistricts[idx]
	return next, nil
}

func (s Selection) Province() (domain.Province, bool) {
	return s.province, s.stage >= ProvinceChosen
}

func (s Selection) District() (domain.District, bool) {
	return s.district, s.stage >= DistrictChosen
}

func (s Selection) SubDistrict() (domain.SubDistrict, bool) {
	return s.subDistrict, s.stage == Resolved
}

// PostalCode is read off the chosen sub-district; it is never entered.
func (s Selection) PostalCode() (int, bool) {
	if s.stage != Resolved {
		return 0, false
	}
	return s.subDistrict.PostalCode, true
}

// Districts lists the choices for the next step after a province.
func (s Selection) Districts() []domain.District {
	return slices.Clone(s.districts)
}

func (s Selection) SubDistricts() []domain.SubDistrict {
	return slices.Clone(s.subDistricts)
}

func (s Selection) findDistrict(code int) (domain.District, bool) {
	idx := slices.IndexFunc(s.districts, func(d domain.District) bool { return d.Code == code })
	if idx < 0 {
		return domain.District{}, false
	}
	return s.districts[idx], true
}
