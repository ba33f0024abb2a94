package geo

import "errors"

var (
	ErrUnknownProvince    = errors.New("province not found")
	ErrUnknownDistrict    = errors.New("district does not belong to the selected province")
	ErrUnknownSubDistrict = errors.New("sub-district does not belong to the selected district")
	ErrProvinceRequired   = errors.New("please select a province first")
	ErrDistrictRequired   = errors.New("please select a district first")
)
