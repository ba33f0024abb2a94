package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Province, District and SubDistrict form a strict tree of static reference
// data. Only SubDistrict carries a postal code.
type Province struct {
	ID     int    `json:"id"`
	Code   int    `json:"province_code"`
	NameEN string `json:"province_name_en"`
	NameTH string `json:"province_name_th"`
}

type District struct {
	ID           int    `json:"id"`
	Code         int    `json:"district_code"`
	ProvinceCode int    `json:"province_code"`
	NameEN       string `json:"district_name_en"`
	NameTH       string `json:"district_name_th"`
}

type SubDistrict struct {
	ID           int    `json:"id"`
	Code         int    `json:"sub_district_code"`
	ProvinceCode int    `json:"province_code"`
	DistrictCode int    `json:"district_code"`
	NameEN       string `json:"sub_district_name_en"`
	NameTH       string `json:"sub_district_name_th"`
	PostalCode   int    `json:"postal_code"`
}

// Address is a stored delivery address. PostalCode is derived by the server
// from SubDistrictCode.
type Address struct {
	ID                uuid.UUID `json:"ID"`
	ProvinceCode      int       `json:"ProvinceCode"`
	ProvinceNameTH    string    `json:"ProvinceNameTH"`
	DistrictCode      int       `json:"DistrictCode"`
	DistrictNameTH    string    `json:"DistrictNameTH"`
	SubDistrictCode   int       `json:"SubDistrictCode"`
	SubDistrictNameTH string    `json:"SubDistrictNameTH"`
	PostalCode        int       `json:"PostalCode"`
	AddressDetail     string    `json:"AddressDetail"`
	UserID            uuid.UUID `json:"UserID"`
}

// Label renders the address the way the confirmation view shows it.
func (a Address) Label() string {
	return fmt.Sprintf("%s, %s, %s, %s %05d",
		a.AddressDetail, a.SubDistrictNameTH, a.DistrictNameTH, a.ProvinceNameTH, a.PostalCode)
}
