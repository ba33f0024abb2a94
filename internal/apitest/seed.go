package apitest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

// Reference codes seeded by NewServer.
const (
	Bangkok     = 10
	PhraNakhon  = 1001
	Dusit       = 1002
	ChiangMai   = 50
	MueangCM    = 5001
	GrandPalace = 100101
	WangBurapha = 100102
	DusitSub    = 100201
	SiPhum      = 500101
)

func (s *Server) seedGeo() {
	s.provinces = []domain.Province{
		{ID: 1, Code: Bangkok, NameEN: "Bangkok", NameTH: "กรุงเทพมหานคร"},
		{ID: 38, Code: ChiangMai, NameEN: "Chiang Mai", NameTH: "เชียงใหม่"},
	}
	s.districts = []domain.District{
		{ID: 1, Code: PhraNakhon, ProvinceCode: Bangkok, NameEN: "Phra Nakhon", NameTH: "พระนคร"},
		{ID: 2, Code: Dusit, ProvinceCode: Bangkok, NameEN: "Dusit", NameTH: "ดุสิต"},
		{ID: 501, Code: MueangCM, ProvinceCode: ChiangMai, NameEN: "Mueang Chiang Mai", NameTH: "เมืองเชียงใหม่"},
	}
	s.subDistricts = []domain.SubDistrict{
		{ID: 1, Code: GrandPalace, ProvinceCode: Bangkok, DistrictCode: PhraNakhon,
			NameEN: "Phra Borom Maha Ratchawang", NameTH: "พระบรมมหาราชวัง", PostalCode: 10200},
		{ID: 2, Code: WangBurapha, ProvinceCode: Bangkok, DistrictCode: PhraNakhon,
			NameEN: "Wang Burapha Phirom", NameTH: "วังบูรพาภิรมย์", PostalCode: 10200},
		{ID: 13, Code: DusitSub, ProvinceCode: Bangkok, DistrictCode: Dusit,
			NameEN: "Dusit", NameTH: "ดุสิต", PostalCode: 10300},
		{ID: 4001, Code: SiPhum, ProvinceCode: ChiangMai, DistrictCode: MueangCM,
			NameEN: "Si Phum", NameTH: "ศรีภูมิ", PostalCode: 50200},
	}
}

func (s *Server) AddProduct(name string, price float64, stock int) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Product{ID: uuid.New(), Name: name, Price: price, Stock: stock, Type: "snack"}
	s.products[p.ID] = p
	return p
}

func (s *Server) SetProductImage(productID uuid.UUID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[productID] = data
}

// PutCartItem places product in the open cart with quantity qty.
func (s *Server) PutCartItem(product domain.Product, qty int) domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := domain.CartItem{ID: uuid.New(), ProductID: product.ID, Quantity: qty, Product: product}
	s.cart.Items = append(s.cart.Items, item)
	return item
}

// Cart returns a copy of the server's open cart.
func (s *Server) Cart() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Server) AddAddress(subDistrictCode int, detail string) domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr, ok := s.buildAddress(uuid.New(), subDistrictCode, detail)
	if !ok {
		panic(fmt.Sprintf("apitest: unknown sub-district %d", subDistrictCode))
	}
	s.addresses = append(s.addresses, addr)
	return addr
}

func (s *Server) Addresses() []domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Address(nil), s.addresses...)
}

// AddOrder stores order, filling in ID, tracking ID and timestamps when
// they are zero.
func (s *Server) AddOrder(order domain.Order) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.TrackingID == "" {
		order.TrackingID = trackingID()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if order.CreateAt.IsZero() {
		order.CreateAt = time.Now().UTC()
	}
	s.orders = append(s.orders, order)
	return order
}

func (s *Server) Order(id uuid.UUID) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (s *Server) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders...)
}

func (s *Server) SetProof(paymentID uuid.UUID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs[paymentID] = data
}

func (s *Server) Proof(paymentID uuid.UUID) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.proofs[paymentID]
	return data, ok
}

// buildAddress resolves names and postal code from the seeded tree. Callers
// hold s.mu.
func (s *Server) buildAddress(id uuid.UUID, subDistrictCode int, detail string) (domain.Address, bool) {
	var sub *domain.SubDistrict
	for i := range s.subDistricts {
		if s.subDistricts[i].Code == subDistrictCode {
			sub = &s.subDistricts[i]
			break
		}
	}
	if sub == nil {
		return domain.Address{}, false
	}
	addr := domain.Address{
		ID:                id,
		SubDistrictCode:   sub.Code,
		SubDistrictNameTH: sub.NameTH,
		PostalCode:        sub.PostalCode,
		AddressDetail:     detail,
		UserID:            s.profile.ID,
	}
	for _, d := range s.districts {
		if d.Code == sub.DistrictCode {
			addr.DistrictCode, addr.DistrictNameTH = d.Code, d.NameTH
		}
	}
	for _, p := range s.provinces {
		if p.Code == sub.ProvinceCode {
			addr.ProvinceCode, addr.ProvinceNameTH = p.Code, p.NameTH
		}
	}
	return addr, true
}

func trackingID() string {
	return "TRK-" + uuid.NewString()[:8]
}
