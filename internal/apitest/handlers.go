package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

func codeParam(r *http.Request) (int, bool) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	return code, err == nil
}

func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) listProvinces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]any{"data": s.provinces})
}

func (s *Server) listDistricts(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid province code")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.District{}
	for _, d := range s.districts {
		if d.ProvinceCode == code {
			out = append(out, d)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) listSubDistricts(w http.ResponseWriter, r *http.Request) {
	code, ok := codeParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid district code")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.SubDistrict{}
	for _, sd := range s.subDistricts {
		if sd.DistrictCode == code {
			out = append(out, sd)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": out})
}

type addressPayload struct {
	ProvinceCode    int    `json:"province_code"`
	DistrictCode    int    `json:"district_code"`
	SubDistrictCode int    `json:"sub_district_code"`
	AddressDetail   string `json:"address_detail"`
}

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.Address{}, s.addresses...)
	respondJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) getAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid address ID")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.addresses {
		if a.ID == id {
			respondJSON(w, http.StatusOK, map[string]any{"data": a})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Address not found")
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request) {
	var req addressPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.addresses) >= s.maxAddresses {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("You can only have up to %d addresses", s.maxAddresses))
		return
	}
	addr, ok := s.buildAddress(uuid.New(), req.SubDistrictCode, req.AddressDetail)
	if !ok || addr.DistrictCode != req.DistrictCode || addr.ProvinceCode != req.ProvinceCode {
		respondError(w, http.StatusBadRequest, "Invalid address codes")
		return
	}
	s.addresses = append(s.addresses, addr)
	respondJSON(w, http.StatusCreated, addr)
}

func (s *Server) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid address ID")
		return
	}
	var req addressPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.addresses {
		if a.ID != id {
			continue
		}
		addr, ok := s.buildAddress(id, req.SubDistrictCode, req.AddressDetail)
		if !ok || addr.DistrictCode != req.DistrictCode || addr.ProvinceCode != req.ProvinceCode {
			respondError(w, http.StatusBadRequest, "Invalid address codes")
			return
		}
		s.addresses[i] = addr
		respondJSON(w, http.StatusOK, addr)
		return
	}
	respondError(w, http.StatusNotFound, "Address not found")
}

func (s *Server) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid address ID")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.addresses {
		if a.ID == id {
			s.addresses = append(s.addresses[:i], s.addresses[i+1:]...)
			respondJSON(w, http.StatusOK, map[string]string{"message": "Address deleted successfully"})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Address not found")
}

func (s *Server) respondCart(w http.ResponseWriter, status int) {
	respondJSON(w, status, map[string]any{"message": "success", "data": s.cart})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respondCart(w, http.StatusOK)
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SnackID  uuid.UUID `json:"snack_id"`
		Quantity int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[req.SnackID]
	if !ok {
		respondError(w, http.StatusNotFound, "Snack not found")
		return
	}
	for i, item := range s.cart.Items {
		if item.ProductID != req.SnackID {
			continue
		}
		if item.Quantity+req.Quantity > product.Stock {
			respondError(w, http.StatusBadRequest, "Not enough stock available")
			return
		}
		s.cart.Items[i].Quantity += req.Quantity
		s.respondCart(w, http.StatusOK)
		return
	}
	if req.Quantity > product.Stock {
		respondError(w, http.StatusBadRequest, "Not enough stock available")
		return
	}
	s.cart.Items = append(s.cart.Items, domain.CartItem{
		ID:        uuid.New(),
		ProductID: product.ID,
		Quantity:  req.Quantity,
		Product:   product,
	})
	s.respondCart(w, http.StatusOK)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID   uuid.UUID `json:"item_id"`
		SnackID  uuid.UUID `json:"snack_id"`
		Quantity int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.cart.Items {
		if item.ID != req.ItemID {
			continue
		}
		if req.Quantity > item.Product.Stock {
			respondError(w, http.StatusBadRequest, "Quantity exceeds available stock")
			return
		}
		s.cart.Items[i].Quantity = req.Quantity
		s.respondCart(w, http.StatusOK)
		return
	}
	respondError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.cart.Items {
		if item.ID == id {
			s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
			s.respondCart(w, http.StatusOK)
			return
		}
	}
	respondError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]any{"data": s.profile})
}

// confirmOrder consumes the open cart and opens a fresh one, like the
// backend does.
func (s *Server) confirmOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AddressID     uuid.UUID            `json:"address_id"`
		CartID        uuid.UUID            `json:"cart_id"`
		PaymentMethod domain.PaymentMethod `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.CartID != s.cart.ID || s.cart.Status != domain.CartStatusOpen {
		respondError(w, http.StatusBadRequest, "Cart not found or already ordered")
		return
	}
	if s.cart.IsEmpty() {
		respondError(w, http.StatusBadRequest, "Cart is empty")
		return
	}
	var address *domain.Address
	for i := range s.addresses {
		if s.addresses[i].ID == req.AddressID {
			address = &s.addresses[i]
		}
	}
	if address == nil {
		respondError(w, http.StatusBadRequest, "Address not found")
		return
	}

	cart := s.cart.Clone()
	cart.Status = domain.CartStatusCheckedOut
	order := domain.Order{
		ID:            uuid.New(),
		TrackingID:    trackingID(),
		CartID:        cart.ID,
		Cart:          *cart,
		TotalPrice:    cart.Total(),
		Status:        domain.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		AddressID:     address.ID,
		Address:       *address,
		CreateAt:      time.Now().UTC(),
	}
	s.orders = append(s.orders, order)
	s.cart = &domain.Cart{ID: uuid.New(), Status: domain.CartStatusOpen}

	respondJSON(w, http.StatusCreated, map[string]any{"message": "Order confirmed successfully", "order": order})
}

func (s *Server) orderHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]domain.Order{}, s.orders...)
	respondJSON(w, http.StatusOK, map[string]any{"message": "success", "orders": out})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			respondJSON(w, http.StatusOK, map[string]any{"order": o})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Order not found")
}

func (s *Server) trackOrder(w http.ResponseWriter, r *http.Request) {
	tid := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.TrackingID == tid {
			respondJSON(w, http.StatusOK, map[string]any{"order": o})
			return
		}
	}
	respondError(w, http.StatusNotFound, "Order not found")
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID uuid.UUID          `json:"order_id"`
		Status  domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders {
		if o.ID != req.OrderID {
			continue
		}
		if !domain.CanTransitionTo(o.Status, req.Status) {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("Cannot change order status from %s to %s", o.Status, req.Status))
			return
		}
		s.orders[i].Status = req.Status
		respondJSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "order": s.orders[i]})
		return
	}
	respondError(w, http.StatusNotFound, "Order not found")
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	orderID, err := uuid.Parse(r.FormValue("order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	file, _, err := r.FormFile("files")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Payment proof file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.orders {
		if o.ID != orderID {
			continue
		}
		if o.HasPayment() {
			respondError(w, http.StatusBadRequest, "Payment already submitted for this order")
			return
		}
		payment := domain.Payment{
			ID:            uuid.New(),
			OrderID:       o.ID,
			PaymentMethod: o.PaymentMethod,
			Amount:        o.TotalPrice,
			CreateAt:      time.Now().UTC(),
		}
		s.orders[i].Payment = &payment
		s.proofs[payment.ID] = data
		respondJSON(w, http.StatusCreated, map[string]any{"message": "Payment created successfully", "payment": payment})
		return
	}
	respondError(w, http.StatusNotFound, "Order not found")
}

func (s *Server) getProof(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}
	s.mu.Lock()
	data, found := s.proofs[id]
	s.mu.Unlock()
	if !found {
		respondError(w, http.StatusNotFound, "Payment proof not found")
		return
	}
	writeImage(w, data)
}

func (s *Server) getProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid snack ID")
		return
	}
	s.mu.Lock()
	data, found := s.images[id]
	s.mu.Unlock()
	if !found {
		respondError(w, http.StatusNotFound, "Image not found")
		return
	}
	writeImage(w, data)
}

func writeImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
