// Package apitest runs an in-memory storefront API for tests. It speaks the
// same routes and envelopes as the real backend, counts calls per route,
// and lets a test inject failures or hold requests open.
package apitest

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/session"
)

const (
	BasePath = "/api/v1"
	Token    = "test-access-token"
)

// Route keys, used by Calls, Fail and Hold.
const (
	RouteProvinces     = "GET /address/provinces"
	RouteDistricts     = "GET /address/province/{code}/districts"
	RouteSubDistricts  = "GET /address/district/{code}/sub_districts"
	RouteListAddresses = "GET /address/"
	RouteGetAddress    = "GET /address/{id}"
	RouteCreateAddress = "POST /address/"
	RouteUpdateAddress = "PUT /address/{id}"
	RouteDeleteAddress = "DELETE /address/{id}"
	RouteGetCart       = "GET /cart/"
	RouteAddItem       = "POST /cart/"
	RouteUpdateItem    = "PUT /cart/"
	RouteRemoveItem    = "DELETE /cart/{id}"
	RouteProfile       = "GET /users/profile"
	RouteConfirmOrder  = "POST /order/confirm"
	RouteOrderHistory  = "GET /order/history"
	RouteGetOrder      = "GET /order/{id}"
	RouteTrackOrder    = "GET /order/tracking/{id}"
	RouteOrderStatus   = "PUT /order/status"
	RouteCreatePayment = "POST /payment/create"
	RouteProof         = "GET /payment/proof/{id}"
	RouteProductImage  = "GET /snack/image/{id}"
)

type failure struct {
	status     int
	message    string
	persistent bool
}

type gate struct {
	entered chan struct{}
	release chan struct{}
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	calls    map[string]int
	headers  map[string]http.Header
	failures map[string][]failure
	gates    map[string]*gate

	maxAddresses int
	provinces    []domain.Province
	districts    []domain.District
	subDistricts []domain.SubDistrict
	products     map[uuid.UUID]domain.Product
	images       map[uuid.UUID][]byte
	cart         *domain.Cart
	addresses    []domain.Address
	orders       []domain.Order
	proofs       map[uuid.UUID][]byte
	profile      domain.Profile
}

// NewServer starts a server seeded with reference geo data and an empty
// open cart. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		token:        Token,
		calls:        make(map[string]int),
		headers:      make(map[string]http.Header),
		failures:     make(map[string][]failure),
		gates:        make(map[string]*gate),
		maxAddresses: 2,
		products:     make(map[uuid.UUID]domain.Product),
		images:       make(map[uuid.UUID][]byte),
		proofs:       make(map[uuid.UUID][]byte),
		cart:         &domain.Cart{ID: uuid.New(), Status: domain.CartStatusOpen},
		profile: domain.Profile{
			ID:          uuid.New(),
			Username:    "somchai",
			Email:       "somchai@example.com",
			PhoneNumber: "0812345678",
			FirstName:   "Somchai",
			LastName:    "Jaidee",
		},
	}
	s.seedGeo()

	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is what api.Options.BaseURL should point at.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// NewClient returns an api.Client holding a valid token for this server.
func (s *Server) NewClient(t testing.TB) *api.Client {
	t.Helper()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), session.Tokens{AccessToken: Token}))
	sess, err := session.New(context.Background(), store, nil)
	require.NoError(t, err)
	return s.NewClientWithSession(t, sess)
}

func (s *Server) NewClientWithSession(t testing.TB, sess *session.Session) *api.Client {
	t.Helper()
	client, err := api.New(api.Options{BaseURL: s.BaseURL(), Session: sess})
	require.NoError(t, err)
	return client
}

// RevokeToken makes the server answer 401 to the current token.
func (s *Server) RevokeToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = uuid.NewString()
}

func (s *Server) SetMaxAddresses(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxAddresses = n
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastHeader returns the headers of the latest request to route.
func (s *Server) LastHeader(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route]
}

// FailNext makes the next request to route fail with status and message.
func (s *Server) FailNext(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, message: message})
}

// FailAlways makes every request to route fail until ClearFailures.
func (s *Server) FailAlways(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = []failure{{status: status, message: message, persistent: true}}
}

func (s *Server) ClearFailures(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold blocks requests to route until release is called. entered receives
// one value per request that reached the gate.
func (s *Server) Hold(route string) (entered <-chan struct{}, release func()) {
	g := &gate{
		entered: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
	s.mu.Lock()
	s.gates[route] = g
	s.mu.Unlock()

	var once sync.Once
	return g.entered, func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[route] == g {
				delete(s.gates, route)
			}
			s.mu.Unlock()
			close(g.release)
		})
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route(BasePath, func(r chi.Router) {
		r.Get("/address/provinces", s.public(RouteProvinces, s.listProvinces))
		r.Get("/address/province/{code}/districts", s.public(RouteDistricts, s.listDistricts))
		r.Get("/address/district/{code}/sub_districts", s.public(RouteSubDistricts, s.listSubDistricts))

		r.Get("/address/", s.authed(RouteListAddresses, s.listAddresses))
		r.Post("/address/", s.authed(RouteCreateAddress, s.createAddress))
		r.Get("/address/{id}", s.authed(RouteGetAddress, s.getAddress))
		r.Put("/address/{id}", s.authed(RouteUpdateAddress, s.updateAddress))
		r.Delete("/address/{id}", s.authed(RouteDeleteAddress, s.deleteAddress))

		r.Get("/cart/", s.authed(RouteGetCart, s.getCart))
		r.Post("/cart/", s.authed(RouteAddItem, s.addItem))
		r.Put("/cart/", s.authed(RouteUpdateItem, s.updateItem))
		r.Delete("/cart/{id}", s.authed(RouteRemoveItem, s.removeItem))

		r.Get("/users/profile", s.authed(RouteProfile, s.getProfile))

		r.Post("/order/confirm", s.authed(RouteConfirmOrder, s.confirmOrder))
		r.Get("/order/history", s.authed(RouteOrderHistory, s.orderHistory))
		r.Get("/order/tracking/{id}", s.authed(RouteTrackOrder, s.trackOrder))
		r.Put("/order/status", s.authed(RouteOrderStatus, s.updateOrderStatus))
		r.Get("/order/{id}", s.authed(RouteGetOrder, s.getOrder))

		r.Post("/payment/create", s.authed(RouteCreatePayment, s.createPayment))
		r.Get("/payment/proof/{id}", s.authed(RouteProof, s.getProof))
		r.Get("/snack/image/{id}", s.authed(RouteProductImage, s.getProductImage))
	})
	return r
}

func (s *Server) public(route string, next http.HandlerFunc) http.HandlerFunc {
	return s.instrument(route, false, next)
}

func (s *Server) authed(route string, next http.HandlerFunc) http.HandlerFunc {
	return s.instrument(route, true, next)
}

// instrument counts the call, waits at the gate, then applies auth and any
// injected failure before the handler runs.
func (s *Server) instrument(route string, auth bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		s.headers[route] = r.Header.Clone()
		g := s.gates[route]
		s.mu.Unlock()

		if g != nil {
			g.entered <- struct{}{}
			select {
			case <-g.release:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		token := s.token
		var injected *failure
		if queue := s.failures[route]; len(queue) > 0 {
			f := queue[0]
			injected = &f
			if !f.persistent {
				s.failures[route] = queue[1:]
			}
		}
		s.mu.Unlock()

		if auth && r.Header.Get("Authorization") != "Bearer "+token {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if injected != nil {
			respondError(w, injected.status, injected.message)
			return
		}
		next(w, r)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
