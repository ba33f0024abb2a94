package payment_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/apitest"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
	"github.com/fjod/go_cart/storefront-client/internal/metrics"
	"github.com/fjod/go_cart/storefront-client/internal/payment"
)

var slip = api.ProofFile{
	Name: "slip.jpg",
	Data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'},
}

func setupChannel(t *testing.T) (*payment.Channel, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(t)
	return payment.NewChannel(srv.NewClient(t), metrics.New(prometheus.NewRegistry()), nil), srv
}

func TestCanUpload(t *testing.T) {
	paid := &domain.Payment{ID: uuid.New()}
	tests := []struct {
		name  string
		order domain.Order
		want  bool
	}{
		{"pending", domain.Order{Status: domain.OrderStatusPending}, true},
		{"processing", domain.Order{Status: domain.OrderStatusProcessing}, true},
		{"shipped", domain.Order{Status: domain.OrderStatusShipped}, false},
		{"cancelled", domain.Order{Status: domain.OrderStatusCancelled}, false},
		{"already paid", domain.Order{Status: domain.OrderStatusPending, Payment: paid}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payment.CanUpload(tt.order))
		})
	}
}

func TestProofPath(t *testing.T) {
	_, ok := payment.ProofPath(domain.Order{})
	assert.False(t, ok)

	id := uuid.New()
	path, ok := payment.ProofPath(domain.Order{Payment: &domain.Payment{ID: id}})
	assert.True(t, ok)
	assert.Equal(t, "/payment/proof/"+id.String(), path)
}

func TestSubmit_UploadAndVerify(t *testing.T) {
	ch, srv := setupChannel(t)
	order := srv.AddOrder(domain.Order{TotalPrice: 99})

	res, err := ch.Submit(context.Background(), order, slip)
	require.NoError(t, err)

	assert.Equal(t, order.ID, res.Payment.OrderID)
	assert.Equal(t, slip.Data, res.Proof.Data)
	assert.Equal(t, 1, srv.Calls(apitest.RouteCreatePayment))
	assert.Equal(t, 1, srv.Calls(apitest.RouteProof))
	stored, _ := srv.Order(order.ID)
	assert.True(t, stored.HasPayment())
}

func TestSubmit_VerifyFailureIsUnverifiedNotUploadFailed(t *testing.T) {
	ch, srv := setupChannel(t)
	order := srv.AddOrder(domain.Order{TotalPrice: 99})
	srv.FailNext(apitest.RouteProof, http.StatusNotFound, "Payment proof not found")

	res, err := ch.Submit(context.Background(), order, slip)

	var unverified *payment.UnverifiedError
	require.ErrorAs(t, err, &unverified)
	assert.ErrorIs(t, err, payment.ErrUploadedUnverified)
	assert.NotErrorIs(t, err, payment.ErrUploadFailed)
	assert.NotEqual(t, uuid.Nil, unverified.PaymentID)
	assert.Equal(t, res.Payment.ID, unverified.PaymentID)
	assert.Equal(t, "failed to verify payment proof upload", payment.UserMessage(err))

	// The artifact exists server-side under that id.
	_, ok := srv.Proof(unverified.PaymentID)
	assert.True(t, ok)
}

func TestSubmit_UploadFailure(t *testing.T) {
	ch, srv := setupChannel(t)
	order := srv.AddOrder(domain.Order{TotalPrice: 99})
	srv.FailNext(apitest.RouteCreatePayment, http.StatusBadRequest, "File type not allowed")

	_, err := ch.Submit(context.Background(), order, slip)

	assert.ErrorIs(t, err, payment.ErrUploadFailed)
	assert.NotErrorIs(t, err, payment.ErrUploadedUnverified)
	assert.Equal(t, "File type not allowed", payment.UserMessage(err))
	assert.Zero(t, srv.Calls(apitest.RouteProof))
}

func TestSubmit_UploadNetworkFailureUsesGenericMessage(t *testing.T) {
	ch, srv := setupChannel(t)
	order := srv.AddOrder(domain.Order{TotalPrice: 99})
	srv.FailNext(apitest.RouteCreatePayment, http.StatusInternalServerError, "")

	_, err := ch.Submit(context.Background(), order, slip)

	assert.ErrorIs(t, err, payment.ErrUploadFailed)
	assert.Equal(t, "Failed to upload payment proof", payment.UserMessage(err))
}

func TestSubmit_LocalRejections(t *testing.T) {
	ch, srv := setupChannel(t)
	pending := srv.AddOrder(domain.Order{})
	shipped := srv.AddOrder(domain.Order{Status: domain.OrderStatusShipped})
	paid := srv.AddOrder(domain.Order{Payment: &domain.Payment{ID: uuid.New()}})

	_, err := ch.Submit(context.Background(), pending, api.ProofFile{Name: "empty.jpg"})
	assert.ErrorIs(t, err, payment.ErrNoFile)
	assert.Equal(t, "please select a payment proof image to upload", payment.UserMessage(err))

	_, err = ch.Submit(context.Background(), shipped, slip)
	assert.ErrorIs(t, err, payment.ErrUploadNotAllowed)

	_, err = ch.Submit(context.Background(), paid, slip)
	assert.ErrorIs(t, err, payment.ErrAlreadyPaid)

	assert.Zero(t, srv.Calls(apitest.RouteCreatePayment))
}
