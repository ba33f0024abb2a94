package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/apitest"
	"github.com/fjod/go_cart/storefront-client/internal/config"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
)

func newTestApp(t *testing.T) (*app, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer(t)
	return &app{
		cfg:    &config.Config{MaxAddresses: 2, PlaceholderURL: "/placeholder-payment.png"},
		log:    logger.Discard(),
		client: srv.NewClient(t),
	}, srv
}

func TestRun_UnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, 1, a.run(context.Background(), "dance", nil))
}

func TestRun_AuthExpiredExitsTwo(t *testing.T) {
	a, srv := newTestApp(t)
	srv.RevokeToken()

	assert.Equal(t, 2, a.run(context.Background(), "cart", nil))
	assert.Equal(t, 2, a.run(context.Background(), "orders", nil))
}

func TestRun_CheckoutFlow(t *testing.T) {
	a, srv := newTestApp(t)
	product := srv.AddProduct("Lays", 20, 5)
	ctx := context.Background()

	require.Equal(t, 0, a.run(ctx, "add", []string{"-product", product.ID.String(), "-qty", "2"}))
	require.Equal(t, 0, a.run(ctx, "addresses", []string{
		"-add", "-province", "10", "-district", "1001", "-sub", "100101", "-detail", "99/1 Na Phra Lan Rd",
	}))
	require.Equal(t, 1, a.run(ctx, "checkout", nil), "payment method is required")
	require.Equal(t, 0, a.run(ctx, "checkout", []string{"-method", "qr_code"}))

	placed := srv.Orders()
	require.Len(t, placed, 1)
	assert.Equal(t, 40.0, placed[0].TotalPrice)

	proof := filepath.Join(t.TempDir(), "slip.jpg")
	require.NoError(t, os.WriteFile(proof, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o600))
	require.Equal(t, 0, a.run(ctx, "proof", []string{"-order", placed[0].ID.String(), "-file", proof}))

	paid, _ := srv.Order(placed[0].ID)
	assert.True(t, paid.HasPayment())
}

func TestRun_ImageWritesFile(t *testing.T) {
	a, srv := newTestApp(t)
	product := srv.AddProduct("Lays", 20, 5)
	srv.SetProductImage(product.ID, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	out := filepath.Join(t.TempDir(), "lays.jpg")

	code := a.run(context.Background(), "image", []string{"-url", api.ProductImagePath(product.ID), "-out", out})

	require.Equal(t, 0, code)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE0}, data)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Cart is empty", errorText(&api.ValidationError{Status: http.StatusBadRequest, Message: "Cart is empty"}))
	assert.Equal(t, "the shop could not be reached, please try again", errorText(&api.NetworkError{Op: "get_cart"}))
}
