package api_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/apitest"
	"github.com/fjod/go_cart/storefront-client/internal/domain"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestCartEndpoints(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)
	chips := srv.AddProduct("Lays", 20, 5)
	ctx := context.Background()

	cart, err := client.AddCartItem(ctx, api.AddItemRequest{ProductID: chips.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, chips.ID, item.ProductID)
	assert.Equal(t, 5, item.Product.Stock)

	cart, err = client.UpdateCartItem(ctx, api.UpdateItemRequest{ItemID: item.ID, ProductID: chips.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 80.0, cart.Total())

	cart, err = client.RemoveCartItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, domain.CartStatusOpen, cart.Status)
}

func TestAddCartItem_InvalidQuantityNotSent(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)

	_, err := client.AddCartItem(context.Background(), api.AddItemRequest{ProductID: uuid.New(), Quantity: 0})

	assert.ErrorIs(t, err, api.ErrInvalidInput)
	assert.Zero(t, srv.Calls(apitest.RouteAddItem))
}

func TestAddressEndpoints(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)
	ctx := context.Background()

	created, err := client.CreateAddress(ctx, api.AddressRequest{
		ProvinceCode:    apitest.Bangkok,
		DistrictCode:    apitest.PhraNakhon,
		SubDistrictCode: apitest.GrandPalace,
		AddressDetail:   "99/1 Na Phra Lan Rd",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 10200, created.PostalCode)

	got, err := client.GetAddress(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := client.UpdateAddress(ctx, created.ID, api.AddressRequest{
		ProvinceCode:    apitest.Bangkok,
		DistrictCode:    apitest.Dusit,
		SubDistrictCode: apitest.DusitSub,
		AddressDetail:   "1 Ratchawithi Rd",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 10300, updated.PostalCode)

	list, err := client.ListAddresses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{updated}, list)

	require.NoError(t, client.DeleteAddress(ctx, created.ID))
	list, err = client.ListAddresses(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderEndpoints(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)
	ctx := context.Background()
	srv.PutCartItem(srv.AddProduct("Pocky", 35, 10), 2)
	addr := srv.AddAddress(apitest.SiPhum, "12 Moon Muang Rd")

	order, err := client.ConfirmOrder(ctx, api.ConfirmOrderRequest{
		AddressID:     addr.ID,
		CartID:        srv.Cart().ID,
		PaymentMethod: domain.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 70.0, order.TotalPrice)
	assert.NotEmpty(t, order.TrackingID)

	byID, err := client.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byID.ID)

	tracked, err := client.TrackOrder(ctx, order.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, tracked.ID)

	history, err := client.OrderHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	moved, err := client.UpdateOrderStatus(ctx, api.UpdateOrderStatusRequest{OrderID: order.ID, Status: domain.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, moved.Status)
}

func TestConfirmOrder_RejectsUnknownPaymentMethod(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)

	_, err := client.ConfirmOrder(context.Background(), api.ConfirmOrderRequest{
		AddressID:     uuid.New(),
		CartID:        uuid.New(),
		PaymentMethod: "cash",
	})

	assert.ErrorIs(t, err, api.ErrInvalidInput)
	assert.Zero(t, srv.Calls(apitest.RouteConfirmOrder))
}

func TestProfile(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)

	profile, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Somchai Jaidee", profile.FullName())
}

func TestPaymentUploadAndFetch(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)
	ctx := context.Background()
	order := srv.AddOrder(domain.Order{TotalPrice: 120, PaymentMethod: domain.PaymentMethodQRCode})

	payment, err := client.CreatePayment(ctx, order.ID, api.ProofFile{Name: "slip.jpg", Data: jpegBytes})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, payment.ID)
	assert.Equal(t, order.ID, payment.OrderID)

	stored, ok := srv.Proof(payment.ID)
	require.True(t, ok)
	assert.Equal(t, jpegBytes, stored)

	bin, err := client.FetchPaymentProof(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", bin.ContentType)
	assert.Equal(t, jpegBytes, bin.Data)
	assert.Equal(t, "Bearer "+apitest.Token, srv.LastHeader(apitest.RouteProof).Get("Authorization"))
	assert.Equal(t, "image/*", srv.LastHeader(apitest.RouteProof).Get("Accept"))
}

func TestFetchBinary_ProductImage(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)
	product := srv.AddProduct("Tao Kae Noi", 25, 3)
	srv.SetProductImage(product.ID, jpegBytes)

	bin, err := client.FetchBinary(context.Background(), "fetch_image", api.ProductImagePath(product.ID))
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, bin.Data)

	_, err = client.FetchBinary(context.Background(), "fetch_image", api.ProductImagePath(uuid.New()))
	assert.ErrorIs(t, err, api.ErrNotFound)
}
