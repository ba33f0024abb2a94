package addressbook_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront-client/internal/addressbook"
	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/apitest"
	"github.com/fjod/go_cart/storefront-client/internal/geo"
)

var subDistricts = []int{apitest.GrandPalace, apitest.WangBurapha, apitest.DusitSub, apitest.SiPhum}

func resolvedDraft(t *testing.T, r *geo.Resolver, province, district, sub int, detail string) addressbook.Draft {
	t.Helper()
	ctx := context.Background()
	_, err := r.ChooseProvince(ctx, province)
	require.NoError(t, err)
	_, err = r.ChooseDistrict(ctx, district)
	require.NoError(t, err)
	sel, err := r.ChooseSubDistrict(sub)
	require.NoError(t, err)
	draft, err := addressbook.NewDraft(sel, detail)
	require.NoError(t, err)
	return draft
}

func TestNewDraft_RequiresResolvedSelection(t *testing.T) {
	_, err := addressbook.NewDraft(geo.Selection{}, "somewhere")
	assert.ErrorIs(t, err, addressbook.ErrSelectionIncomplete)
}

func TestNewDraft_RequiresDetail(t *testing.T) {
	srv := apitest.NewServer(t)
	r := geo.NewResolver(srv.NewClient(t), nil)
	ctx := context.Background()
	_, err := r.ChooseProvince(ctx, apitest.Bangkok)
	require.NoError(t, err)
	_, err = r.ChooseDistrict(ctx, apitest.PhraNakhon)
	require.NoError(t, err)
	sel, err := r.ChooseSubDistrict(apitest.GrandPalace)
	require.NoError(t, err)

	_, err = addressbook.NewDraft(sel, "   ")
	assert.ErrorIs(t, err, addressbook.ErrDetailRequired)

	draft, err := addressbook.NewDraft(sel, " 99/1 Na Phra Lan Rd ")
	require.NoError(t, err)
	assert.Equal(t, "99/1 Na Phra Lan Rd", draft.Detail)
	assert.Equal(t, 10200, draft.PostalCode)
}

func TestNew_DefaultMax(t *testing.T) {
	book := addressbook.New(nil, 0, nil)
	assert.Equal(t, addressbook.DefaultMaxAddresses, book.Max())
}

func TestCreate_RejectsBeyondLimitBeforeRequest(t *testing.T) {
	for _, limit := range []int{2, 3} {
		t.Run(fmt.Sprintf("max=%d", limit), func(t *testing.T) {
			srv := apitest.NewServer(t)
			srv.SetMaxAddresses(limit + 1)
			for i := 0; i < limit; i++ {
				srv.AddAddress(subDistricts[i], fmt.Sprintf("house %d", i))
			}
			client := srv.NewClient(t)
			book := addressbook.New(client, limit, nil)
			r := geo.NewResolver(client, nil)
			draft := resolvedDraft(t, r, apitest.ChiangMai, apitest.MueangCM, apitest.SiPhum, "new house")

			_, err := book.Create(context.Background(), draft)

			assert.ErrorIs(t, err, addressbook.ErrLimitReached)
			assert.Contains(t, err.Error(), fmt.Sprintf("up to %d addresses", limit))
			assert.Zero(t, srv.Calls(apitest.RouteCreateAddress))
			assert.Len(t, srv.Addresses(), limit)
		})
	}
}

func TestCreate_WithinLimit(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SetMaxAddresses(3)
	srv.AddAddress(apitest.GrandPalace, "A")
	srv.AddAddress(apitest.WangBurapha, "B")
	client := srv.NewClient(t)
	book := addressbook.New(client, 3, nil)
	_, err := book.List(context.Background())
	require.NoError(t, err)
	assert.True(t, book.CanAdd())

	draft := resolvedDraft(t, geo.NewResolver(client, nil), apitest.ChiangMai, apitest.MueangCM, apitest.SiPhum, "C")
	addr, err := book.Create(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, 50200, addr.PostalCode)
	assert.Len(t, book.Addresses(), 3)
	assert.False(t, book.CanAdd())
}

func TestCreate_ServerMessageSurfaces(t *testing.T) {
	srv := apitest.NewServer(t)
	client := srv.NewClient(t)
	book := addressbook.New(client, 2, nil)
	draft := resolvedDraft(t, geo.NewResolver(client, nil), apitest.Bangkok, apitest.Dusit, apitest.DusitSub, "A")
	srv.FailNext(apitest.RouteCreateAddress, http.StatusBadRequest, "Address detail is too short")

	_, err := book.Create(context.Background(), draft)

	assert.Equal(t, "Address detail is too short", api.UserMessage(err, "fallback"))
	assert.Empty(t, book.Addresses())
}

func TestCreate_InvalidDraftSendsNothing(t *testing.T) {
	srv := apitest.NewServer(t)
	book := addressbook.New(srv.NewClient(t), 2, nil)

	_, err := book.Create(context.Background(), addressbook.Draft{Detail: "x"})

	assert.ErrorIs(t, err, addressbook.ErrInvalidDraft)
	assert.Zero(t, srv.Calls(apitest.RouteListAddresses))
	assert.Zero(t, srv.Calls(apitest.RouteCreateAddress))
}

func TestUpdateAndDelete(t *testing.T) {
	srv := apitest.NewServer(t)
	stored := srv.AddAddress(apitest.GrandPalace, "old")
	client := srv.NewClient(t)
	book := addressbook.New(client, 2, nil)
	_, err := book.List(context.Background())
	require.NoError(t, err)

	draft := resolvedDraft(t, geo.NewResolver(client, nil), apitest.Bangkok, apitest.Dusit, apitest.DusitSub, "new")
	updated, err := book.Update(context.Background(), stored.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, updated.ID)
	assert.Equal(t, apitest.DusitSub, updated.SubDistrictCode)

	cached, ok := book.Find(stored.ID)
	require.True(t, ok)
	assert.Equal(t, "new", cached.AddressDetail)

	require.NoError(t, book.Delete(context.Background(), stored.ID))
	assert.Empty(t, book.Addresses())
}

func TestEdit_ReentersCascade(t *testing.T) {
	srv := apitest.NewServer(t)
	stored := srv.AddAddress(apitest.WangBurapha, "home")
	client := srv.NewClient(t)
	book := addressbook.New(client, 2, nil)
	_, err := book.List(context.Background())
	require.NoError(t, err)
	r := geo.NewResolver(client, nil)

	addr, sel, err := book.Edit(context.Background(), r, stored.ID)
	require.NoError(t, err)

	assert.Equal(t, stored, addr)
	assert.True(t, sel.IsResolved())
	sd, _ := sel.SubDistrict()
	assert.Equal(t, apitest.WangBurapha, sd.Code)
	assert.Equal(t, 1, srv.Calls(apitest.RouteDistricts))
	assert.Equal(t, 1, srv.Calls(apitest.RouteSubDistricts))

	_, _, err = book.Edit(context.Background(), r, uuid.New())
	assert.ErrorIs(t, err, addressbook.ErrAddressNotFound)
}
