package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/payment"
	"github.com/greenbasket/storefront/internal/remote"
)

type stubGateway struct {
	amountMinor int64
	currency    string
	reference   string
	err         error
}

func (g *stubGateway) CreateCheckout(_ context.Context, amountMinor int64, currency, reference string) (*payment.Checkout, error) {
	g.amountMinor = amountMinor
	g.currency = currency
	g.reference = reference
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Checkout{ID: "plink_1", RedirectURL: "https://pay.example/plink_1"}, nil
}

func orderFixture() ([]model.OrderItem, model.ShippingInfo) {
	items := []model.OrderItem{
		{ProductID: 10, Name: "Rice", Weight: "500", Price: decimal.NewFromInt(40), Quantity: 2},
		{ProductID: 20, Name: "Dal", Weight: "1", Price: decimal.NewFromInt(60), Quantity: 1},
	}
	shipping := model.ShippingInfo{
		FullName: "U One", Phone: "9876543210", Address: "12 Main Rd",
		ZipCode: "560001", City: "Bengaluru", State: "Karnataka", Country: "India",
	}
	return items, shipping
}

func TestOrderService_Total(t *testing.T) {
	items, _ := orderFixture()
	svc := NewOrderService(newMockStore(), nil, nil, nil, testLogger())

	// 40*2 + 60*1 + 50 delivery
	assert.True(t, svc.Total(items).Equal(decimal.NewFromInt(190)))
}

func TestOrderService_PlaceOrder(t *testing.T) {
	store := newMockStore()
	cart, userID := signedInCart(store)
	svc := NewOrderService(store, cart, nil, nil, testLogger())

	store.rows["cart"] = []remote.Row{{
		"id": int64(1), "user_id": userID.String(), "product_id": int64(10),
		"name": "Rice", "weight": "500", "price": 40, "quantity": 2,
	}}
	require.NoError(t, cart.Fetch(context.Background(), userID))

	items, shipping := orderFixture()
	require.NoError(t, svc.PlaceOrder(context.Background(), userID, items, shipping, PaymentCOD))

	require.Len(t, store.rows["orders"], 2, "one row per item")
	first := store.rows["orders"][0]
	assert.Equal(t, PaymentCOD, first["payment_method"])
	assert.Equal(t, shipping, first["shipping_info"])

	assert.Empty(t, store.rows["cart"], "cart cleared after placement")
	assert.Empty(t, cart.Items(userID))
}

func TestOrderService_PlaceOrder_NoItems(t *testing.T) {
	store := newMockStore()
	cart, userID := signedInCart(store)
	svc := NewOrderService(store, cart, nil, nil, testLogger())

	_, shipping := orderFixture()
	err := svc.PlaceOrder(context.Background(), userID, nil, shipping, PaymentCOD)
	assert.ErrorIs(t, err, ErrNoItems)
	assert.Empty(t, store.calls)
}

func TestOrderService_PlaceOrder_InsertFailureLeavesCart(t *testing.T) {
	store := newMockStore()
	cart, userID := signedInCart(store)
	svc := NewOrderService(store, cart, nil, nil, testLogger())

	store.rows["cart"] = []remote.Row{{
		"id": int64(1), "user_id": userID.String(), "product_id": int64(10),
		"name": "Rice", "weight": "500", "price": 40, "quantity": 2,
	}}
	require.NoError(t, cart.Fetch(context.Background(), userID))

	store.failOn["insert"] = errors.New("service unavailable")
	items, shipping := orderFixture()
	err := svc.PlaceOrder(context.Background(), userID, items, shipping, PaymentCOD)
	require.Error(t, err)

	assert.Len(t, store.rows["cart"], 1, "failed placement must not touch the cart")
	assert.Len(t, cart.Items(userID), 1)
	assert.Equal(t, 0, store.callCount("delete"))
}

func TestOrderService_PlaceOrder_ClearFailureStillSucceeds(t *testing.T) {
	store := newMockStore()
	cart, userID := signedInCart(store)
	svc := NewOrderService(store, cart, nil, nil, testLogger())

	store.rows["cart"] = []remote.Row{{
		"id": int64(1), "user_id": userID.String(), "product_id": int64(10),
		"name": "Rice", "weight": "500", "price": 40, "quantity": 2,
	}}
	require.NoError(t, cart.Fetch(context.Background(), userID))

	store.failOn["delete"] = errors.New("service unavailable")
	items, shipping := orderFixture()

	err := svc.PlaceOrder(context.Background(), userID, items, shipping, PaymentCOD)
	assert.NoError(t, err, "order success is independent of cleanup success")
	assert.Len(t, store.rows["orders"], 2)
}

func TestOrderService_CreatePaymentSession(t *testing.T) {
	gateway := &stubGateway{}
	svc := NewOrderService(newMockStore(), nil, gateway, nil, testLogger())
	items, _ := orderFixture()
	userID := uuid.New()

	checkout, err := svc.CreatePaymentSession(context.Background(), userID, items)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/plink_1", checkout.RedirectURL)
	assert.Equal(t, int64(19000), gateway.amountMinor, "total goes to the gateway in minor units")
	assert.Equal(t, "INR", gateway.currency)
	assert.Equal(t, userID.String(), gateway.reference)
}

func TestOrderService_CreatePaymentSession_NoItems(t *testing.T) {
	gateway := &stubGateway{}
	svc := NewOrderService(newMockStore(), nil, gateway, nil, testLogger())

	_, err := svc.CreatePaymentSession(context.Background(), uuid.Nil, nil)
	assert.ErrorIs(t, err, ErrNoItems)
	assert.Empty(t, gateway.currency)
}
