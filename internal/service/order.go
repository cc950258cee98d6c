package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/payment"
	"github.com/greenbasket/storefront/internal/remote"
)

var ErrNoItems = errors.New("no items to checkout")

const (
	ordersCollection = "orders"

	PaymentCOD    = "Cash on Delivery"
	PaymentOnline = "Online Payment"
)

// deliveryFee is the flat charge added to every order total.
var deliveryFee = decimal.NewFromInt(50)

// OrderService places orders against the remote store, one row per
// item. Order success is independent of cart-cleanup success: a failed
// post-order clear is handed to the cleanup queue for retry instead of
// failing the order.
type OrderService struct {
	store   remote.Store
	cart    *CartService
	gateway payment.Gateway
	amqpCh  *amqp.Channel
	log     *slog.Logger
}

func NewOrderService(store remote.Store, cart *CartService, gateway payment.Gateway, amqpCh *amqp.Channel, log *slog.Logger) *OrderService {
	return &OrderService{store: store, cart: cart, gateway: gateway, amqpCh: amqpCh, log: log}
}

// Total sums the line prices plus the flat delivery fee.
func (s *OrderService) Total(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Add(deliveryFee)
}

// PlaceOrder inserts the order rows and then clears the cart. An insert
// failure leaves the cart untouched; a clear failure still counts as a
// placed order and is retried through the cleanup queue.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, items []model.OrderItem, shipping model.ShippingInfo, method string) error {
	if len(items) == 0 {
		return ErrNoItems
	}

	rows := make([]remote.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, remote.Row{
			"user_id":        userID,
			"product_id":     item.ProductID,
			"name":           item.Name,
			"weight":         item.Weight,
			"price":          item.Price,
			"quantity":       item.Quantity,
			"shipping_info":  shipping,
			"payment_method": method,
		})
	}
	if err := s.store.Insert(ctx, ordersCollection, rows); err != nil {
		return fmt.Errorf("place order: %w", err)
	}

	if err := s.cart.Clear(ctx, userID); err != nil {
		s.log.Error("cart clear after order", "user_id", userID, "error", err)
		s.publishCleanup(ctx, userID)
	}
	return nil
}

// CreatePaymentSession opens a hosted checkout for the order total.
// Amounts go to the gateway in minor units. The order itself is placed
// by the gateway's success callback.
func (s *OrderService) CreatePaymentSession(ctx context.Context, userID uuid.UUID, items []model.OrderItem) (*payment.Checkout, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	amountMinor := s.Total(items).Mul(decimal.NewFromInt(100)).IntPart()
	checkout, err := s.gateway.CreateCheckout(ctx, amountMinor, "INR", userID.String())
	if err != nil {
		return nil, fmt.Errorf("create payment session: %w", err)
	}
	return checkout, nil
}

func (s *OrderService) publishCleanup(ctx context.Context, userID uuid.UUID) {
	if s.amqpCh == nil {
		return
	}
	msg, _ := json.Marshal(model.CartCleanupMessage{UserID: userID, BatchID: uuid.NewString()})
	err := s.amqpCh.PublishWithContext(ctx, "", "cart_cleanup", false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		s.log.Error("publish cart cleanup", "user_id", userID, "error", err)
	}
}
