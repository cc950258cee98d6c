package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/greenbasket/storefront/internal/dto"
	"github.com/greenbasket/storefront/internal/middleware"
	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
	cart   *service.CartService
}

func NewOrderHandler(orders *service.OrderService, cart *service.CartService) *OrderHandler {
	return &OrderHandler{orders: orders, cart: cart}
}

// Create places a cash-on-delivery order. Without explicit items the
// current cart is ordered.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	err := h.orders.PlaceOrder(c.Request.Context(), userID, h.orderItems(userID, req.Items), toShippingInfo(req.Shipping), service.PaymentCOD)
	if err != nil {
		if errors.Is(err, service.ErrNoItems) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no items to checkout"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "order placed"})
}

// CreatePayment opens a hosted checkout session and returns its
// redirect URL; the order is placed by the success callback.
func (h *OrderHandler) CreatePayment(c *gin.Context) {
	var req dto.PaymentSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	checkout, err := h.orders.CreatePaymentSession(c.Request.Context(), userID, h.orderItems(userID, req.Items))
	if err != nil {
		if errors.Is(err, service.ErrNoItems) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no items to checkout"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.PaymentSessionResponse{ID: checkout.ID, RedirectURL: checkout.RedirectURL})
}

// PaymentCallback fires once per successful payment and places the
// order with the online payment method.
func (h *OrderHandler) PaymentCallback(c *gin.Context) {
	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)

	err := h.orders.PlaceOrder(c.Request.Context(), userID, h.orderItems(userID, req.Items), toShippingInfo(req.Shipping), service.PaymentOnline)
	if err != nil {
		if errors.Is(err, service.ErrNoItems) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no items to checkout"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "order placed"})
}

// orderItems maps the request lines, falling back to the cart mirror
// when none were sent.
func (h *OrderHandler) orderItems(userID uuid.UUID, reqItems []dto.OrderItemRequest) []model.OrderItem {
	if len(reqItems) > 0 {
		items := make([]model.OrderItem, 0, len(reqItems))
		for _, item := range reqItems {
			items = append(items, model.OrderItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Weight:    item.Weight,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}
		return items
	}

	cartItems := h.cart.Items(userID)
	items := make([]model.OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		items = append(items, model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Weight:    item.Weight,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return items
}

func toShippingInfo(req dto.ShippingInfoRequest) model.ShippingInfo {
	return model.ShippingInfo{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		ZipCode:  req.ZipCode,
		City:     req.City,
		State:    req.State,
		Country:  req.Country,
	}
}
