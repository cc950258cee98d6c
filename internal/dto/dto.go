package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token    string               `json:"token"`
	User     UserResponse         `json:"user"`
	Replayed *GuestActionResponse `json:"replayed,omitempty"`
}

type UserResponse struct {
	ID      uuid.UUID `json:"id"`
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	IsAdmin bool      `json:"is_admin"`
}

// --- Products ---

type CreateProductRequest struct {
	Name     string           `json:"name" binding:"required"`
	Weight   string           `json:"weight" binding:"required"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL string           `json:"image_url"`
	Category string           `json:"category"`
}

type UpdateProductRequest struct {
	Name     *string          `json:"name"`
	Weight   *string          `json:"weight"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL *string          `json:"image_url"`
	Category *string          `json:"category"`
}

type ProductListResponse struct {
	Products []model.GroupedProduct `json:"products"`
	Total    int                    `json:"total"`
}

// --- Filter ---

type FilterRequest struct {
	Search   *string `json:"search"`
	Category *string `json:"category"`
}

// --- Cart / guest ---

type CartItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Weight    string          `json:"weight" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	ImageURL  string          `json:"image_url"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartResponse struct {
	Items []model.CartItem `json:"items"`
}

type GuestActionRequest struct {
	Kind string          `json:"kind" binding:"required,oneof=add_to_cart buy_now"`
	Item CartItemRequest `json:"item" binding:"required"`
}

type GuestActionResponse struct {
	Kind string         `json:"kind"`
	Item model.CartItem `json:"item"`
}

// --- Orders ---

type OrderItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Weight    string          `json:"weight" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
}

type ShippingInfoRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address" binding:"required"`
	ZipCode  string `json:"zip_code" binding:"required"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
}

// PlaceOrderRequest with no items means "order the current cart".
type PlaceOrderRequest struct {
	Items    []OrderItemRequest  `json:"items"`
	Shipping ShippingInfoRequest `json:"shipping" binding:"required"`
}

type PaymentSessionRequest struct {
	Items []OrderItemRequest `json:"items"`
}

type PaymentSessionResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

type PaymentCallbackRequest struct {
	PaymentID string              `json:"payment_id" binding:"required"`
	Items     []OrderItemRequest  `json:"items"`
	Shipping  ShippingInfoRequest `json:"shipping" binding:"required"`
}
