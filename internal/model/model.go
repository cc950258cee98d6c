package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Identity is the session-relevant slice of an authenticated user,
// issued by the hosted auth service. Owned by the session service; all
// other components hold only a read reference.
type Identity struct {
	ID          uuid.UUID
	Email       string
	AccessToken string
}

// Profile carries the extended user attributes kept in the profiles
// collection. It is fetched separately from the identity, so dependents
// must tolerate an identity without a profile as a transient state.
type Profile struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Mobile  string    `json:"mobile"`
	IsAdmin bool      `json:"is_admin"`
}

// ProductVariant is one flat row of the products collection. Weight is
// a label ("500", "1", "5"); the unit is kilograms/grams by store
// convention. A nil price means the variant is not available.
type ProductVariant struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	Weight   string           `json:"weight"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL string           `json:"image_url"`
	Category string           `json:"category"`
}

// GroupedProduct is one logical product aggregating every variant that
// shares a name. Derived on each catalog fetch, never persisted.
type GroupedProduct struct {
	Name     string           `json:"name"`
	ImageURL string           `json:"image_url"`
	Variants []ProductVariant `json:"variants"`
}

// CartItem mirrors one row of the remote cart collection. Price is
// snapshotted at add time, not re-derived from the catalog.
type CartItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Weight    string          `json:"weight"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

// AllCategories is the category sentinel meaning "no category filter".
const AllCategories = "All Products"

type FilterState struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

type ActionKind string

const (
	ActionAddToCart ActionKind = "add_to_cart"
	ActionBuyNow    ActionKind = "buy_now"
)

// PendingGuestAction is a gated storefront action captured from an
// unauthenticated visitor, replayed at most once after they sign in.
type PendingGuestAction struct {
	Kind ActionKind `json:"kind"`
	Item CartItem   `json:"item"`
}

// ShippingInfo is the address block stored with each order row.
type ShippingInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	ZipCode  string `json:"zip_code"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
}

// OrderItem is one line of a checkout; the orders collection stores one
// row per item.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Weight    string          `json:"weight"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CartCleanupMessage asks the cleanup worker to retry clearing a user's
// remote cart after a post-order clear failed.
type CartCleanupMessage struct {
	UserID  uuid.UUID `json:"user_id"`
	BatchID string    `json:"batch_id"`
}
