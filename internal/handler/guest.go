package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenbasket/storefront/internal/dto"
	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/service"
)

type GuestHandler struct {
	guest *service.GuestGate
}

func NewGuestHandler(guest *service.GuestGate) *GuestHandler {
	return &GuestHandler{guest: guest}
}

// Capture stores the action a guest attempted so it can replay after
// they sign in. No cart traffic happens until then.
func (h *GuestHandler) Capture(c *gin.Context) {
	var req dto.GuestActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.guest.Capture(guestSessionID(c), model.PendingGuestAction{
		Kind: model.ActionKind(req.Kind),
		Item: toCartItem(req.Item),
	})
	c.JSON(http.StatusAccepted, gin.H{"message": "sign in to continue"})
}

func (h *GuestHandler) Dismiss(c *gin.Context) {
	h.guest.Dismiss(guestSessionID(c))
	c.Status(http.StatusNoContent)
}

// toCartItem builds the cart payload for a variant. The id starts out
// as the product id; the next fetch replaces it with the remote row id.
func toCartItem(req dto.CartItemRequest) model.CartItem {
	return model.CartItem{
		ID:        req.ProductID,
		ProductID: req.ProductID,
		Name:      req.Name,
		Weight:    req.Weight,
		Price:     req.Price,
		Quantity:  req.Quantity,
		ImageURL:  req.ImageURL,
	}
}
