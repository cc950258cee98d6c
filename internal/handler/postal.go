package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenbasket/storefront/internal/postal"
)

type PostalHandler struct {
	postal *postal.Client
}

func NewPostalHandler(client *postal.Client) *PostalHandler {
	return &PostalHandler{postal: client}
}

// Lookup resolves a postal code to district/state for address
// autofill. A miss is a 404 the client treats as "leave the fields
// blank".
func (h *PostalHandler) Lookup(c *gin.Context) {
	locality, err := h.postal.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, postal.ErrInvalidCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "postal code must be 6 digits"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "postal lookup unavailable"})
		return
	}
	if locality == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "postal code not found"})
		return
	}
	c.JSON(http.StatusOK, locality)
}
