package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenbasket/storefront/internal/dto"
	"github.com/greenbasket/storefront/internal/service"
)

type ProductHandler struct {
	catalog *service.CatalogService
	filters *service.FilterService
}

func NewProductHandler(catalog *service.CatalogService, filters *service.FilterService) *ProductHandler {
	return &ProductHandler{catalog: catalog, filters: filters}
}

// List serves the variant-grouped catalog with the session's filter
// applied. Query params override the stored filter for this request
// only.
func (h *ProductHandler) List(c *gin.Context) {
	groups, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	filter := h.filters.Current(guestSessionID(c))
	if search, ok := c.GetQuery("search"); ok {
		filter.Search = search
	}
	if category, ok := c.GetQuery("category"); ok {
		filter.Category = category
	}

	filtered := service.FilterGroups(groups, filter)
	c.JSON(http.StatusOK, dto.ProductListResponse{Products: filtered, Total: len(filtered)})
}

func (h *ProductHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, h.filters.Current(guestSessionID(c)))
}

func (h *ProductHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sid := guestSessionID(c)
	if req.Search != nil {
		h.filters.SetSearch(sid, *req.Search)
	}
	if req.Category != nil {
		h.filters.SetCategory(sid, *req.Category)
	}
	c.JSON(http.StatusOK, h.filters.Current(sid))
}

func (h *ProductHandler) ResetFilter(c *gin.Context) {
	h.filters.Reset(guestSessionID(c))
	c.Status(http.StatusNoContent)
}
