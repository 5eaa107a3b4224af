package handler

import (
	"net/http"

	"github.com/mcoot/charsheet/internal/api/response"
	"github.com/mcoot/charsheet/internal/rules"
)

// CatalogHandler serves the rules catalog
type CatalogHandler struct {
	catalog response.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *rules.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: response.CatalogFromRules(catalog)}
}

// Get handles GET /api/v1/catalog
func (h *CatalogHandler) Get(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, h.catalog)
}
