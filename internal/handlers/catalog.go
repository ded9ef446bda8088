package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/starbound-health/navigator-backend/internal/services"
	"github.com/starbound-health/navigator-backend/internal/taxonomy"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// List returns support resources, optionally filtered by escalation tier
// or domain.
func (h *CatalogHandler) List(c *gin.Context) {
	if tierParam := c.Query("tier"); tierParam != "" {
		tier, err := strconv.Atoi(tierParam)
		if err != nil || !taxonomy.EscalationTier(tier).Valid() {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		RespondOK(c, gin.H{"resources": h.catalogService.ForTier(taxonomy.EscalationTier(tier))})
		return
	}
	if domainParam := c.Query("domain"); domainParam != "" {
		domain := taxonomy.Domain(domainParam)
		if !domain.Valid() {
			RespondError(c, http.StatusBadRequest, "bad_request", nil)
			return
		}
		RespondOK(c, gin.H{"resources": h.catalogService.ForDomain(domain)})
		return
	}
	RespondOK(c, gin.H{"resources": h.catalogService.All()})
}
