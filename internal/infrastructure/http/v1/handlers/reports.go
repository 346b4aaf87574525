package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"gasflow/internal/core/apperror"
	"gasflow/internal/domain/aggregate"
	"gasflow/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the derived reporting tables.
type ReportsHandler struct {
	*BaseHandler
	service *aggregate.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *aggregate.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Monthly handles GET /reports/monthly?year=2026&month=8
// Defaults to the current month.
func (h *ReportsHandler) Monthly(c *gin.Context) {
	now := time.Now().UTC()
	year := h.ParseIntQuery(c, "year", now.Year())
	month := h.ParseIntQuery(c, "month", int(now.Month()))

	if month < 1 || month > 12 {
		h.Error(c, apperror.NewValidation("month must be between 1 and 12").WithDetail("month", month))
		return
	}

	report, err := h.service.GetMonthlyReport(c.Request.Context(), year, month)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMonthlyReport(report))
}

// Inventory handles GET /reports/inventory
func (h *ReportsHandler) Inventory(c *gin.Context) {
	inv, err := h.service.GetLiveInventory(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLiveInventory(inv))
}
