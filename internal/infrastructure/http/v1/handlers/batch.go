package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/core/tenant"
	"gasflow/internal/domain"
	"gasflow/internal/domain/batch"
	"gasflow/internal/infrastructure/http/v1/dto"
	"gasflow/internal/infrastructure/storage/postgres"
)

// BatchHandler handles HTTP requests for stock batches.
type BatchHandler struct {
	*BaseHandler
	service *batch.Service
	audit   auditRecorder
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, service *batch.Service, audit auditRecorder) *BatchHandler {
	return &BatchHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// Create handles POST /batches
func (h *BatchHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateStockBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tenantID, err := tenant.GetTenantID(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	b := req.ToBatch(tenantID)
	if err := h.service.Create(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "stock_batch", b.ID, postgres.AuditActionCreate, map[string]any{
		"number":      b.Number,
		"quantity_kg": b.QuantityKg.String(),
		"supplier":    b.Supplier,
	})

	c.JSON(http.StatusCreated, dto.FromStockBatch(b))
}

// Get handles GET /batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockBatch(b))
}

// Correct handles POST /batches/:id/correct
func (h *BatchHandler) Correct(c *gin.Context) {
	ctx := c.Request.Context()

	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.CorrectStockBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Correct(ctx, batchID, req.ToCorrection())
	if err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "stock_batch", b.ID, postgres.AuditActionCorrect, map[string]any{
		"quantity_kg":  b.QuantityKg.String(),
		"remaining_kg": b.RemainingKg.String(),
	})

	h.OK(c, dto.FromStockBatch(b))
}

// Delete handles DELETE /batches/:id
func (h *BatchHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, batchID); err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "stock_batch", batchID, postgres.AuditActionDelete, nil)

	h.NoContent(c)
}

// List handles GET /batches
func (h *BatchHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := batch.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-purchase_date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.OnlyOpen = c.Query("onlyOpen") == "true"

	if supplier := c.Query("supplier"); supplier != "" {
		filter.SupplierName = &supplier
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromStockBatches(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
