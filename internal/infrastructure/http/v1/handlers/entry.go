package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/domain"
	"gasflow/internal/domain/entry"
	"gasflow/internal/infrastructure/http/v1/dto"
	"gasflow/internal/infrastructure/storage/postgres"
)

// EntryHandler handles HTTP requests for data entries.
type EntryHandler struct {
	*BaseHandler
	service *entry.Service
	audit   auditRecorder
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(base *BaseHandler, service *entry.Service, audit auditRecorder) *EntryHandler {
	return &EntryHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// RecordSale handles POST /entries/sales
func (h *EntryHandler) RecordSale(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecordSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	summaryID, err := id.Parse(req.SummaryID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid summary id").WithDetail("field", "summaryId"))
		return
	}

	e, err := h.service.RecordSale(ctx, req.ToInput(summaryID))
	if err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "data_entry", e.ID, postgres.AuditActionCreate, map[string]any{
		"entry_type": string(e.EntryType),
		"kg_sold":    e.KgSold.String(),
		"revenue":    e.Revenue.String(),
	})

	c.JSON(http.StatusCreated, dto.FromDataEntry(e))
}

// RecordExpense handles POST /entries/expenses
func (h *EntryHandler) RecordExpense(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecordExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	summaryID, err := id.Parse(req.SummaryID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid summary id").WithDetail("field", "summaryId"))
		return
	}

	e, err := h.service.RecordExpense(ctx, req.ToInput(summaryID))
	if err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "data_entry", e.ID, postgres.AuditActionCreate, map[string]any{
		"entry_type": string(e.EntryType),
		"amount":     e.Amount.String(),
		"category":   e.Category,
	})

	c.JSON(http.StatusCreated, dto.FromDataEntry(e))
}

// Get handles GET /entries/:id
func (h *EntryHandler) Get(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDataEntry(e))
}

// Update handles PUT /entries/:id
func (h *EntryHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.service.Update(ctx, entryID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "data_entry", e.ID, postgres.AuditActionUpdate, map[string]any{
		"version": e.Version,
	})

	h.OK(c, dto.FromDataEntry(e))
}

// Delete handles DELETE /entries/:id
func (h *EntryHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, entryID); err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "data_entry", entryID, postgres.AuditActionDelete, nil)

	h.NoContent(c)
}

// List handles GET /entries
func (h *EntryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := entry.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if entryType := c.Query("type"); entryType != "" {
		t := entry.Type(entryType)
		filter.EntryType = &t
	}
	if status := c.Query("status"); status != "" {
		s := entry.Status(status)
		filter.Status = &s
	}
	if summaryID := c.Query("summaryId"); summaryID != "" {
		if parsed, err := id.Parse(summaryID); err == nil {
			filter.SummaryID = &parsed
		}
	}
	if branch := c.Query("branch"); branch != "" {
		filter.Branch = &branch
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
		Items:      dto.FromDataEntries(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
