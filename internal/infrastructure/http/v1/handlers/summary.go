package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gasflow/internal/core/apperror"
	"gasflow/internal/core/id"
	"gasflow/internal/domain"
	"gasflow/internal/domain/entry"
	"gasflow/internal/domain/summary"
	"gasflow/internal/infrastructure/http/v1/dto"
	"gasflow/internal/infrastructure/storage/postgres"
)

// SummaryHandler handles HTTP requests for daily summaries.
type SummaryHandler struct {
	*BaseHandler
	service *summary.Service
	entries *entry.Service
	audit   auditRecorder
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(base *BaseHandler, service *summary.Service, entries *entry.Service, audit auditRecorder) *SummaryHandler {
	return &SummaryHandler{
		BaseHandler: base,
		service:     service,
		entries:     entries,
		audit:       audit,
	}
}

// Start handles POST /summaries
// Idempotent per cashier, branch and day: an existing open summary is returned
// instead of creating a duplicate.
func (h *SummaryHandler) Start(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StartSummaryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Start(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromDailySummary(d))
}

// Get handles GET /summaries/:id
// Returns the summary together with its child entries.
func (h *SummaryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	summaryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	d, err := h.service.GetByID(ctx, summaryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	children, err := h.entries.ListBySummary(ctx, d.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDailySummaryDetail(d, children))
}

// Finalize handles POST /summaries/:id/finalize
func (h *SummaryHandler) Finalize(c *gin.Context) {
	ctx := c.Request.Context()

	summaryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	d, err := h.service.Finalize(ctx, summaryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDailySummary(d))
}

// Review handles POST /summaries/:id/review
// Reviewer or admin only (enforced by route middleware).
func (h *SummaryHandler) Review(c *gin.Context) {
	ctx := c.Request.Context()

	summaryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReviewSummaryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.Review(ctx, summaryID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	logAudit(ctx, h.audit, "daily_summary", d.ID, postgres.AuditActionReview, map[string]any{
		"status": string(d.Status),
		"note":   d.ReviewNote,
	})

	h.OK(c, dto.FromDailySummary(d))
}

// List handles GET /summaries
func (h *SummaryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := summary.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if status := c.Query("status"); status != "" {
		s := summary.Status(status)
		filter.Status = &s
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
		Items:      dto.FromDailySummaries(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
