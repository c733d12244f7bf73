package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appzakat "github.com/slimatic/zakapp-sub001/internal/application/zakat"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/middleware"
)

// ZakatHandlerOption configures a ZakatHandler
type ZakatHandlerOption func(*ZakatHandler)

// WithHistory enables the calculation history endpoints
func WithHistory(history *appzakat.HistoryService) ZakatHandlerOption {
	return func(h *ZakatHandler) { h.history = history }
}

// WithAlternativesByDefault sets include_alternatives when a request omits it
func WithAlternativesByDefault(include bool) ZakatHandlerOption {
	return func(h *ZakatHandler) { h.includeAlternatives = include }
}

// WithDefaultMethodology sets the methodology GET /zakat/nisab uses when none is given
func WithDefaultMethodology(id string) ZakatHandlerOption {
	return func(h *ZakatHandler) {
		if id = strings.TrimSpace(id); id != "" {
			h.defaultMethodology = id
		}
	}
}

// ZakatHandler serves the calculation, comparison, nisab, methodology and history endpoints
type ZakatHandler struct {
	BaseHandler
	calc                *appzakat.CalculationService
	history             *appzakat.HistoryService
	includeAlternatives bool
	defaultMethodology  string
}

// NewZakatHandler creates a ZakatHandler
func NewZakatHandler(calc *appzakat.CalculationService, opts ...ZakatHandlerOption) *ZakatHandler {
	h := &ZakatHandler{
		calc:               calc,
		defaultMethodology: string(zakat.MethodologyStandard),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Calculate handles POST /zakat/calculate
func (h *ZakatHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.calc.Calculate(c.Request.Context(), req.ToCalculationRequest(h.includeAlternatives))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Compare handles POST /zakat/compare
func (h *ZakatHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	comparisons, err := h.calc.Comparison().CompareSelected(c.Request.Context(), req.MethodologyIDs(), req.ToCalculationRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, comparisons)
}

// Nisab handles GET /zakat/nisab?methodology=&currency=
func (h *ZakatHandler) Nisab(c *gin.Context) {
	var q NisabQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	methodology := strings.ToLower(strings.TrimSpace(q.Methodology))
	if methodology == "" {
		methodology = h.defaultMethodology
	}

	info, err := h.calc.Threshold(c.Request.Context(), methodology, strings.ToUpper(q.Currency))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ListMethodologies handles GET /zakat/methodologies
func (h *ZakatHandler) ListMethodologies(c *gin.Context) {
	list := h.calc.Catalog().List()
	h.SuccessList(c, list, len(list), 0)
}

// GetMethodology handles GET /zakat/methodologies/:id
func (h *ZakatHandler) GetMethodology(c *gin.Context) {
	m, err := h.calc.Catalog().Resolve(strings.ToLower(c.Param("id")))
	if errors.Is(err, zakat.ErrUnknownMethodology) {
		h.NotFound(c, "Methodology not found")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// GetCalculation handles GET /zakat/calculations/:id
func (h *ZakatHandler) GetCalculation(c *gin.Context) {
	if h.history == nil {
		h.Unavailable(c, "Calculation history is not enabled")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid calculation id")
		return
	}

	calc, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, calc)
}

// ListCalculations handles GET /zakat/calculations?owner_id=&limit=
func (h *ZakatHandler) ListCalculations(c *gin.Context) {
	if h.history == nil {
		h.Unavailable(c, "Calculation history is not enabled")
		return
	}
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	ownerID, err := uuid.Parse(q.OwnerID)
	if err != nil {
		h.BadRequest(c, "Invalid owner id")
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = appzakat.DefaultHistoryLimit
	}

	calcs, err := h.history.ListByOwner(c.Request.Context(), ownerID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, calcs, len(calcs), limit)
}
