// Package handler implements the gin handlers of the zakat API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/shared"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/logger"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/dto"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a success response for a bounded list
func (h *BaseHandler) SuccessList(c *gin.Context, data any, count, limit int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, count, limit))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unavailable sends a 503 response for a feature whose backend is not configured
func (h *BaseHandler) Unavailable(c *gin.Context, message string) {
	h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps engine and domain errors to HTTP responses.
// CalculationError keeps its stage out of the response body and in the log.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var calcErr *zakat.CalculationError
	if errors.As(err, &calcErr) {
		logger.FromGin(c).Error("Zakat calculation failed",
			zap.String("stage", string(calcErr.Stage)),
			zap.Error(calcErr.Err),
		)
		code := dto.NormalizeErrorCode(calcErr.Code())
		h.Error(c, dto.GetHTTPStatus(code), code, "Zakat calculation failed")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.FromGin(c).Error("Unhandled request error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
