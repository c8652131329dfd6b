package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/httputil"
	"github.com/dewyman/TALON/internal/metrics"
	"github.com/dewyman/TALON/internal/middleware"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/service"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeValidationError     = "validation_error"
	ErrCodeMalformedChain      = "malformed_chain"
	ErrCodeCatalogInconsistent = "catalog_inconsistent"
	ErrCodeUnavailable         = "unavailable"
	ErrCodeInternalError       = "internal_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps an annotator error onto a status code. Caller
// mistakes echo the error text; everything else is logged and hidden.
func respondServiceError(c *gin.Context, log *logrus.Logger, op string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidRead),
		errors.Is(err, models.ErrInvalidStrand),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrMissingChromosome):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.Is(err, models.ErrMalformedChain):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeMalformedChain, err.Error())
	case errors.Is(err, models.ErrCatalogInconsistent):
		middleware.Entry(c, log).WithError(err).WithField("op", op).Error("catalog invariant violated")
		respondError(c, http.StatusInternalServerError, ErrCodeCatalogInconsistent, "catalog is inconsistent")
	case errors.Is(err, service.ErrWorkerClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "annotator is shutting down")
	default:
		middleware.Entry(c, log).WithError(err).WithField("op", op).Error("request failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
