package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dewyman/TALON/internal/httputil"
	"github.com/dewyman/TALON/internal/metrics"
)

func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
