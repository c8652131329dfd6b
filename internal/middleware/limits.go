package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dewyman/TALON/internal/metrics"
)

// InFlightLimit bounds the number of requests waiting on the annotator. The
// annotator serialises every read, so extra requests would only queue on its
// lock; they are turned away with 503 instead.
func InFlightLimit(maxInFlight int) gin.HandlerFunc {
	slots := make(chan struct{}, maxInFlight)

	return func(c *gin.Context) {
		select {
		case slots <- struct{}{}:
		default:
			c.Header("Retry-After", "1")
			respondError(c, http.StatusServiceUnavailable, "busy", "annotator busy, retry later")

			return
		}

		metrics.InFlightRequests.Inc()

		defer func() {
			<-slots
			metrics.InFlightRequests.Dec()
		}()

		c.Next()
	}
}

// SecurityHeaders sets the response headers of a JSON-only API.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
