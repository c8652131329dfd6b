// Package middleware provides HTTP middleware for the TALON annotation server.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"

	logEntryKey = "log_entry"
)

// RequestID always generates a fresh server-side UUID for the canonical request ID.
// A client supplied X-Request-ID is kept as "client_request_id" on the
// request-scoped log entry but never used as the canonical ID.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		entry := log.WithField("request_id", id)

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			entry = entry.WithField("client_request_id", clientID)
			c.Set("client_request_id", clientID)
		}

		c.Set(RequestIDKey, id)
		c.Set(logEntryKey, entry)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Entry returns the request-scoped log entry, falling back to log when the
// RequestID middleware did not run.
func Entry(c *gin.Context, log *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(logEntryKey); ok {
		if e, ok := v.(*logrus.Entry); ok {
			return e
		}
	}

	return logrus.NewEntry(log)
}

// RequestLogger writes one access log line per request.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		Entry(c, log).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}).Info("request")
	}
}
