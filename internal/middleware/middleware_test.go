package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/dewyman/TALON/internal/metrics"
	"github.com/dewyman/TALON/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_ServerGenerated(t *testing.T) {
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(middleware.RequestID(log), middleware.RequestLogger(log))
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.RequestIDKey))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "client-chosen")
	r.ServeHTTP(w, req)

	id := w.Header().Get(middleware.RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("request id %q is not a UUID", id)
	}

	if w.Body.String() != id {
		t.Errorf("context id %q != header id %q", w.Body.String(), id)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected an access log entry")
	}

	if entry.Data["request_id"] != id || entry.Data["client_request_id"] != "client-chosen" {
		t.Errorf("unexpected log fields: %v", entry.Data)
	}
}

func TestEntry_FallsBackWithoutRequestID(t *testing.T) {
	log := logrus.New()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if e := middleware.Entry(c, log); e.Logger != log {
		t.Error("expected an entry on the given logger")
	}
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(middleware.MaxBodySize(8))
	r.POST("/test", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		body     string
		chunked  bool
		wantCode int
	}{
		{"within limit", "1234", false, http.StatusOK},
		{"declared too large", "123456789", false, http.StatusRequestEntityTooLarge},
		{"undeclared too large", "123456789", true, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.body))
			if tc.chunked {
				req.ContentLength = -1
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tc.wantCode)
			}
		})
	}
}

func TestInFlightLimit_RejectsWhenFull(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	r := gin.New()
	r.Use(middleware.InFlightLimit(1))
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)

	first := httptest.NewRecorder()
	go func() {
		defer wg.Done()
		r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))
	}()

	<-entered

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))

	if second.Code != http.StatusServiceUnavailable {
		t.Errorf("second request = %d, want 503", second.Code)
	}

	if !strings.Contains(second.Body.String(), `"busy"`) {
		t.Errorf("unexpected body %s", second.Body.String())
	}

	close(release)
	wg.Wait()

	if first.Code != http.StatusOK {
		t.Errorf("first request = %d, want 200", first.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	expected := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}

	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return -1
	}

	return m.GetCounter().GetValue()
}

func TestPrometheus_LabelsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Prometheus())
	r.GET("/reads/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	routed := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/reads/:id", "200")
	unmatched := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	scrapes := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/metrics", "200")

	before := counterValue(routed)
	beforeUnmatched := counterValue(unmatched)

	for _, path := range []string{"/reads/a", "/reads/b", "/nope", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	if got := counterValue(routed) - before; got != 2 {
		t.Errorf("routed requests: got %v, want 2", got)
	}

	if got := counterValue(unmatched) - beforeUnmatched; got != 1 {
		t.Errorf("unmatched requests: got %v, want 1", got)
	}

	if got := counterValue(scrapes); got != 0 {
		t.Errorf("metrics scrapes should not be counted, got %v", got)
	}
}
