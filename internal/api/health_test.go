package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dewyman/TALON/internal/api"
	"github.com/dewyman/TALON/internal/models"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	t.Parallel()

	svc := &mockAnnotator{stats: models.RunStats{Build: "hg38"}}
	h := api.NewHealthHandler(&mockDB{err: errDBDown}, svc, testLogger(), "test-v1")

	r := gin.New()
	r.GET("/health", h.Liveness)

	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["status"] != "ok" || body["version"] != "test-v1" {
		t.Errorf("unexpected body %v", body)
	}

	if body["database"] != "disconnected" {
		t.Errorf("expected database 'disconnected', got %v", body["database"])
	}

	if body["build"] != "hg38" {
		t.Errorf("expected build 'hg38', got %v", body["build"])
	}
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		db        api.HealthChecker
		annotator api.Annotator
		wantCode  int
	}{
		{"ready", &mockDB{}, &mockAnnotator{}, http.StatusOK},
		{"sqlite catalog without db checker", nil, &mockAnnotator{}, http.StatusOK},
		{"database down", &mockDB{err: errDBDown}, &mockAnnotator{}, http.StatusServiceUnavailable},
		{"no catalog loaded", &mockDB{}, nil, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := api.NewHealthHandler(tc.db, tc.annotator, testLogger(), "test")

			r := gin.New()
			r.GET("/ready", h.Readiness)

			w := doRequest(r, http.MethodGet, "/ready", "")

			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}
