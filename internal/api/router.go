package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	DB          HealthChecker
	Annotator   Annotator
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 32 << 20 // 32 MB, a full batch of long reads
	maxInFlight = 64       // annotation requests queued on the annotator
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))

	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			MaxAge:           1 * time.Hour,
			AllowCredentials: false,
		}))
	}

	r.Use(middleware.Prometheus())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	health := NewHealthHandler(deps.DB, deps.Annotator, deps.Log, deps.Version)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	if deps.Annotator == nil {
		return
	}

	h := NewAnnotationHandler(deps.Annotator, deps.Log)

	api.GET("/stats", h.Stats)

	work := api.Group("", middleware.InFlightLimit(maxInFlight))
	work.POST("/reads/annotate", h.Annotate)
	work.POST("/reads/annotate/batch", h.AnnotateBatch)
	work.POST("/vertices/match", h.MatchVertex)
	work.POST("/transcripts/classify", h.Classify)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
