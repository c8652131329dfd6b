package api

import (
	"context"

	"github.com/dewyman/TALON/internal/domain"
)

// Annotator is the annotation surface the handlers drive.
type Annotator = domain.AnnotationService

// HealthChecker reports whether the catalog database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
