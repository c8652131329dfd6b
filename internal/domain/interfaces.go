// Package domain defines the canonical service interfaces shared across the CLI
// and the REST API. Consumers should depend on these interfaces rather than
// re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/dewyman/TALON/internal/engine"
	"github.com/dewyman/TALON/internal/models"
)

// CatalogStore loads and persists the splice graph of one genome build.
// Implemented by the PostgreSQL store and the SQLite catalog.
type CatalogStore interface {
	LoadSnapshot(ctx context.Context, build string) (*models.Snapshot, error)
	SaveChanges(ctx context.Context, build string, ch models.Changes) error
	RecordRun(ctx context.Context, run models.Run) error
}

// AnnotationService defines read annotation and the engine lookups behind it.
type AnnotationService interface {
	AnnotateRead(ctx context.Context, read models.Read) (*models.Annotation, error)
	MatchVertex(ctx context.Context, q engine.VertexQuery) (models.VertexMatch, error)
	ClassifyChain(ctx context.Context, edgeIDs, vertexIDs []int64) (models.Match, bool, error)
	Stats(ctx context.Context) models.RunStats
}
