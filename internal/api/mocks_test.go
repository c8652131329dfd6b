package api_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dewyman/TALON/internal/engine"
	"github.com/dewyman/TALON/internal/models"
)

// mockAnnotator implements api.Annotator for testing.
type mockAnnotator struct {
	mu        sync.Mutex
	annotated []string

	annotateFn func(ctx context.Context, read models.Read) (*models.Annotation, error)
	matchFn    func(ctx context.Context, q engine.VertexQuery) (models.VertexMatch, error)
	classifyFn func(ctx context.Context, edgeIDs, vertexIDs []int64) (models.Match, bool, error)
	stats      models.RunStats
}

func (m *mockAnnotator) AnnotateRead(ctx context.Context, read models.Read) (*models.Annotation, error) {
	m.mu.Lock()
	m.annotated = append(m.annotated, read.ID)
	m.mu.Unlock()

	return m.annotateFn(ctx, read)
}

func (m *mockAnnotator) MatchVertex(ctx context.Context, q engine.VertexQuery) (models.VertexMatch, error) {
	return m.matchFn(ctx, q)
}

func (m *mockAnnotator) ClassifyChain(ctx context.Context, edgeIDs, vertexIDs []int64) (models.Match, bool, error) {
	return m.classifyFn(ctx, edgeIDs, vertexIDs)
}

func (m *mockAnnotator) Stats(_ context.Context) models.RunStats {
	return m.stats
}

// mockDB implements api.HealthChecker for testing.
type mockDB struct {
	err error
}

func (m *mockDB) HealthCheck(_ context.Context) error {
	return m.err
}

var errDBDown = errors.New("connection refused")
