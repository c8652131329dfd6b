package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/db"
	"github.com/dewyman/TALON/internal/dbpool"
	"github.com/dewyman/TALON/internal/models"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL, 0)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.MigratePostgres(ctx, pool, log); err != nil {
		t.Fatalf("migrating test DB: %v", err)
	}

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// testBuild returns a build name no other test uses.
func testBuild() string {
	return "test-" + uuid.New().String()
}

func twoExonChanges() models.Changes {
	p := models.StrandPlus

	return models.Changes{
		Vertices: []models.Vertex{
			{ID: 1, Chrom: "chr1", Pos: 100, Strand: p, Role: models.RoleStart},
			{ID: 2, Chrom: "chr1", Pos: 200, Strand: p, Role: models.RoleDonor},
			{ID: 3, Chrom: "chr1", Pos: 300, Strand: p, Role: models.RoleAcceptor},
			{ID: 4, Chrom: "chr1", Pos: 400, Strand: p, Role: models.RoleEnd},
		},
		Edges: []models.Edge{
			{ID: 1, V5: 1, V3: 2, Type: models.EdgeExon, Strand: p},
			{ID: 2, V5: 2, V3: 3, Type: models.EdgeIntron, Strand: p},
			{ID: 3, V5: 3, V3: 4, Type: models.EdgeExon, Strand: p},
		},
		Genes:       []models.Gene{{ID: 1, Name: "TG1", Chrom: "chr1", Strand: p, Min: 100, Max: 400}},
		Transcripts: []models.Transcript{{ID: 1, GeneID: 1, Name: "TG1-001", Edges: []int64{1, 2, 3}}},
	}
}
