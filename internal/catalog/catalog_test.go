package catalog_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/models"
)

// twoExonSnapshot is gene 1 with transcript 1: exon 100-200, intron 200-300, exon 300-400.
func twoExonSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Build: "toy",
		Genes: []models.Gene{{ID: 1, Name: "TG1", Chrom: "chr1", Strand: models.StrandPlus}},
		Vertices: []models.Vertex{
			{ID: 1, Chrom: "chr1", Pos: 100, Strand: models.StrandPlus, Role: models.RoleStart},
			{ID: 2, Chrom: "chr1", Pos: 200, Strand: models.StrandPlus, Role: models.RoleDonor},
			{ID: 3, Chrom: "chr1", Pos: 300, Strand: models.StrandPlus, Role: models.RoleAcceptor},
			{ID: 4, Chrom: "chr1", Pos: 400, Strand: models.StrandPlus, Role: models.RoleEnd},
		},
		Edges: []models.Edge{
			{ID: 1, V5: 1, V3: 2, Type: models.EdgeExon, Strand: models.StrandPlus},
			{ID: 2, V5: 2, V3: 3, Type: models.EdgeIntron, Strand: models.StrandPlus},
			{ID: 3, V5: 3, V3: 4, Type: models.EdgeExon, Strand: models.StrandPlus},
		},
		Transcripts: []models.Transcript{{ID: 1, GeneID: 1, Name: "TG1-001", Edges: []int64{1, 2, 3}}},
	}
}

func TestLoad_BuildsIndexesAndExtrema(t *testing.T) {
	c, err := catalog.Load(twoExonSnapshot(), false)
	require.NoError(t, err)

	assert.Equal(t, models.CatalogStats{Vertices: 4, Edges: 3, Genes: 1, Transcripts: 1}, c.Stats())
	assert.Equal(t, models.IDCounters{Vertex: 4, Edge: 3, Transcript: 1, Gene: 1}, c.MaxIDs())

	g, ok := c.Gene(1)
	require.True(t, ok)
	assert.Equal(t, int64(100), g.Min)
	assert.Equal(t, int64(400), g.Max)

	assert.Equal(t, []int64{1}, c.TranscriptsThroughVertex(3))
	assert.Equal(t, []int64{1}, c.TranscriptsWithEdge(2))
	assert.Equal(t, []int64{1}, c.TranscriptsOfGene(1))

	e, ok := c.FindEdge(2, 3, models.EdgeIntron)
	require.True(t, ok)
	assert.Equal(t, int64(2), e.ID)

	_, ok = c.FindEdge(2, 3, models.EdgeExon)
	assert.False(t, ok)

	ch := c.TakeChanges()
	assert.True(t, ch.Empty(), "loaded entities are not pending changes")
}

func TestLoad_RejectsDuplicatePosition(t *testing.T) {
	snap := twoExonSnapshot()
	snap.Vertices = append(snap.Vertices, models.Vertex{ID: 9, Chrom: "chr1", Pos: 300, Strand: models.StrandPlus})

	_, err := catalog.Load(snap, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCatalogInconsistent))
	assert.True(t, errors.Is(err, models.ErrDuplicateKey))
}

func TestLoad_RejectsBrokenChain(t *testing.T) {
	snap := twoExonSnapshot()
	snap.Transcripts[0].Edges = []int64{1, 3}

	_, err := catalog.Load(snap, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCatalogInconsistent))
	assert.True(t, errors.Is(err, models.ErrMalformedChain))
}

func TestVerticesBetween(t *testing.T) {
	c, err := catalog.Load(twoExonSnapshot(), false)
	require.NoError(t, err)

	vs, err := c.VerticesBetween("chr1", models.StrandPlus, 150, 300)
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, int64(2), vs[0].ID)
	assert.Equal(t, int64(3), vs[1].ID)

	v, ok, err := c.Locate("chr1", models.StrandPlus, 400)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), v.ID)
}

func TestAddTranscript_TracksChangesAndWidensGene(t *testing.T) {
	c, err := catalog.Load(twoExonSnapshot(), false)
	require.NoError(t, err)

	require.NoError(t, c.AddVertex(models.Vertex{ID: 5, Chrom: "chr1", Pos: 600, Strand: models.StrandPlus, Role: models.RoleEnd}))
	require.NoError(t, c.AddEdge(models.Edge{ID: 4, V5: 3, V3: 5, Type: models.EdgeExon, Strand: models.StrandPlus}))
	require.NoError(t, c.AddTranscript(models.Transcript{ID: 2, GeneID: 1, Edges: []int64{1, 2, 4}}))

	g, _ := c.Gene(1)
	assert.Equal(t, int64(600), g.Max)

	ch := c.TakeChanges()
	require.Len(t, ch.Vertices, 1)
	require.Len(t, ch.Edges, 1)
	require.Len(t, ch.Transcripts, 1)
	require.Len(t, ch.Genes, 1)
	assert.Equal(t, int64(600), ch.Genes[0].Max)

	next := c.TakeChanges()
	assert.True(t, next.Empty())
	assert.NoError(t, c.Check())
}

func TestAddEdge_Validation(t *testing.T) {
	c, err := catalog.Load(twoExonSnapshot(), false)
	require.NoError(t, err)

	err = c.AddEdge(models.Edge{ID: 9, V5: 1, V3: 99, Type: models.EdgeExon})
	assert.True(t, errors.Is(err, models.ErrVertexNotFound))

	err = c.AddEdge(models.Edge{ID: 9, V5: 1, V3: 2, Type: models.EdgeExon})
	assert.True(t, errors.Is(err, models.ErrDuplicateKey), "same endpoints and type as edge 1")

	err = c.AddEdge(models.Edge{ID: 1, V5: 1, V3: 3, Type: models.EdgeExon})
	assert.True(t, errors.Is(err, models.ErrDuplicateKey), "reused ID")
}

func TestAddTranscript_Validation(t *testing.T) {
	c, err := catalog.Load(twoExonSnapshot(), false)
	require.NoError(t, err)

	err = c.AddTranscript(models.Transcript{ID: 5, GeneID: 42, Edges: []int64{1}})
	assert.True(t, errors.Is(err, models.ErrGeneNotFound))

	err = c.AddTranscript(models.Transcript{ID: 5, GeneID: 1})
	assert.True(t, errors.Is(err, models.ErrEmptyChain))

	err = c.AddTranscript(models.Transcript{ID: 5, GeneID: 1, Edges: []int64{2, 1}})
	assert.True(t, errors.Is(err, models.ErrMalformedChain))
}

func TestSnapshotRoundTrip(t *testing.T) {
	c, err := catalog.Load(twoExonSnapshot(), true)
	require.NoError(t, err)

	snap := c.Snapshot("toy")
	again, err := catalog.Load(snap, true)
	require.NoError(t, err)
	assert.Equal(t, c.Stats(), again.Stats())
	assert.Equal(t, int64(1), snap.Vertices[0].ID)
}
