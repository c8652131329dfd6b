package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/engine"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/runinfo"
)

func vtx(id int64, chrom string, pos int64, strand models.Strand, role models.SiteRole) models.Vertex {
	return models.Vertex{ID: id, Chrom: chrom, Pos: pos, Strand: strand, Role: role}
}

func exon(id, v5, v3 int64) models.Edge {
	return models.Edge{ID: id, V5: v5, V3: v3, Type: models.EdgeExon, Strand: models.StrandPlus}
}

func intron(id, v5, v3 int64) models.Edge {
	return models.Edge{ID: id, V5: v5, V3: v3, Type: models.EdgeIntron, Strand: models.StrandPlus}
}

// toySnapshot holds:
//
//	chr1 +  TG1 / TG1-001: 1000-1100 ^ 1200-1300 ^ 1400-1500 (vertices 1..6, edges 1..5)
//	        spare ends 2200 (7), 1600 (8), 1250 (9) and acceptor 1150 (11)
//	chr2 +  TG2 / TG2-001: monoexonic 900-1000 (vertices 15, 16, edge 11)
//	chr3 -  lone vertex 10 at 2000
func toySnapshot() *models.Snapshot {
	p, m := models.StrandPlus, models.StrandMinus

	return &models.Snapshot{
		Build: "toy",
		Genes: []models.Gene{
			{ID: 1, Name: "TG1", Chrom: "chr1", Strand: p},
			{ID: 2, Name: "TG2", Chrom: "chr2", Strand: p},
		},
		Vertices: []models.Vertex{
			vtx(1, "chr1", 1000, p, models.RoleStart),
			vtx(2, "chr1", 1100, p, models.RoleDonor),
			vtx(3, "chr1", 1200, p, models.RoleAcceptor),
			vtx(4, "chr1", 1300, p, models.RoleDonor),
			vtx(5, "chr1", 1400, p, models.RoleAcceptor),
			vtx(6, "chr1", 1500, p, models.RoleEnd),
			vtx(7, "chr1", 2200, p, models.RoleEnd),
			vtx(8, "chr1", 1600, p, models.RoleEnd),
			vtx(9, "chr1", 1250, p, models.RoleEnd),
			vtx(10, "chr3", 2000, m, models.RoleStart),
			vtx(11, "chr1", 1150, p, models.RoleAcceptor),
			vtx(15, "chr2", 900, p, models.RoleStart),
			vtx(16, "chr2", 1000, p, models.RoleEnd),
		},
		Edges: []models.Edge{
			exon(1, 1, 2),
			intron(2, 2, 3),
			exon(3, 3, 4),
			intron(4, 4, 5),
			exon(5, 5, 6),
			exon(6, 5, 7),
			exon(7, 5, 8),
			exon(8, 3, 9),
			intron(9, 2, 11),
			exon(10, 11, 4),
			exon(11, 15, 16),
		},
		Transcripts: []models.Transcript{
			{ID: 1, GeneID: 1, Name: "TG1-001", Edges: []int64{1, 2, 3, 4, 5}},
			{ID: 3, GeneID: 2, Name: "TG2-001", Edges: []int64{11}},
		},
	}
}

func newToy(t *testing.T) (*catalog.Catalog, *runinfo.RunInfo) {
	t.Helper()

	cat, err := catalog.Load(toySnapshot(), false)
	require.NoError(t, err)

	ri := runinfo.New(runinfo.Settings{Build: "toy", Cutoff5p: 500, Cutoff3p: 300, IDPrefix: "TALON"}, cat.MaxIDs())

	return cat, ri
}

func TestPermissiveVertexSearch(t *testing.T) {
	tests := []struct {
		name   string
		q      engine.VertexQuery
		cutoff int64
		want   models.VertexMatch
	}{
		{
			name:   "minus strand start at the cutoff boundary",
			q:      engine.VertexQuery{Chrom: "chr3", Pos: 1750, Strand: models.StrandMinus, Partner: 1500, Role: models.RoleStart},
			cutoff: 250,
			want:   models.VertexMatch{VertexID: 10, Offset: -250},
		},
		{
			name:   "monoexonic start",
			q:      engine.VertexQuery{Chrom: "chr2", Pos: 920, Strand: models.StrandPlus, Partner: 970, Role: models.RoleStart},
			cutoff: 250,
			want:   models.VertexMatch{VertexID: 15, Offset: -20},
		},
		{
			name:   "monoexonic end",
			q:      engine.VertexQuery{Chrom: "chr2", Pos: 970, Strand: models.StrandPlus, Partner: 920, Role: models.RoleEnd},
			cutoff: 250,
			want:   models.VertexMatch{VertexID: 16, Offset: 30},
		},
		{
			name:   "single base exon",
			q:      engine.VertexQuery{Chrom: "chr1", Pos: 1000, Strand: models.StrandPlus, Partner: 1000, Role: models.RoleStart},
			cutoff: 250,
			want:   models.VertexMatch{VertexID: 1, Offset: 0},
		},
		{
			name:   "zero cutoff exact hit",
			q:      engine.VertexQuery{Chrom: "chr1", Pos: 1500, Strand: models.StrandPlus, Partner: 1400, Role: models.RoleEnd},
			cutoff: 0,
			want:   models.VertexMatch{VertexID: 6, Offset: 0},
		},
		{
			name:   "skips the vertex at the partner site",
			q:      engine.VertexQuery{Chrom: "chr1", Pos: 1420, Strand: models.StrandPlus, Partner: 1400, Role: models.RoleEnd},
			cutoff: 100,
			want:   models.VertexMatch{VertexID: 6, Offset: 80},
		},
		{
			name:   "plus strand start upstream of the known start",
			q:      engine.VertexQuery{Chrom: "chr1", Pos: 1060, Strand: models.StrandPlus, Partner: 1100, Role: models.RoleStart},
			cutoff: 500,
			want:   models.VertexMatch{VertexID: 1, Offset: -60},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, ri := newToy(t)

			got, err := engine.PermissiveVertexSearch(tt.q, cat, tt.cutoff, ri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := engine.PermissiveVertexSearch(tt.q, cat, tt.cutoff, ri)
			require.NoError(t, err)
			assert.Equal(t, got, again, "repeat query must be deterministic")
			assert.Equal(t, 13, cat.Stats().Vertices, "a match must not grow the catalog")
		})
	}
}

func TestPermissiveVertexSearch_BeyondCutoffCreatesVertex(t *testing.T) {
	cat, ri := newToy(t)
	// Vertex 10 at 2000 is 300 away; the partner at 1500 is never a candidate.
	q := engine.VertexQuery{Chrom: "chr3", Pos: 1700, Strand: models.StrandMinus, Partner: 1500, Role: models.RoleStart}

	got, err := engine.PermissiveVertexSearch(q, cat, 250, ri)
	require.NoError(t, err)
	assert.True(t, got.Novel)
	assert.Equal(t, "NA", got.OffsetString())
	assert.Equal(t, int64(17), got.VertexID, "allocated after the loaded maximum")

	v, ok := cat.Vertex(got.VertexID)
	require.True(t, ok)
	assert.Equal(t, int64(1700), v.Pos)
	assert.Equal(t, models.RoleStart, v.Role)

	again, err := engine.PermissiveVertexSearch(q, cat, 250, ri)
	require.NoError(t, err)
	assert.Equal(t, models.VertexMatch{VertexID: 17, Offset: 0}, again)

	ch := cat.TakeChanges()
	require.Len(t, ch.Vertices, 1)
	assert.Equal(t, int64(17), ch.Vertices[0].ID)
}

func TestPermissiveVertexSearch_PartnerVertexIsNeverMatched(t *testing.T) {
	cat, ri := newToy(t)
	require.NoError(t, cat.AddVertex(vtx(30, "chr3", 1500, models.StrandMinus, models.RoleDonor)))

	q := engine.VertexQuery{Chrom: "chr3", Pos: 1700, Strand: models.StrandMinus, Partner: 1500, Role: models.RoleStart}
	got, err := engine.PermissiveVertexSearch(q, cat, 250, ri)
	require.NoError(t, err)
	assert.True(t, got.Novel, "the donor at the partner coordinate must not absorb the start")
	assert.Equal(t, "NA", got.OffsetString())

	q.Pos = 1750
	got, err = engine.PermissiveVertexSearch(q, cat, 250, ri)
	require.NoError(t, err)
	assert.Equal(t, models.VertexMatch{VertexID: 10, Offset: -250}, got)
}

func TestVertexQuery_OffsetFollowsTranscriptDirection(t *testing.T) {
	plus := engine.VertexQuery{Pos: 1000, Strand: models.StrandPlus}
	minus := engine.VertexQuery{Pos: 1000, Strand: models.StrandMinus}

	assert.Equal(t, int64(-20), plus.Offset(980))
	assert.Equal(t, int64(20), plus.Offset(1020))
	assert.Equal(t, int64(20), minus.Offset(980))
	assert.Equal(t, int64(-20), minus.Offset(1020))
}

func TestPermissiveVertexSearch_TieGoesToLowestID(t *testing.T) {
	cat := catalog.New(false)
	require.NoError(t, cat.AddVertex(vtx(21, "chr5", 100, models.StrandPlus, models.RoleEnd)))
	require.NoError(t, cat.AddVertex(vtx(20, "chr5", 300, models.StrandPlus, models.RoleEnd)))
	ri := runinfo.New(runinfo.Settings{}, cat.MaxIDs())

	q := engine.VertexQuery{Chrom: "chr5", Pos: 200, Strand: models.StrandPlus, Partner: 50, Role: models.RoleEnd}
	got, err := engine.PermissiveVertexSearch(q, cat, 150, ri)
	require.NoError(t, err)
	assert.Equal(t, models.VertexMatch{VertexID: 20, Offset: 100}, got)
}

func TestPermissiveVertexSearch_StrandAware(t *testing.T) {
	cat := catalog.New(true)
	require.NoError(t, cat.AddVertex(vtx(1, "chr1", 1000, models.StrandMinus, models.RoleEnd)))
	ri := runinfo.New(runinfo.Settings{}, cat.MaxIDs())

	q := engine.VertexQuery{Chrom: "chr1", Pos: 1000, Strand: models.StrandPlus, Partner: 900, Role: models.RoleEnd}
	got, err := engine.PermissiveVertexSearch(q, cat, 100, ri)
	require.NoError(t, err)
	assert.True(t, got.Novel, "minus strand vertex is invisible to a plus strand query")
	assert.Equal(t, int64(2), got.VertexID)
}

func TestPermissiveVertexSearch_InvalidQuery(t *testing.T) {
	cat, ri := newToy(t)

	_, err := engine.PermissiveVertexSearch(engine.VertexQuery{Chrom: "chr1", Pos: 10, Strand: models.StrandPlus, Role: models.RoleDonor}, cat, 10, ri)
	assert.True(t, errors.Is(err, models.ErrInvalidRole))

	_, err = engine.PermissiveVertexSearch(engine.VertexQuery{Chrom: "chr1", Pos: 10, Strand: "x", Role: models.RoleStart}, cat, 10, ri)
	assert.True(t, errors.Is(err, models.ErrInvalidStrand))

	_, err = engine.PermissiveVertexSearch(engine.VertexQuery{Pos: 10, Strand: models.StrandPlus, Role: models.RoleStart}, cat, 10, ri)
	assert.True(t, errors.Is(err, models.ErrMissingChromosome))
}

func TestExactVertexSearch(t *testing.T) {
	cat, ri := newToy(t)

	got, err := engine.ExactVertexSearch("chr1", 1100, models.StrandPlus, models.RoleDonor, cat, ri)
	require.NoError(t, err)
	assert.Equal(t, models.VertexMatch{VertexID: 2}, got)

	got, err = engine.ExactVertexSearch("chr1", 1101, models.StrandPlus, models.RoleDonor, cat, ri)
	require.NoError(t, err)
	assert.True(t, got.Novel)
	assert.Equal(t, int64(17), got.VertexID)
}

func TestClassifyChain(t *testing.T) {
	tests := []struct {
		name     string
		edges    []int64
		vertices []int64
		want     models.Match
	}{
		{
			name:     "full splice match",
			edges:    []int64{1, 2, 3, 4, 5},
			vertices: []int64{1, 2, 3, 4, 5, 6},
			want:     models.Match{GeneID: 1, TranscriptID: 1, Status: models.MatchFSM, Novelty: []models.Novelty{}},
		},
		{
			name:     "full splice match with distant 3' end",
			edges:    []int64{1, 2, 3, 4, 6},
			vertices: []int64{1, 2, 3, 4, 5, 7},
			want:     models.Match{GeneID: 1, TranscriptID: 1, Status: models.MatchFSM, Novelty: []models.Novelty{models.NovelEnd}},
		},
		{
			name:     "full splice match with 3' end inside cutoff",
			edges:    []int64{1, 2, 3, 4, 7},
			vertices: []int64{1, 2, 3, 4, 5, 8},
			want:     models.Match{GeneID: 1, TranscriptID: 1, Status: models.MatchFSM, Novelty: []models.Novelty{}},
		},
		{
			name:     "suffix ISM",
			edges:    []int64{3, 4, 5},
			vertices: []int64{3, 4, 5, 6},
			want: models.Match{GeneID: 1, TranscriptID: 1, Status: models.MatchISM,
				Novelty: []models.Novelty{models.NoveltyISM, models.NoveltySuffix}},
		},
		{
			name:     "prefix ISM with truncated last exon",
			edges:    []int64{1, 2, 8},
			vertices: []int64{1, 2, 3, 9},
			want: models.Match{GeneID: 1, TranscriptID: 1, Status: models.MatchISM,
				Novelty: []models.Novelty{models.NoveltyISM, models.NoveltyPrefix}},
		},
		{
			name:     "monoexonic",
			edges:    []int64{11},
			vertices: []int64{15, 16},
			want:     models.Match{GeneID: 2, TranscriptID: 3, Status: models.MatchFSM, Novelty: []models.Novelty{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, ri := newToy(t)

			got, found, err := engine.ClassifyChain(tt.edges, tt.vertices, cat, ri)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyChain_NoMatch(t *testing.T) {
	cat, ri := newToy(t)

	// Novel intron 1100-1150 in an otherwise known chain.
	_, found, err := engine.ClassifyChain([]int64{1, 9, 10, 4, 5}, []int64{1, 2, 11, 4, 5, 6}, cat, ri)
	require.NoError(t, err)
	assert.False(t, found)

	// A lone exon that is not a known edge.
	_, found, err = engine.ClassifyChain([]int64{8}, []int64{3, 9}, cat, ri)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClassifyChain_PrefersFSMOverISM(t *testing.T) {
	cat, ri := newToy(t)
	require.NoError(t, cat.AddTranscript(models.Transcript{ID: 2, GeneID: 1, Name: "TG1-002", Edges: []int64{1, 2, 3}}))

	got, found, err := engine.ClassifyChain([]int64{1, 2, 3}, []int64{1, 2, 3, 4}, cat, ri)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), got.TranscriptID)
	assert.True(t, got.Known())
}

// twoGeneCatalog lays out two genes on chr4 + that share the splice junction
// 1100^1200. Each transcript is placed in its gene by the caller.
//
//	starts 700 (5), 900 (7), 1000 (1); ends 1300 (4), 1600 (6)
func twoGeneCatalog(t *testing.T, transcripts ...models.Transcript) (*catalog.Catalog, *runinfo.RunInfo) {
	t.Helper()

	p := models.StrandPlus
	cat, err := catalog.Load(&models.Snapshot{
		Build: "toy",
		Genes: []models.Gene{
			{ID: 1, Name: "WIDE", Chrom: "chr4", Strand: p},
			{ID: 2, Name: "TIGHT", Chrom: "chr4", Strand: p},
		},
		Vertices: []models.Vertex{
			vtx(1, "chr4", 1000, p, models.RoleStart),
			vtx(2, "chr4", 1100, p, models.RoleDonor),
			vtx(3, "chr4", 1200, p, models.RoleAcceptor),
			vtx(4, "chr4", 1300, p, models.RoleEnd),
			vtx(5, "chr4", 700, p, models.RoleStart),
			vtx(6, "chr4", 1600, p, models.RoleEnd),
			vtx(7, "chr4", 900, p, models.RoleStart),
		},
		Edges: []models.Edge{
			exon(1, 1, 2),
			intron(2, 2, 3),
			exon(3, 3, 4),
			exon(4, 5, 2),
			exon(5, 3, 6),
			exon(6, 7, 2),
		},
		Transcripts: transcripts,
	}, false)
	require.NoError(t, err)

	ri := runinfo.New(runinfo.Settings{Build: "toy", Cutoff5p: 500, Cutoff3p: 300, IDPrefix: "TALON"}, cat.MaxIDs())

	return cat, ri
}

func TestClassifyChain_RanksGenesSharingAChain(t *testing.T) {
	tests := []struct {
		name        string
		transcripts []models.Transcript
		edges       []int64
		vertices    []int64
		wantGene    int64
		wantTx      int64
	}{
		{
			// 900-1300 lies inside WIDE (700-1600) but starts 100 before TIGHT
			// (1000-1300), even though TIGHT's ends are closer.
			name: "gene enclosing the read wins",
			transcripts: []models.Transcript{
				{ID: 10, GeneID: 2, Name: "TIGHT-001", Edges: []int64{1, 2, 3}},
				{ID: 20, GeneID: 1, Name: "WIDE-001", Edges: []int64{4, 2, 5}},
			},
			edges:    []int64{6, 2, 3},
			vertices: []int64{7, 2, 3, 4},
			wantGene: 1,
			wantTx:   20,
		},
		{
			name: "closer ends win when both genes enclose the read",
			transcripts: []models.Transcript{
				{ID: 10, GeneID: 1, Name: "WIDE-001", Edges: []int64{4, 2, 5}},
				{ID: 20, GeneID: 2, Name: "TIGHT-001", Edges: []int64{1, 2, 3}},
			},
			edges:    []int64{1, 2, 3},
			vertices: []int64{1, 2, 3, 4},
			wantGene: 2,
			wantTx:   20,
		},
		{
			name: "full tie goes to the lowest transcript ID",
			transcripts: []models.Transcript{
				{ID: 30, GeneID: 1, Name: "WIDE-001", Edges: []int64{1, 2, 3}},
				{ID: 12, GeneID: 2, Name: "TIGHT-001", Edges: []int64{1, 2, 3}},
			},
			edges:    []int64{1, 2, 3},
			vertices: []int64{1, 2, 3, 4},
			wantGene: 2,
			wantTx:   12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, ri := twoGeneCatalog(t, tt.transcripts...)

			got, found, err := engine.ClassifyChain(tt.edges, tt.vertices, cat, ri)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.wantGene, got.GeneID)
			assert.Equal(t, tt.wantTx, got.TranscriptID)
			assert.Equal(t, models.MatchFSM, got.Status)
		})
	}
}

func TestClassifyChain_Malformed(t *testing.T) {
	cat, ri := newToy(t)

	tests := []struct {
		name     string
		edges    []int64
		vertices []int64
	}{
		{"empty", nil, nil},
		{"vertex count", []int64{1}, []int64{1}},
		{"gap", []int64{1, 3}, []int64{1, 2, 4}},
		{"vertex disagrees", []int64{1, 2}, []int64{1, 2, 4}},
		{"unknown edge", []int64{1, 99}, []int64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := engine.ClassifyChain(tt.edges, tt.vertices, cat, ri)
			assert.False(t, found)
			assert.True(t, errors.Is(err, models.ErrMalformedChain), "got %v", err)
		})
	}
}
