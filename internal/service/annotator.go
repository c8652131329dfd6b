// Package service provides the read annotation workflow between the engine,
// the catalog stores and the API/CLI surfaces.
package service

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/domain"
	"github.com/dewyman/TALON/internal/engine"
	"github.com/dewyman/TALON/internal/metrics"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/runinfo"
)

// CatalogStore is an alias for the canonical domain.CatalogStore interface.
type CatalogStore = domain.CatalogStore

// CheckpointEnqueuer accepts catalog changes for persistence.
type CheckpointEnqueuer interface {
	Enqueue(ctx context.Context, job *CheckpointJob) error
}

// Compile-time check: *Annotator must satisfy domain.AnnotationService.
var _ domain.AnnotationService = (*Annotator)(nil)

// Annotator assigns reads to genes and transcript models, growing the catalog
// as it goes. All catalog access is serialised by one mutex so results do not
// depend on request interleaving beyond arrival order.
type Annotator struct {
	mu          sync.Mutex
	cat         *catalog.Catalog
	ri          *runinfo.RunInfo
	checkpoints CheckpointEnqueuer
	interval    int
	log         *logrus.Logger

	reads    int
	skipped  int
	byStatus map[string]int
}

// NewAnnotator creates an Annotator. With a nil enqueuer or a non-positive
// interval no checkpoints are taken until Checkpoint is called.
func NewAnnotator(
	cat *catalog.Catalog, ri *runinfo.RunInfo, checkpoints CheckpointEnqueuer, interval int, log *logrus.Logger,
) *Annotator {
	return &Annotator{
		cat:         cat,
		ri:          ri,
		checkpoints: checkpoints,
		interval:    interval,
		log:         log,
		byStatus:    make(map[string]int),
	}
}

// RunInfo returns the run the annotator allocates IDs for.
func (a *Annotator) RunInfo() *runinfo.RunInfo {
	return a.ri
}

// AnnotateRead resolves a read to vertices and edges, classifies the chain and
// registers whatever the catalog was missing.
func (a *Annotator) AnnotateRead(ctx context.Context, read models.Read) (*models.Annotation, error) {
	if err := read.Validate(); err != nil {
		a.mu.Lock()
		a.skipped++
		a.mu.Unlock()
		metrics.ReadsSkipped.Inc()

		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ann, err := a.annotate(read)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("annotate").Inc()
		return nil, fmt.Errorf("annotating read %s: %w", read.ID, err)
	}

	a.reads++
	a.byStatus[string(ann.Status)]++
	metrics.ReadsTotal.WithLabelValues(string(ann.Status)).Inc()

	a.log.WithFields(logrus.Fields{
		"read_id":       read.ID,
		"status":        ann.Status,
		"transcript_id": ann.TranscriptID,
	}).Debug("read annotated")

	if a.checkpoints != nil && a.interval > 0 && a.reads%a.interval == 0 {
		if err := a.checkpointLocked(ctx); err != nil {
			return ann, err
		}
	}

	return ann, nil
}

func (a *Annotator) annotate(read models.Read) (*models.Annotation, error) {
	vertices, ends, err := a.resolveVertices(read)
	if err != nil {
		return nil, err
	}

	edges, err := a.resolveEdges(read, vertices)
	if err != nil {
		return nil, err
	}

	match, found, err := engine.ClassifyChain(edges, vertices, a.cat, a.ri)
	if err != nil {
		return nil, err
	}

	if !found {
		match, err = a.registerNovel(read, edges, vertices, ends.internalNovel)
	} else if match.Status == models.MatchISM {
		match, err = a.registerISM(match, edges)
	}

	if err != nil {
		return nil, err
	}

	gene, _ := a.cat.Gene(match.GeneID)
	tx, _ := a.cat.Transcript(match.TranscriptID)

	return &models.Annotation{
		ReadID:         read.ID,
		Dataset:        read.Dataset,
		Chrom:          read.Chrom,
		Strand:         read.Strand,
		GeneID:         gene.ID,
		GeneName:       gene.Name,
		TranscriptID:   tx.ID,
		TranscriptName: tx.Name,
		Status:         match.Status,
		Novelty:        match.Novelty,
		Start:          ends.start,
		End:            ends.end,
		Exons:          read.Exons(),
		Coverage:       read.Coverage,
	}, nil
}

type endMatches struct {
	start, end    models.VertexMatch
	internalNovel bool
}

// resolveVertices maps every read position to a vertex: the transcript ends
// permissively, the splice sites exactly. Both ends are searched before any
// vertex is minted for the read, so an end never snaps onto a splice site the
// same read just created.
func (a *Annotator) resolveVertices(read models.Read) ([]int64, endMatches, error) {
	p := read.Positions
	n := len(p)
	out := make([]int64, n)

	var ends endMatches

	startQ := engine.VertexQuery{Chrom: read.Chrom, Pos: p[0], Strand: read.Strand, Partner: p[1], Role: models.RoleStart}
	endQ := engine.VertexQuery{Chrom: read.Chrom, Pos: p[n-1], Strand: read.Strand, Partner: p[n-2], Role: models.RoleEnd}

	startV, startOK, err := engine.NearestVertex(startQ, a.cat, a.ri.CutoffFor(models.RoleStart))
	if err != nil {
		return nil, ends, fmt.Errorf("start vertex: %w", err)
	}

	endV, endOK, err := engine.NearestVertex(endQ, a.cat, a.ri.CutoffFor(models.RoleEnd))
	if err != nil {
		return nil, ends, fmt.Errorf("end vertex: %w", err)
	}

	if ends.start, err = a.endMatch(startQ, startV, startOK); err != nil {
		return nil, ends, fmt.Errorf("start vertex: %w", err)
	}

	out[0] = ends.start.VertexID

	for i := 1; i < n-1; i++ {
		role := models.RoleAcceptor
		if i%2 == 1 {
			role = models.RoleDonor
		}

		m, err := engine.ExactVertexSearch(read.Chrom, p[i], read.Strand, role, a.cat, a.ri)
		if err != nil {
			return nil, ends, fmt.Errorf("splice site %d: %w", i, err)
		}

		out[i] = m.VertexID
		ends.internalNovel = ends.internalNovel || m.Novel
		countNovel(m)
	}

	if ends.end, err = a.endMatch(endQ, endV, endOK); err != nil {
		return nil, ends, fmt.Errorf("end vertex: %w", err)
	}

	out[n-1] = ends.end.VertexID

	return out, ends, nil
}

// endMatch turns a permissive search result into a match, minting a vertex at
// the observed position when the search found nothing.
func (a *Annotator) endMatch(q engine.VertexQuery, v models.Vertex, found bool) (models.VertexMatch, error) {
	if found {
		return models.VertexMatch{VertexID: v.ID, Offset: q.Offset(v.Pos)}, nil
	}

	m, err := engine.ExactVertexSearch(q.Chrom, q.Pos, q.Strand, q.Role, a.cat, a.ri)
	if err != nil {
		return models.VertexMatch{}, err
	}

	countNovel(m)

	return m, nil
}

func countNovel(m models.VertexMatch) {
	if m.Novel {
		metrics.VerticesCreated.Inc()
	}
}

// resolveEdges finds or creates the exon and intron between each vertex pair.
// Only a single-base exon may start and end on the same vertex.
func (a *Annotator) resolveEdges(read models.Read, vertices []int64) ([]int64, error) {
	out := make([]int64, len(vertices)-1)

	for i := range out {
		typ := models.EdgeTypeAt(i)
		if vertices[i] == vertices[i+1] && read.Positions[i] != read.Positions[i+1] {
			return nil, fmt.Errorf("%s %d of read %s collapses onto vertex %d: %w",
				typ, i/2+1, read.ID, vertices[i], models.ErrMalformedChain)
		}

		if e, ok := a.cat.FindEdge(vertices[i], vertices[i+1], typ); ok {
			out[i] = e.ID
			continue
		}

		e := models.Edge{
			ID:     a.ri.Alloc.NextEdge(),
			V5:     vertices[i],
			V3:     vertices[i+1],
			Type:   typ,
			Strand: read.Strand,
		}
		if err := a.cat.AddEdge(e); err != nil {
			return nil, fmt.Errorf("registering %s %d-%d: %w", typ, e.V5, e.V3, err)
		}

		out[i] = e.ID
	}

	return out, nil
}

// registerISM stores an incomplete splice match as a transcript of the gene it
// matched, so later reads with the same chain match it in full.
func (a *Annotator) registerISM(m models.Match, edges []int64) (models.Match, error) {
	tid, err := a.addTranscript(m.GeneID, edges)
	if err != nil {
		return models.Match{}, err
	}

	m.TranscriptID = tid

	return m, nil
}

// registerNovel places an unmatched chain in the gene sharing the most vertices
// with it, or in a new intergenic gene when no gene shares any.
func (a *Annotator) registerNovel(read models.Read, edges, vertices []int64, internalNovel bool) (models.Match, error) {
	m := models.Match{Status: models.MatchNovel, Novelty: []models.Novelty{}}

	geneID, ok := a.geneSharingMostVertices(vertices)

	switch {
	case !ok:
		g := models.Gene{
			ID:     a.ri.Alloc.NextGene(),
			Chrom:  read.Chrom,
			Strand: read.Strand,
		}
		g.Name = a.ri.GeneName(g.ID)

		if err := a.cat.AddGene(g); err != nil {
			return models.Match{}, fmt.Errorf("registering gene: %w", err)
		}

		geneID = g.ID
		m.Novelty = append(m.Novelty, models.NoveltyGenomic)
	case len(edges) == 1:
		m.Novelty = append(m.Novelty, models.NoveltyMonoExon)
	case internalNovel:
		m.Novelty = append(m.Novelty, models.NoveltyNNC)
	default:
		m.Novelty = append(m.Novelty, models.NoveltyNIC)
	}

	tid, err := a.addTranscript(geneID, edges)
	if err != nil {
		return models.Match{}, err
	}

	m.GeneID, m.TranscriptID = geneID, tid

	return m, nil
}

func (a *Annotator) geneSharingMostVertices(vertices []int64) (int64, bool) {
	shared := make(map[int64]int)

	for _, vid := range uniqueInt64(vertices) {
		seen := make(map[int64]struct{})

		for _, tid := range a.cat.TranscriptsThroughVertex(vid) {
			t, ok := a.cat.Transcript(tid)
			if !ok {
				continue
			}

			if _, dup := seen[t.GeneID]; !dup {
				seen[t.GeneID] = struct{}{}
				shared[t.GeneID]++
			}
		}
	}

	var (
		best      int64
		bestCount int
	)

	for gid, n := range shared {
		if n > bestCount || n == bestCount && gid < best {
			best, bestCount = gid, n
		}
	}

	return best, bestCount > 0
}

func (a *Annotator) addTranscript(geneID int64, edges []int64) (int64, error) {
	t := models.Transcript{
		ID:     a.ri.Alloc.NextTranscript(),
		GeneID: geneID,
		Edges:  edges,
	}
	t.Name = a.ri.TranscriptName(t.ID)

	if err := a.cat.AddTranscript(t); err != nil {
		return 0, fmt.Errorf("registering transcript: %w", err)
	}

	return t.ID, nil
}

// MatchVertex runs a permissive search with the run cutoff for the query role.
func (a *Annotator) MatchVertex(_ context.Context, q engine.VertexQuery) (models.VertexMatch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := engine.PermissiveVertexSearch(q, a.cat, a.ri.CutoffFor(q.Role), a.ri)
	if err != nil {
		return models.VertexMatch{}, err
	}

	countNovel(m)

	return m, nil
}

// ClassifyChain classifies a chain of catalog edges without registering anything.
func (a *Annotator) ClassifyChain(_ context.Context, edgeIDs, vertexIDs []int64) (models.Match, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return engine.ClassifyChain(edgeIDs, vertexIDs, a.cat, a.ri)
}

// Stats reports run progress and catalog size.
func (a *Annotator) Stats(_ context.Context) models.RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := models.RunStats{
		RunID:     a.ri.ID,
		Build:     a.ri.Build,
		Reads:     a.reads,
		Skipped:   a.skipped,
		ByStatus:  maps.Clone(a.byStatus),
		Catalog:   a.cat.Stats(),
		Allocated: a.ri.Alloc.Current(),
	}

	metrics.CatalogSize.WithLabelValues("vertex").Set(float64(st.Catalog.Vertices))
	metrics.CatalogSize.WithLabelValues("edge").Set(float64(st.Catalog.Edges))
	metrics.CatalogSize.WithLabelValues("gene").Set(float64(st.Catalog.Genes))
	metrics.CatalogSize.WithLabelValues("transcript").Set(float64(st.Catalog.Transcripts))

	return st
}

// Checkpoint hands everything registered since the last checkpoint to the
// checkpoint worker.
func (a *Annotator) Checkpoint(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.checkpointLocked(ctx)
}

func (a *Annotator) checkpointLocked(ctx context.Context) error {
	ch := a.cat.TakeChanges()
	if ch.Empty() || a.checkpoints == nil {
		return nil
	}

	a.log.WithFields(logrus.Fields{
		"run_id":   a.ri.ID,
		"reads":    a.reads,
		"entities": ch.Size(),
	}).Info("checkpoint")

	if err := a.checkpoints.Enqueue(ctx, &CheckpointJob{Build: a.ri.Build, Changes: ch}); err != nil {
		return fmt.Errorf("enqueueing checkpoint: %w", err)
	}

	return nil
}

// Run summarises the run for the runs table.
func (a *Annotator) Run() models.Run {
	a.mu.Lock()
	defer a.mu.Unlock()

	return models.Run{ID: a.ri.ID, Build: a.ri.Build, Dataset: a.ri.Dataset, Reads: a.reads}
}

func uniqueInt64(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	return out
}
