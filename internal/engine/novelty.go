package engine

import (
	"fmt"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/runinfo"
)

// chain is a validated observed edge chain with its vertices resolved.
type chain struct {
	edges    []models.Edge
	vertices []models.Vertex
}

func (c *chain) startPos() int64 { return c.vertices[0].Pos }
func (c *chain) endPos() int64   { return c.vertices[len(c.vertices)-1].Pos }

func (c *chain) span() (lo, hi int64) {
	lo, hi = c.startPos(), c.endPos()
	if lo > hi {
		lo, hi = hi, lo
	}

	return lo, hi
}

// candidate is one known transcript containing the observed chain.
type candidate struct {
	transcript models.Transcript
	gene       models.Gene
	offset     int
	status     models.SpliceMatch
	geneDist   int64
	endDist    int64
	knownStart models.Vertex
	knownEnd   models.Vertex
}

// better reports whether a should win over b.
func (a *candidate) better(b *candidate) bool {
	if a.status.Rank() != b.status.Rank() {
		return a.status.Rank() < b.status.Rank()
	}

	if a.geneDist != b.geneDist {
		return a.geneDist < b.geneDist
	}

	if a.endDist != b.endDist {
		return a.endDist < b.endDist
	}

	return a.transcript.ID < b.transcript.ID
}

// ClassifyChain compares an observed edge chain with the known transcript
// models. It reports found=false when no model contains the chain as a
// contiguous slice; registering a new model is then up to the caller.
//
// Internal edges must match by ID. In a multi-edge chain the first and last
// exons are matched by their splice site alone (donor for the first exon,
// acceptor for the last), since their outer coordinates are transcript ends
// rather than splice structure. How far those ends moved decides the
// novel_5p_end / novel_3p_end flags of a full splice match.
//
// A chain that does not agree with vertexIDs, or references unknown edges,
// returns an error wrapping models.ErrMalformedChain.
func ClassifyChain(
	edgeIDs, vertexIDs []int64,
	cat *catalog.Catalog,
	ri *runinfo.RunInfo,
) (models.Match, bool, error) {
	obs, err := resolveChain(edgeIDs, vertexIDs, cat)
	if err != nil {
		return models.Match{}, false, err
	}

	var best *candidate

	for _, tid := range candidateTranscripts(obs, cat) {
		c, ok, err := matchTranscript(obs, tid, cat)
		if err != nil {
			return models.Match{}, false, err
		}

		if ok && (best == nil || c.better(best)) {
			best = c
		}
	}

	if best == nil {
		return models.Match{}, false, nil
	}

	m := models.Match{
		GeneID:       best.gene.ID,
		TranscriptID: best.transcript.ID,
		Status:       best.status,
		Novelty:      []models.Novelty{},
	}

	switch best.status {
	case models.MatchFSM:
		m.Novelty = endNovelty(obs, best, ri)
	case models.MatchISM:
		m.Novelty = append(m.Novelty, models.NoveltyISM)
		if best.offset == 0 {
			m.Novelty = append(m.Novelty, models.NoveltyPrefix)
		}

		if best.offset+len(obs.edges) == len(best.transcript.Edges) {
			m.Novelty = append(m.Novelty, models.NoveltySuffix)
		}
	}

	return m, true, nil
}

// resolveChain checks that the edges exist, are contiguous and agree with the
// vertex chain supplied by the caller.
func resolveChain(edgeIDs, vertexIDs []int64, cat *catalog.Catalog) (*chain, error) {
	if len(vertexIDs) != len(edgeIDs)+1 {
		return nil, fmt.Errorf("%w: %d edges need %d vertices, got %d",
			models.ErrMalformedChain, len(edgeIDs), len(edgeIDs)+1, len(vertexIDs))
	}

	resolved, err := cat.ChainVertices(edgeIDs)
	if err != nil {
		return nil, err
	}

	obs := &chain{
		edges:    make([]models.Edge, len(edgeIDs)),
		vertices: make([]models.Vertex, len(vertexIDs)),
	}

	for i, vid := range vertexIDs {
		if resolved[i] != vid {
			return nil, fmt.Errorf("%w: vertex %d at index %d disagrees with edge chain vertex %d",
				models.ErrMalformedChain, vid, i, resolved[i])
		}

		v, ok := cat.Vertex(vid)
		if !ok {
			return nil, fmt.Errorf("edge chain vertex %d: %w: %w", vid, models.ErrCatalogInconsistent, models.ErrVertexNotFound)
		}

		obs.vertices[i] = v
	}

	for i, eid := range edgeIDs {
		obs.edges[i], _ = cat.Edge(eid)
	}

	return obs, nil
}

// candidateTranscripts narrows the search to transcripts that can possibly
// contain the chain: every match of a multi-edge chain passes through its
// first splice site, and a single-edge chain must share its edge.
func candidateTranscripts(obs *chain, cat *catalog.Catalog) []int64 {
	if len(obs.edges) == 1 {
		return cat.TranscriptsWithEdge(obs.edges[0].ID)
	}

	return cat.TranscriptsThroughVertex(obs.vertices[1].ID)
}

func matchTranscript(obs *chain, tid int64, cat *catalog.Catalog) (*candidate, bool, error) {
	t, ok := cat.Transcript(tid)
	if !ok {
		return nil, false, fmt.Errorf("indexed transcript %d: %w: %w", tid, models.ErrCatalogInconsistent, models.ErrTranscriptNotFound)
	}

	n := len(obs.edges)
	offset := -1

	for off := 0; off+n <= len(t.Edges); off++ {
		if sliceMatches(obs, t.Edges[off:off+n], cat) {
			offset = off
			break
		}
	}

	if offset < 0 {
		return nil, false, nil
	}

	gene, ok := cat.Gene(t.GeneID)
	if !ok {
		return nil, false, fmt.Errorf("transcript %d gene %d: %w: %w", t.ID, t.GeneID, models.ErrCatalogInconsistent, models.ErrGeneNotFound)
	}

	known, err := cat.ChainVertices(t.Edges)
	if err != nil {
		return nil, false, fmt.Errorf("transcript %d: %w: %w", t.ID, models.ErrCatalogInconsistent, err)
	}

	c := &candidate{
		transcript: t,
		gene:       gene,
		offset:     offset,
		status:     models.MatchISM,
	}

	if offset == 0 && n == len(t.Edges) {
		c.status = models.MatchFSM
	}

	c.knownStart, _ = cat.Vertex(known[0])
	c.knownEnd, _ = cat.Vertex(known[len(known)-1])

	sliceStart, _ := cat.Vertex(known[offset])
	sliceEnd, _ := cat.Vertex(known[offset+n])

	lo, hi := obs.span()
	c.geneDist = gene.OutsideBy(lo, hi)
	c.endDist = abs(obs.startPos()-sliceStart.Pos) + abs(obs.endPos()-sliceEnd.Pos)

	return c, true, nil
}

// sliceMatches compares the observed chain with an equally long run of known edges.
func sliceMatches(obs *chain, known []int64, cat *catalog.Catalog) bool {
	n := len(obs.edges)

	for i, oe := range obs.edges {
		if known[i] == oe.ID {
			continue
		}

		if n == 1 || oe.Type != models.EdgeExon {
			return false
		}

		ke, ok := cat.Edge(known[i])
		if !ok || ke.Type != models.EdgeExon {
			return false
		}

		switch {
		case i == 0 && ke.V3 == oe.V3:
		case i == n-1 && ke.V5 == oe.V5:
		default:
			return false
		}
	}

	return true
}

// endNovelty flags transcript ends that moved further than the run cutoffs.
func endNovelty(obs *chain, c *candidate, ri *runinfo.RunInfo) []models.Novelty {
	out := []models.Novelty{}

	start := obs.vertices[0]
	if start.ID != c.knownStart.ID && abs(start.Pos-c.knownStart.Pos) > ri.Cutoff5p {
		out = append(out, models.NovelStart)
	}

	end := obs.vertices[len(obs.vertices)-1]
	if end.ID != c.knownEnd.ID && abs(end.Pos-c.knownEnd.Pos) > ri.Cutoff3p {
		out = append(out, models.NovelEnd)
	}

	return out
}
