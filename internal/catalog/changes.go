package catalog

import (
	"slices"

	"github.com/dewyman/TALON/internal/models"
)

// pending records what was registered since the last TakeChanges.
type pending struct {
	vertices    []int64
	edges       []int64
	transcripts []int64
	genes       map[int64]struct{}
}

func newPending() pending {
	return pending{genes: make(map[int64]struct{})}
}

// TakeChanges returns every entity created since the previous call, plus genes
// whose extrema moved, and resets the record. The returned values are copies
// and can be handed to another goroutine for persistence.
func (c *Catalog) TakeChanges() models.Changes {
	p := c.pending
	c.pending = newPending()

	ch := models.Changes{
		Vertices:    make([]models.Vertex, 0, len(p.vertices)),
		Edges:       make([]models.Edge, 0, len(p.edges)),
		Genes:       make([]models.Gene, 0, len(p.genes)),
		Transcripts: make([]models.Transcript, 0, len(p.transcripts)),
	}

	for _, id := range p.vertices {
		ch.Vertices = append(ch.Vertices, c.vertices[id])
	}

	for _, id := range p.edges {
		ch.Edges = append(ch.Edges, c.edges[id])
	}

	geneIDs := make([]int64, 0, len(p.genes))
	for id := range p.genes {
		geneIDs = append(geneIDs, id)
	}
	slices.Sort(geneIDs)

	for _, id := range geneIDs {
		ch.Genes = append(ch.Genes, *c.genes[id])
	}

	for _, id := range p.transcripts {
		t := *c.transcripts[id]
		t.Edges = slices.Clone(t.Edges)
		ch.Transcripts = append(ch.Transcripts, t)
	}

	return ch
}

// Snapshot materializes the whole catalog, ordered by ID.
func (c *Catalog) Snapshot(build string) *models.Snapshot {
	snap := &models.Snapshot{
		Build:       build,
		Vertices:    make([]models.Vertex, 0, len(c.vertices)),
		Edges:       make([]models.Edge, 0, len(c.edges)),
		Genes:       make([]models.Gene, 0, len(c.genes)),
		Transcripts: make([]models.Transcript, 0, len(c.transcripts)),
	}

	for _, v := range c.vertices {
		snap.Vertices = append(snap.Vertices, v)
	}

	for _, e := range c.edges {
		snap.Edges = append(snap.Edges, e)
	}

	for _, g := range c.genes {
		snap.Genes = append(snap.Genes, *g)
	}

	for _, t := range c.transcripts {
		tc := *t
		tc.Edges = slices.Clone(t.Edges)
		snap.Transcripts = append(snap.Transcripts, tc)
	}

	slices.SortFunc(snap.Vertices, func(a, b models.Vertex) int { return cmpID(a.ID, b.ID) })
	slices.SortFunc(snap.Edges, func(a, b models.Edge) int { return cmpID(a.ID, b.ID) })
	slices.SortFunc(snap.Genes, func(a, b models.Gene) int { return cmpID(a.ID, b.ID) })
	slices.SortFunc(snap.Transcripts, func(a, b models.Transcript) int { return cmpID(a.ID, b.ID) })

	return snap
}

func cmpID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
