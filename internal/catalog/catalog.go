// Package catalog holds the in-memory splice graph: vertices with their location
// index, edges, transcript models and genes.
//
// The catalog grows monotonically during a run. Every registration keeps the
// location index and the vertex set in step, and records the new entity so the
// next checkpoint can persist it (see TakeChanges).
package catalog

import (
	"fmt"
	"slices"

	"github.com/dewyman/TALON/internal/locindex"
	"github.com/dewyman/TALON/internal/models"
)

type edgeKey struct {
	v5, v3 int64
	typ    models.EdgeType
}

// Catalog is the splice graph for one genome build. It is not safe for
// concurrent use; callers serialise reads through it.
type Catalog struct {
	index       *locindex.Index
	vertices    map[int64]models.Vertex
	edges       map[int64]models.Edge
	edgeKeys    map[edgeKey]int64
	genes       map[int64]*models.Gene
	transcripts map[int64]*models.Transcript

	byGene   map[int64][]int64
	byVertex map[int64][]int64
	byEdge   map[int64][]int64

	maxIDs  models.IDCounters
	pending pending
}

// New creates an empty Catalog.
func New(strandAware bool) *Catalog {
	return &Catalog{
		index:       locindex.New(strandAware),
		vertices:    make(map[int64]models.Vertex),
		edges:       make(map[int64]models.Edge),
		edgeKeys:    make(map[edgeKey]int64),
		genes:       make(map[int64]*models.Gene),
		transcripts: make(map[int64]*models.Transcript),
		byGene:      make(map[int64][]int64),
		byVertex:    make(map[int64][]int64),
		byEdge:      make(map[int64][]int64),
		pending:     newPending(),
	}
}

// Load builds a Catalog from a stored snapshot and verifies its invariants.
// Loaded entities are not reported by TakeChanges.
func Load(snap *models.Snapshot, strandAware bool) (*Catalog, error) {
	c := New(strandAware)

	for i := range snap.Genes {
		if err := c.addGene(snap.Genes[i], false); err != nil {
			return nil, fmt.Errorf("loading gene: %w: %w", models.ErrCatalogInconsistent, err)
		}
	}

	for i := range snap.Vertices {
		if err := c.addVertex(snap.Vertices[i], false); err != nil {
			return nil, fmt.Errorf("loading vertex: %w: %w", models.ErrCatalogInconsistent, err)
		}
	}

	for i := range snap.Edges {
		if err := c.addEdge(snap.Edges[i], false); err != nil {
			return nil, fmt.Errorf("loading edge: %w: %w", models.ErrCatalogInconsistent, err)
		}
	}

	for i := range snap.Transcripts {
		if err := c.addTranscript(snap.Transcripts[i], false); err != nil {
			return nil, fmt.Errorf("loading transcript: %w: %w", models.ErrCatalogInconsistent, err)
		}
	}

	if err := c.Check(); err != nil {
		return nil, err
	}

	return c, nil
}

// StrandAware reports whether the location index is partitioned by strand.
func (c *Catalog) StrandAware() bool {
	return c.index.StrandAware()
}

// MaxIDs returns the highest ID registered for each entity kind.
func (c *Catalog) MaxIDs() models.IDCounters {
	return c.maxIDs
}

// Stats returns entity counts.
func (c *Catalog) Stats() models.CatalogStats {
	return models.CatalogStats{
		Vertices:    len(c.vertices),
		Edges:       len(c.edges),
		Genes:       len(c.genes),
		Transcripts: len(c.transcripts),
	}
}

// AddVertex registers a vertex in the vertex set and the location index.
func (c *Catalog) AddVertex(v models.Vertex) error {
	return c.addVertex(v, true)
}

func (c *Catalog) addVertex(v models.Vertex, track bool) error {
	if err := v.Validate(); err != nil {
		return err
	}

	if _, exists := c.vertices[v.ID]; exists {
		return fmt.Errorf("vertex %d: %w", v.ID, models.ErrDuplicateKey)
	}

	if err := c.index.Insert(v.Chrom, v.Strand, v.Pos, v.ID); err != nil {
		return fmt.Errorf("indexing vertex %d: %w", v.ID, err)
	}

	c.vertices[v.ID] = v
	c.maxIDs.Vertex = max(c.maxIDs.Vertex, v.ID)

	if track {
		c.pending.vertices = append(c.pending.vertices, v.ID)
	}

	return nil
}

// Vertex returns the vertex with the given ID.
func (c *Catalog) Vertex(id int64) (models.Vertex, bool) {
	v, ok := c.vertices[id]
	return v, ok
}

// Locate returns the vertex registered at an exact position.
func (c *Catalog) Locate(chrom string, strand models.Strand, pos int64) (models.Vertex, bool, error) {
	id, ok := c.index.Lookup(chrom, strand, pos)
	if !ok {
		return models.Vertex{}, false, nil
	}

	v, ok := c.vertices[id]
	if !ok {
		return models.Vertex{}, false, danglingEntry(chrom, pos, id)
	}

	return v, true, nil
}

// VerticesBetween returns the vertices with lo <= position <= hi in ascending
// position order.
func (c *Catalog) VerticesBetween(chrom string, strand models.Strand, lo, hi int64) ([]models.Vertex, error) {
	entries := c.index.Range(chrom, strand, lo, hi)
	out := make([]models.Vertex, 0, len(entries))

	for _, e := range entries {
		v, ok := c.vertices[e.VertexID]
		if !ok {
			return nil, danglingEntry(chrom, e.Pos, e.VertexID)
		}

		out = append(out, v)
	}

	return out, nil
}

func danglingEntry(chrom string, pos, id int64) error {
	return fmt.Errorf("index entry %s:%d points at missing vertex %d: %w",
		chrom, pos, id, models.ErrCatalogInconsistent)
}

// sortedCopy returns an ascending copy of ids.
func sortedCopy(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)

	return out
}
