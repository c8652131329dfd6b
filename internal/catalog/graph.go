package catalog

import (
	"fmt"
	"slices"

	"github.com/dewyman/TALON/internal/models"
)

// AddEdge registers an edge between two known vertices.
func (c *Catalog) AddEdge(e models.Edge) error {
	return c.addEdge(e, true)
}

func (c *Catalog) addEdge(e models.Edge, track bool) error {
	if err := e.Validate(); err != nil {
		return err
	}

	if _, exists := c.edges[e.ID]; exists {
		return fmt.Errorf("edge %d: %w", e.ID, models.ErrDuplicateKey)
	}

	for _, vid := range []int64{e.V5, e.V3} {
		if _, ok := c.vertices[vid]; !ok {
			return fmt.Errorf("edge %d references vertex %d: %w", e.ID, vid, models.ErrVertexNotFound)
		}
	}

	key := edgeKey{v5: e.V5, v3: e.V3, typ: e.Type}
	if other, exists := c.edgeKeys[key]; exists {
		return fmt.Errorf("edge %d duplicates edge %d: %w", e.ID, other, models.ErrDuplicateKey)
	}

	c.edges[e.ID] = e
	c.edgeKeys[key] = e.ID
	c.maxIDs.Edge = max(c.maxIDs.Edge, e.ID)

	if track {
		c.pending.edges = append(c.pending.edges, e.ID)
	}

	return nil
}

// Edge returns the edge with the given ID.
func (c *Catalog) Edge(id int64) (models.Edge, bool) {
	e, ok := c.edges[id]
	return e, ok
}

// FindEdge returns the edge of the given type joining v5 to v3.
func (c *Catalog) FindEdge(v5, v3 int64, typ models.EdgeType) (models.Edge, bool) {
	id, ok := c.edgeKeys[edgeKey{v5: v5, v3: v3, typ: typ}]
	if !ok {
		return models.Edge{}, false
	}

	return c.edges[id], true
}

// AddGene registers a gene.
func (c *Catalog) AddGene(g models.Gene) error {
	return c.addGene(g, true)
}

func (c *Catalog) addGene(g models.Gene, track bool) error {
	if g.ID <= 0 {
		return models.ErrMissingID
	}

	if _, exists := c.genes[g.ID]; exists {
		return fmt.Errorf("gene %d: %w", g.ID, models.ErrDuplicateKey)
	}

	c.genes[g.ID] = &g
	c.maxIDs.Gene = max(c.maxIDs.Gene, g.ID)

	if track {
		c.pending.genes[g.ID] = struct{}{}
	}

	return nil
}

// Gene returns a copy of the gene with the given ID.
func (c *Catalog) Gene(id int64) (models.Gene, bool) {
	g, ok := c.genes[id]
	if !ok {
		return models.Gene{}, false
	}

	return *g, true
}

// AddTranscript registers a transcript model. The chain must reference known
// edges and be contiguous; the owning gene's extrema widen to cover it.
func (c *Catalog) AddTranscript(t models.Transcript) error {
	return c.addTranscript(t, true)
}

func (c *Catalog) addTranscript(t models.Transcript, track bool) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if _, exists := c.transcripts[t.ID]; exists {
		return fmt.Errorf("transcript %d: %w", t.ID, models.ErrDuplicateKey)
	}

	gene, ok := c.genes[t.GeneID]
	if !ok {
		return fmt.Errorf("transcript %d: gene %d: %w", t.ID, t.GeneID, models.ErrGeneNotFound)
	}

	vertexIDs, err := c.ChainVertices(t.Edges)
	if err != nil {
		return fmt.Errorf("transcript %d: %w", t.ID, err)
	}

	t.Edges = slices.Clone(t.Edges)
	c.transcripts[t.ID] = &t
	c.byGene[t.GeneID] = append(c.byGene[t.GeneID], t.ID)

	for _, eid := range uniqueIDs(t.Edges) {
		c.byEdge[eid] = append(c.byEdge[eid], t.ID)
	}

	before := *gene

	for _, vid := range uniqueIDs(vertexIDs) {
		c.byVertex[vid] = append(c.byVertex[vid], t.ID)
		gene.Widen(c.vertices[vid].Pos)
	}

	c.maxIDs.Transcript = max(c.maxIDs.Transcript, t.ID)

	if track {
		c.pending.transcripts = append(c.pending.transcripts, t.ID)
		if *gene != before {
			c.pending.genes[gene.ID] = struct{}{}
		}
	}

	return nil
}

// Transcript returns the transcript model with the given ID. The edge slice is
// shared with the catalog and must not be modified.
func (c *Catalog) Transcript(id int64) (models.Transcript, bool) {
	t, ok := c.transcripts[id]
	if !ok {
		return models.Transcript{}, false
	}

	return *t, true
}

// TranscriptsOfGene returns the IDs of a gene's transcript models in ascending order.
func (c *Catalog) TranscriptsOfGene(geneID int64) []int64 {
	return sortedCopy(c.byGene[geneID])
}

// TranscriptsThroughVertex returns the IDs of transcripts whose chain visits the
// vertex, in ascending order.
func (c *Catalog) TranscriptsThroughVertex(vertexID int64) []int64 {
	return sortedCopy(c.byVertex[vertexID])
}

// TranscriptsWithEdge returns the IDs of transcripts containing the edge, in
// ascending order.
func (c *Catalog) TranscriptsWithEdge(edgeID int64) []int64 {
	return sortedCopy(c.byEdge[edgeID])
}

// ChainVertices resolves an edge chain to its vertex chain, checking that every
// edge exists and that consecutive edges share a vertex.
func (c *Catalog) ChainVertices(edgeIDs []int64) ([]int64, error) {
	if len(edgeIDs) == 0 {
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedChain, models.ErrEmptyChain)
	}

	out := make([]int64, 0, len(edgeIDs)+1)

	for i, eid := range edgeIDs {
		e, ok := c.edges[eid]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d at index %d: %w", models.ErrMalformedChain, eid, i, models.ErrEdgeNotFound)
		}

		if i == 0 {
			out = append(out, e.V5)
		} else if prev := out[len(out)-1]; prev != e.V5 {
			return nil, fmt.Errorf("%w: edge %d ends at vertex %d but edge %d starts at vertex %d",
				models.ErrMalformedChain, edgeIDs[i-1], prev, eid, e.V5)
		}

		out = append(out, e.V3)
	}

	return out, nil
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)

	return slices.Compact(out)
}
