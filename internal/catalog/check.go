package catalog

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dewyman/TALON/internal/locindex"
	"github.com/dewyman/TALON/internal/models"
)

// Check verifies the catalog invariants: the location index and the vertex set
// agree one to one, every edge joins known vertices, and every transcript chain
// is contiguous and owned by a known gene. Any violation wraps
// models.ErrCatalogInconsistent.
func (c *Catalog) Check() error {
	if err := c.checkIndex(); err != nil {
		return err
	}

	for _, id := range slices.Sorted(maps.Keys(c.edges)) {
		e := c.edges[id]
		for _, vid := range []int64{e.V5, e.V3} {
			if _, ok := c.vertices[vid]; !ok {
				return fmt.Errorf("edge %d references missing vertex %d: %w", id, vid, models.ErrCatalogInconsistent)
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(c.transcripts)) {
		t := c.transcripts[id]
		if _, ok := c.genes[t.GeneID]; !ok {
			return fmt.Errorf("transcript %d references missing gene %d: %w", id, t.GeneID, models.ErrCatalogInconsistent)
		}

		if _, err := c.ChainVertices(t.Edges); err != nil {
			return fmt.Errorf("transcript %d: %w: %w", id, models.ErrCatalogInconsistent, err)
		}
	}

	return nil
}

func (c *Catalog) checkIndex() error {
	if c.index.Len() != len(c.vertices) {
		return fmt.Errorf("index holds %d positions for %d vertices: %w",
			c.index.Len(), len(c.vertices), models.ErrCatalogInconsistent)
	}

	var err error

	seen := make(map[int64]struct{}, len(c.vertices))
	c.index.Each(func(key locindex.Key, e locindex.Entry) bool {
		v, ok := c.vertices[e.VertexID]
		if !ok {
			err = danglingEntry(key.Chrom, e.Pos, e.VertexID)
			return false
		}

		if v.Pos != e.Pos || v.Chrom != key.Chrom {
			err = fmt.Errorf("vertex %d indexed at %s:%d but located at %s:%d: %w",
				v.ID, key.Chrom, e.Pos, v.Chrom, v.Pos, models.ErrCatalogInconsistent)
			return false
		}

		if _, dup := seen[e.VertexID]; dup {
			err = fmt.Errorf("vertex %d indexed twice: %w", e.VertexID, models.ErrCatalogInconsistent)
			return false
		}

		seen[e.VertexID] = struct{}{}

		return true
	})

	return err
}
