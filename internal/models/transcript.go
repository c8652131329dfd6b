package models

import "fmt"

// Transcript is a known transcript model: an ordered, contiguous chain of edges
// owned by a single gene.
type Transcript struct {
	ID     int64   `json:"id"`
	GeneID int64   `json:"gene_id"`
	Name   string  `json:"name"`
	Edges  []int64 `json:"edges"`
}

// Validate checks identity and that the chain is non-empty. Contiguity needs the
// edge table and is enforced by the catalog.
func (t *Transcript) Validate() error {
	if t.ID <= 0 {
		return ErrMissingID
	}

	if t.GeneID <= 0 {
		return fmt.Errorf("transcript %d: %w", t.ID, ErrMissingGene)
	}

	if len(t.Edges) == 0 {
		return fmt.Errorf("transcript %d: %w", t.ID, ErrEmptyChain)
	}

	return nil
}

// Gene groups transcript models and tracks their genomic extent.
type Gene struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Chrom  string `json:"chromosome"`
	Strand Strand `json:"strand"`
	Min    int64  `json:"min_pos"`
	Max    int64  `json:"max_pos"`
}

// Widen extends the gene boundary to cover pos.
func (g *Gene) Widen(pos int64) {
	if g.Min == 0 && g.Max == 0 {
		g.Min, g.Max = pos, pos
		return
	}

	if pos < g.Min {
		g.Min = pos
	}

	if pos > g.Max {
		g.Max = pos
	}
}

// OutsideBy returns how far the interval [lo, hi] reaches past the gene boundary.
func (g *Gene) OutsideBy(lo, hi int64) int64 {
	var d int64
	if lo < g.Min {
		d += g.Min - lo
	}

	if hi > g.Max {
		d += hi - g.Max
	}

	return d
}
