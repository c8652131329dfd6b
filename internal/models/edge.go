package models

import "fmt"

// EdgeType distinguishes exons from introns.
type EdgeType string

// Edge types.
const (
	EdgeExon   EdgeType = "exon"
	EdgeIntron EdgeType = "intron"
)

// Edge connects two vertices in 5' to 3' order.
type Edge struct {
	ID     int64    `json:"id"`
	V5     int64    `json:"v5"`
	V3     int64    `json:"v3"`
	Type   EdgeType `json:"type"`
	Strand Strand   `json:"strand"`
}

// Validate checks that required fields are present on Edge.
func (e *Edge) Validate() error {
	if e.ID <= 0 {
		return ErrMissingID
	}

	if e.V5 <= 0 || e.V3 <= 0 {
		return fmt.Errorf("edge %d: %w", e.ID, ErrMissingVertex)
	}

	if e.Type != EdgeExon && e.Type != EdgeIntron {
		return fmt.Errorf("edge %d: unknown edge type %q", e.ID, e.Type)
	}

	// A single-base exon starts and ends on one vertex; an intron never does.
	if e.Type == EdgeIntron && e.V5 == e.V3 {
		return fmt.Errorf("edge %d: intron starts and ends on vertex %d", e.ID, e.V5)
	}

	return nil
}

// EdgeTypeAt returns the type of the i-th edge in an exon-first chain.
func EdgeTypeAt(i int) EdgeType {
	if i%2 == 0 {
		return EdgeExon
	}

	return EdgeIntron
}
