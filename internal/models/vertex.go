// Package models defines data types for the splice graph catalog.
package models

import (
	"fmt"
	"strconv"
)

// Strand is the genomic strand of a feature.
type Strand string

// Strand values. StrandNone keys unstranded index partitions.
const (
	StrandPlus  Strand = "+"
	StrandMinus Strand = "-"
	StrandNone  Strand = ""
)

// ParseStrand validates a strand string.
func ParseStrand(s string) (Strand, error) {
	switch Strand(s) {
	case StrandPlus, StrandMinus:
		return Strand(s), nil
	default:
		return StrandNone, fmt.Errorf("strand %q: %w", s, ErrInvalidStrand)
	}
}

// Valid reports whether s is + or -.
func (s Strand) Valid() bool {
	return s == StrandPlus || s == StrandMinus
}

// SiteRole is the role a vertex plays in a transcript.
type SiteRole string

// Vertex roles. Start and End are transcript termini; donors and acceptors are splice sites.
const (
	RoleStart    SiteRole = "start"
	RoleEnd      SiteRole = "end"
	RoleDonor    SiteRole = "donor"
	RoleAcceptor SiteRole = "acceptor"
)

// ParseRole validates a role string.
func ParseRole(s string) (SiteRole, error) {
	switch SiteRole(s) {
	case RoleStart, RoleEnd, RoleDonor, RoleAcceptor:
		return SiteRole(s), nil
	default:
		return "", fmt.Errorf("role %q: %w", s, ErrInvalidRole)
	}
}

// Vertex is a deduplicated genomic splice-site coordinate.
type Vertex struct {
	ID     int64    `json:"id"`
	Chrom  string   `json:"chromosome"`
	Pos    int64    `json:"position"`
	Strand Strand   `json:"strand"`
	Role   SiteRole `json:"role"`
}

// Validate checks that the vertex can be registered.
func (v *Vertex) Validate() error {
	if v.ID <= 0 {
		return ErrMissingID
	}

	if v.Chrom == "" {
		return ErrMissingChromosome
	}

	if v.Pos < 0 {
		return fmt.Errorf("vertex %d: negative position %d", v.ID, v.Pos)
	}

	if v.Strand != StrandNone && !v.Strand.Valid() {
		return fmt.Errorf("vertex %d: %w", v.ID, ErrInvalidStrand)
	}

	return nil
}

// VertexMatch is the outcome of a vertex search. When Novel is set the vertex
// was minted by the search and Offset carries no meaning.
type VertexMatch struct {
	VertexID int64 `json:"vertex_id"`
	Offset   int64 `json:"offset"`
	Novel    bool  `json:"novel"`
}

// OffsetString renders the offset, or "NA" for a freshly minted vertex.
func (m VertexMatch) OffsetString() string {
	if m.Novel {
		return "NA"
	}

	return strconv.FormatInt(m.Offset, 10)
}
