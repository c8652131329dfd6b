// Package engine implements splice-graph matching: position-tolerant vertex
// lookup and FSM/ISM novelty classification of observed edge chains.
//
// The engine performs no I/O. Every call runs against the in-memory catalog and
// may grow it; calls for one run must be made sequentially so later reads see
// the vertices earlier reads created.
package engine

import (
	"fmt"

	"github.com/dewyman/TALON/internal/catalog"
	"github.com/dewyman/TALON/internal/models"
	"github.com/dewyman/TALON/internal/runinfo"
)

// VertexQuery describes one observed transcript end.
type VertexQuery struct {
	Chrom  string
	Pos    int64
	Strand models.Strand
	// Partner is the coordinate of the paired splice site (or the other end of a
	// monoexonic read). It only fixes the search direction.
	Partner int64
	Role    models.SiteRole
}

func (q *VertexQuery) validate(cutoff int64) error {
	if q.Role != models.RoleStart && q.Role != models.RoleEnd {
		return fmt.Errorf("permissive search for %q: %w", q.Role, models.ErrInvalidRole)
	}

	if !q.Strand.Valid() {
		return fmt.Errorf("permissive search: %w", models.ErrInvalidStrand)
	}

	if q.Chrom == "" {
		return models.ErrMissingChromosome
	}

	if cutoff < 0 {
		return fmt.Errorf("permissive search: negative cutoff %d", cutoff)
	}

	return nil
}

// inward returns +1 when the exon containing q extends to higher coordinates.
func (q *VertexQuery) inward() int {
	switch {
	case q.Partner > q.Pos:
		return 1
	case q.Partner < q.Pos:
		return -1
	}

	startPlus := q.Role == models.RoleStart && q.Strand == models.StrandPlus
	endMinus := q.Role == models.RoleEnd && q.Strand == models.StrandMinus
	if startPlus || endMinus {
		return 1
	}

	return -1
}

// window returns the inclusive coordinate range searched for q. The range stops
// short of the partner coordinate, so a match can neither invert exon order
// nor land on the read's own splice site. A single-base exon (Partner == Pos)
// keeps Pos itself and drops only the inward side.
func (q *VertexQuery) window(cutoff int64) (lo, hi int64) {
	lo, hi = q.Pos-cutoff, q.Pos+cutoff
	if lo < 0 {
		lo = 0
	}

	limit := q.Partner
	if q.Partner != q.Pos {
		limit -= int64(q.inward())
	}

	if q.inward() > 0 {
		hi = min(hi, limit)
	} else {
		lo = max(lo, limit)
	}

	return lo, hi
}

// Offset returns the distance from the observed position to matched in
// transcript direction: negative when matched lies upstream (5') of the read
// end, positive when it lies downstream.
func (q *VertexQuery) Offset(matched int64) int64 {
	if q.Strand == models.StrandMinus {
		return q.Pos - matched
	}

	return matched - q.Pos
}

// NearestVertex returns the catalog vertex closest to q.Pos within cutoff
// positions, never reaching the partner site. Distance ties go to the lowest
// vertex ID. Nothing is registered.
func NearestVertex(q VertexQuery, cat *catalog.Catalog, cutoff int64) (models.Vertex, bool, error) {
	if err := q.validate(cutoff); err != nil {
		return models.Vertex{}, false, err
	}

	lo, hi := q.window(cutoff)

	candidates, err := cat.VerticesBetween(q.Chrom, q.Strand, lo, hi)
	if err != nil {
		return models.Vertex{}, false, err
	}

	var (
		best     models.Vertex
		bestDist int64 = -1
	)

	for _, v := range candidates {
		d := abs(v.Pos - q.Pos)
		if bestDist < 0 || d < bestDist || d == bestDist && v.ID < best.ID {
			best, bestDist = v, d
		}
	}

	return best, bestDist >= 0, nil
}

// PermissiveVertexSearch resolves a transcript start or end to its nearest
// vertex (see NearestVertex). The returned offset is oriented 5' to 3' (see
// VertexQuery.Offset).
//
// When nothing lies within the cutoff a new vertex is allocated from ri,
// registered in the catalog and returned with Novel set.
func PermissiveVertexSearch(
	q VertexQuery,
	cat *catalog.Catalog,
	cutoff int64,
	ri *runinfo.RunInfo,
) (models.VertexMatch, error) {
	v, ok, err := NearestVertex(q, cat, cutoff)
	if err != nil {
		return models.VertexMatch{}, err
	}

	if ok {
		return models.VertexMatch{VertexID: v.ID, Offset: q.Offset(v.Pos)}, nil
	}

	v, err = mintVertex(cat, ri, q.Chrom, q.Pos, q.Strand, q.Role)
	if err != nil {
		return models.VertexMatch{}, err
	}

	return models.VertexMatch{VertexID: v.ID, Novel: true}, nil
}

// ExactVertexSearch resolves an internal splice site. Splice sites are not
// moved: the vertex at exactly pos is returned, or a new one is minted.
func ExactVertexSearch(
	chrom string,
	pos int64,
	strand models.Strand,
	role models.SiteRole,
	cat *catalog.Catalog,
	ri *runinfo.RunInfo,
) (models.VertexMatch, error) {
	v, ok, err := cat.Locate(chrom, strand, pos)
	if err != nil {
		return models.VertexMatch{}, err
	}

	if ok {
		return models.VertexMatch{VertexID: v.ID}, nil
	}

	v, err = mintVertex(cat, ri, chrom, pos, strand, role)
	if err != nil {
		return models.VertexMatch{}, err
	}

	return models.VertexMatch{VertexID: v.ID, Novel: true}, nil
}

func mintVertex(
	cat *catalog.Catalog,
	ri *runinfo.RunInfo,
	chrom string,
	pos int64,
	strand models.Strand,
	role models.SiteRole,
) (models.Vertex, error) {
	v := models.Vertex{
		ID:     ri.Alloc.NextVertex(),
		Chrom:  chrom,
		Pos:    pos,
		Strand: strand,
		Role:   role,
	}

	if err := cat.AddVertex(v); err != nil {
		return models.Vertex{}, fmt.Errorf("registering vertex at %s:%d: %w", chrom, pos, err)
	}

	return v, nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}

	return x
}
