package models

import "fmt"

// maxReadPositions bounds the number of coordinates accepted for one read.
const maxReadPositions = 20000

// Read is one aligned long read reduced to its exon boundaries. Positions run
// 5' to 3': start, then donor/acceptor pairs, then end. On the minus strand
// the coordinates therefore descend.
type Read struct {
	ID        string  `json:"read_id"`
	Dataset   string  `json:"dataset,omitempty"`
	Chrom     string  `json:"chromosome"`
	Strand    Strand  `json:"strand"`
	Positions []int64 `json:"positions"`
	Coverage  float64 `json:"coverage,omitempty"`
}

// Validate checks the read shape: even, non-empty, oriented coordinates.
func (r *Read) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: read_id is required", ErrInvalidRead)
	}

	if len(r.ID) > 255 {
		return fmt.Errorf("%w: %w", ErrInvalidRead, ErrFieldTooLong("read_id", 255))
	}

	if r.Chrom == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRead, ErrMissingChromosome)
	}

	if !r.Strand.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidRead, ErrInvalidStrand)
	}

	n := len(r.Positions)
	if n < 2 || n%2 != 0 {
		return fmt.Errorf("%w: read %s has %d positions, need a positive even count", ErrInvalidRead, r.ID, n)
	}

	if n > maxReadPositions {
		return fmt.Errorf("%w: read %s has too many positions", ErrInvalidRead, r.ID)
	}

	for i := 1; i < n; i++ {
		prev, cur := r.Positions[i-1], r.Positions[i]
		if r.Strand == StrandPlus && cur < prev || r.Strand == StrandMinus && cur > prev {
			return fmt.Errorf("%w: read %s positions are not ordered 5' to 3' at index %d", ErrInvalidRead, r.ID, i)
		}
	}

	return nil
}

// Exons returns the number of exons in the read.
func (r *Read) Exons() int {
	return len(r.Positions) / 2
}

// Annotation is the outcome of processing one read.
type Annotation struct {
	ReadID         string      `json:"read_id"`
	Dataset        string      `json:"dataset,omitempty"`
	Chrom          string      `json:"chromosome"`
	Strand         Strand      `json:"strand"`
	GeneID         int64       `json:"gene_id"`
	GeneName       string      `json:"gene_name"`
	TranscriptID   int64       `json:"transcript_id"`
	TranscriptName string      `json:"transcript_name"`
	Status         SpliceMatch `json:"status"`
	Novelty        []Novelty   `json:"novelty"`
	Start          VertexMatch `json:"start"`
	End            VertexMatch `json:"end"`
	Exons          int         `json:"n_exons"`
	Coverage       float64     `json:"coverage,omitempty"`
}
