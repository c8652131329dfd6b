// Package reads turns aligned long reads into exon boundary chains.
package reads

import (
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/dewyman/TALON/internal/models"
)

// skipFlags marks alignments that never represent a transcript.
const skipFlags = sam.Unmapped | sam.Secondary | sam.Supplementary

// recordReader is satisfied by *sam.Reader and *bam.Reader.
type recordReader interface {
	Read() (*sam.Record, error)
}

// AlignmentSource yields primary alignments from a SAM or BAM stream.
type AlignmentSource struct {
	r       recordReader
	closer  io.Closer
	dataset string
	skipped int
}

// NewSAMSource reads SAM text from r.
func NewSAMSource(r io.Reader, dataset string) (*AlignmentSource, error) {
	sr, err := sam.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening SAM stream: %w", err)
	}

	return &AlignmentSource{r: sr, dataset: dataset}, nil
}

// NewBAMSource reads BGZF-compressed BAM from r.
func NewBAMSource(r io.Reader, dataset string) (*AlignmentSource, error) {
	br, err := bam.NewReader(r, 0)
	if err != nil {
		return nil, fmt.Errorf("opening BAM stream: %w", err)
	}

	return &AlignmentSource{r: br, closer: br, dataset: dataset}, nil
}

// Next returns the next usable read, or io.EOF.
func (s *AlignmentSource) Next() (models.Read, error) {
	for {
		rec, err := s.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return models.Read{}, io.EOF
			}

			return models.Read{}, fmt.Errorf("reading alignment: %w", err)
		}

		read, ok := FromRecord(rec, s.dataset)
		if !ok {
			s.skipped++
			continue
		}

		return read, nil
	}
}

// Skipped reports how many records were passed over.
func (s *AlignmentSource) Skipped() int {
	return s.skipped
}

// Close releases the underlying decoder.
func (s *AlignmentSource) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

// FromRecord converts a primary alignment into a read. Unmapped, secondary and
// supplementary records, and records without a reference match, report false.
//
// Positions are 1-based and inclusive. Each N operation in the CIGAR closes an
// exon and opens the next; deletions stay inside the exon.
func FromRecord(rec *sam.Record, dataset string) (models.Read, bool) {
	if rec == nil || rec.Flags&skipFlags != 0 || rec.Ref == nil {
		return models.Read{}, false
	}

	positions := exonBounds(rec.Pos, rec.Cigar)
	if len(positions) == 0 {
		return models.Read{}, false
	}

	strand := models.StrandPlus
	if rec.Flags&sam.Reverse != 0 {
		strand = models.StrandMinus

		for i, j := 0, len(positions)-1; i < j; i, j = i+1, j-1 {
			positions[i], positions[j] = positions[j], positions[i]
		}
	}

	return models.Read{
		ID:        rec.Name,
		Dataset:   dataset,
		Chrom:     rec.Ref.Name(),
		Strand:    strand,
		Positions: positions,
		Coverage:  Coverage(rec.Cigar),
	}, true
}

// exonBounds walks the CIGAR from the 0-based alignment start and returns
// ascending exon boundaries.
func exonBounds(start int, cigar sam.Cigar) []int64 {
	var (
		out     []int64
		ref     = int64(start)
		inExon  bool
		matched bool
	)

	for _, co := range cigar {
		con := co.Type().Consumes()
		n := int64(co.Len())

		switch {
		case co.Type() == sam.CigarSkipped:
			if inExon {
				out = append(out, ref)
				inExon = false
			}
		case con.Reference == 1:
			if !inExon {
				out = append(out, ref+1)
				inExon = true
			}

			if con.Query == 1 {
				matched = true
			}
		}

		if con.Reference == 1 {
			ref += n
		}
	}

	if inExon {
		out = append(out, ref)
	}

	if !matched || len(out)%2 != 0 {
		return nil
	}

	return out
}

// Coverage is the fraction of the read that aligned: one minus the clipped
// bases over the full read length, hard clips included.
func Coverage(cigar sam.Cigar) float64 {
	var clipped, total int

	for _, co := range cigar {
		n := co.Len()

		switch co.Type() {
		case sam.CigarSoftClipped, sam.CigarHardClipped:
			clipped += n
			total += n
		default:
			if co.Type().Consumes().Query == 1 {
				total += n
			}
		}
	}

	if total == 0 {
		return 0
	}

	return 1 - float64(clipped)/float64(total)
}
