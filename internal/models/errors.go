package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingID         = errors.New("id is required")
	ErrMissingChromosome = errors.New("chromosome is required")
	ErrMissingVertex     = errors.New("vertex is required")
	ErrMissingGene       = errors.New("gene is required")
	ErrEmptyChain        = errors.New("edge chain is empty")
	ErrInvalidStrand     = errors.New("strand must be + or -")
	ErrInvalidRole       = errors.New("invalid site role")
	ErrInvalidRead       = errors.New("invalid read")
)

// Sentinel errors for entity lookups.
var (
	ErrVertexNotFound     = errors.New("vertex not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrGeneNotFound       = errors.New("gene not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
)

// ErrDuplicateKey indicates an entity ID or index position that is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrMalformedChain marks an edge chain that is not internally contiguous or
// references unknown edges. It means the chain assembly upstream is broken.
var ErrMalformedChain = errors.New("malformed edge chain")

// ErrCatalogInconsistent marks a violated catalog invariant, such as an index
// entry with no vertex behind it. The catalog must not be used further.
var ErrCatalogInconsistent = errors.New("catalog inconsistent")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
