// Package runinfo holds the per-run ID allocator and run settings.
package runinfo

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dewyman/TALON/internal/models"
)

// Allocator hands out monotonically increasing IDs for new entities. It is the
// single source of new IDs for a run and is safe for concurrent use, so shards
// working on disjoint chromosomes can share one.
type Allocator struct {
	vertex     atomic.Int64
	edge       atomic.Int64
	transcript atomic.Int64
	gene       atomic.Int64
}

// NewAllocator seeds an Allocator from the catalog's current maximum IDs.
func NewAllocator(maxIDs models.IDCounters) *Allocator {
	a := &Allocator{}
	a.vertex.Store(maxIDs.Vertex)
	a.edge.Store(maxIDs.Edge)
	a.transcript.Store(maxIDs.Transcript)
	a.gene.Store(maxIDs.Gene)

	return a
}

// NextVertex returns a fresh vertex ID.
func (a *Allocator) NextVertex() int64 { return a.vertex.Add(1) }

// NextEdge returns a fresh edge ID.
func (a *Allocator) NextEdge() int64 { return a.edge.Add(1) }

// NextTranscript returns a fresh transcript ID.
func (a *Allocator) NextTranscript() int64 { return a.transcript.Add(1) }

// NextGene returns a fresh gene ID.
func (a *Allocator) NextGene() int64 { return a.gene.Add(1) }

// Current returns the most recently issued ID of each kind.
func (a *Allocator) Current() models.IDCounters {
	return models.IDCounters{
		Vertex:     a.vertex.Load(),
		Edge:       a.edge.Load(),
		Transcript: a.transcript.Load(),
		Gene:       a.gene.Load(),
	}
}

// Settings are the run-level parameters the engine reads.
type Settings struct {
	Build       string
	Dataset     string
	Cutoff5p    int64
	Cutoff3p    int64
	StrandAware bool
	IDPrefix    string
}

// RunInfo is the state of one annotation run: settings, a run ID and the allocator.
type RunInfo struct {
	Settings
	ID    string
	Alloc *Allocator
}

// New starts a run seeded from the catalog maxima.
func New(settings Settings, maxIDs models.IDCounters) *RunInfo {
	return &RunInfo{
		Settings: settings,
		ID:       uuid.New().String(),
		Alloc:    NewAllocator(maxIDs),
	}
}

// CutoffFor returns the permissive search distance for a transcript end.
func (r *RunInfo) CutoffFor(role models.SiteRole) int64 {
	if role == models.RoleEnd {
		return r.Cutoff3p
	}

	return r.Cutoff5p
}

// GeneName builds the display name of a novel gene.
func (r *RunInfo) GeneName(id int64) string {
	return fmt.Sprintf("%sG%09d", r.IDPrefix, id)
}

// TranscriptName builds the display name of a novel transcript.
func (r *RunInfo) TranscriptName(id int64) string {
	return fmt.Sprintf("%sT%09d", r.IDPrefix, id)
}
