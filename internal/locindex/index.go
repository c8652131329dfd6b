// Package locindex provides the location index: an ordered map from genomic
// position to vertex ID, partitioned by chromosome and (optionally) strand.
package locindex

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/google/btree"

	"github.com/dewyman/TALON/internal/models"
)

// btreeDegree is the fan-out of each partition's B-tree.
const btreeDegree = 32

// Key identifies one partition of the index.
type Key struct {
	Chrom  string
	Strand models.Strand
}

// Entry is one indexed position.
type Entry struct {
	Pos      int64
	VertexID int64
}

func lessEntry(a, b Entry) bool {
	return a.Pos < b.Pos
}

// Index maps (chromosome, strand) partitions to ordered positions.
// It is not safe for concurrent mutation.
type Index struct {
	strandAware bool
	parts       map[Key]*btree.BTreeG[Entry]
	size        int
}

// New creates an empty Index. When strandAware is false all strands share one
// partition per chromosome.
func New(strandAware bool) *Index {
	return &Index{
		strandAware: strandAware,
		parts:       make(map[Key]*btree.BTreeG[Entry]),
	}
}

// StrandAware reports whether partitions are split by strand.
func (ix *Index) StrandAware() bool {
	return ix.strandAware
}

// KeyFor returns the partition key for a chromosome and strand.
func (ix *Index) KeyFor(chrom string, strand models.Strand) Key {
	if !ix.strandAware {
		strand = models.StrandNone
	}

	return Key{Chrom: chrom, Strand: strand}
}

// Insert adds a position. A position already held by another vertex is rejected.
func (ix *Index) Insert(chrom string, strand models.Strand, pos, vertexID int64) error {
	key := ix.KeyFor(chrom, strand)

	t, ok := ix.parts[key]
	if !ok {
		t = btree.NewG(btreeDegree, lessEntry)
		ix.parts[key] = t
	}

	if old, found := t.Get(Entry{Pos: pos}); found {
		return fmt.Errorf("position %s:%d%s already indexed for vertex %d: %w",
			chrom, pos, key.Strand, old.VertexID, models.ErrDuplicateKey)
	}

	t.ReplaceOrInsert(Entry{Pos: pos, VertexID: vertexID})
	ix.size++

	return nil
}

// Remove deletes a position, reporting whether it was present.
func (ix *Index) Remove(chrom string, strand models.Strand, pos int64) bool {
	t, ok := ix.parts[ix.KeyFor(chrom, strand)]
	if !ok {
		return false
	}

	if _, found := t.Delete(Entry{Pos: pos}); !found {
		return false
	}

	ix.size--

	return true
}

// Lookup returns the vertex at an exact position.
func (ix *Index) Lookup(chrom string, strand models.Strand, pos int64) (int64, bool) {
	t, ok := ix.parts[ix.KeyFor(chrom, strand)]
	if !ok {
		return 0, false
	}

	e, found := t.Get(Entry{Pos: pos})
	if !found {
		return 0, false
	}

	return e.VertexID, true
}

// Range returns the entries with lo <= pos <= hi in ascending position order.
func (ix *Index) Range(chrom string, strand models.Strand, lo, hi int64) []Entry {
	if lo > hi {
		return nil
	}

	t, ok := ix.parts[ix.KeyFor(chrom, strand)]
	if !ok {
		return nil
	}

	var out []Entry

	t.AscendGreaterOrEqual(Entry{Pos: lo}, func(e Entry) bool {
		if e.Pos > hi {
			return false
		}

		out = append(out, e)

		return true
	})

	return out
}

// Len returns the total number of indexed positions.
func (ix *Index) Len() int {
	return ix.size
}

// Each visits every entry, partition by partition, in ascending position order
// within a partition. Partitions are visited by chromosome, then strand.
// Iteration stops when fn returns false.
func (ix *Index) Each(fn func(Key, Entry) bool) {
	for _, key := range ix.Keys() {
		t := ix.parts[key]
		stop := false

		t.Ascend(func(e Entry) bool {
			if !fn(key, e) {
				stop = true
				return false
			}

			return true
		})

		if stop {
			return
		}
	}
}

// Keys returns the partition keys ordered by chromosome, then strand.
func (ix *Index) Keys() []Key {
	return slices.SortedFunc(maps.Keys(ix.parts), compareKey)
}

func compareKey(a, b Key) int {
	if c := cmp.Compare(a.Chrom, b.Chrom); c != 0 {
		return c
	}

	return cmp.Compare(a.Strand, b.Strand)
}
