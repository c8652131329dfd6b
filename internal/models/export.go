package models

// Snapshot is a full, materialized catalog as read from persistent storage.
type Snapshot struct {
	Build       string       `json:"build"`
	Vertices    []Vertex     `json:"vertices"`
	Edges       []Edge       `json:"edges"`
	Genes       []Gene       `json:"genes"`
	Transcripts []Transcript `json:"transcripts"`
}

// Changes holds entities created or updated since the last checkpoint.
// Genes include both new genes and known genes whose extrema widened.
type Changes struct {
	Vertices    []Vertex     `json:"vertices"`
	Edges       []Edge       `json:"edges"`
	Genes       []Gene       `json:"genes"`
	Transcripts []Transcript `json:"transcripts"`
}

// Empty reports whether there is nothing to persist.
func (c *Changes) Empty() bool {
	return len(c.Vertices) == 0 && len(c.Edges) == 0 && len(c.Genes) == 0 && len(c.Transcripts) == 0
}

// Size is the total number of entities in the batch.
func (c *Changes) Size() int {
	return len(c.Vertices) + len(c.Edges) + len(c.Genes) + len(c.Transcripts)
}

// IDCounters holds one value per entity kind: either current maxima or next IDs.
type IDCounters struct {
	Vertex     int64 `json:"vertex"`
	Edge       int64 `json:"edge"`
	Transcript int64 `json:"transcript"`
	Gene       int64 `json:"gene"`
}

// CatalogStats summarises catalog size.
type CatalogStats struct {
	Vertices    int `json:"vertices"`
	Edges       int `json:"edges"`
	Genes       int `json:"genes"`
	Transcripts int `json:"transcripts"`
}

// Run records one annotation run.
type Run struct {
	ID      string `json:"id"`
	Build   string `json:"build"`
	Dataset string `json:"dataset"`
	Reads   int    `json:"reads"`
}

// RunStats reports progress of the current run.
type RunStats struct {
	RunID     string         `json:"run_id"`
	Build     string         `json:"build"`
	Reads     int            `json:"reads"`
	Skipped   int            `json:"skipped"`
	ByStatus  map[string]int `json:"by_status"`
	Catalog   CatalogStats   `json:"catalog"`
	Allocated IDCounters     `json:"allocated"`
}
