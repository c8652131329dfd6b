package store

import (
	"github.com/jackc/pgx/v5"

	"github.com/dewyman/TALON/internal/models"
)

// Column lists shared by reads and COPY writes; order matches the scan helpers.
var (
	vertexColumns     = []string{"build", "id", "chromosome", "position", "strand", "role"}
	edgeColumns       = []string{"build", "id", "v5", "v3", "edge_type", "strand"}
	geneColumns       = []string{"build", "id", "name", "chromosome", "strand", "min_pos", "max_pos"}
	transcriptColumns = []string{"build", "id", "gene_id", "name", "edges"}
)

func scanVertex(row pgx.CollectableRow) (models.Vertex, error) {
	var v models.Vertex
	err := row.Scan(&v.ID, &v.Chrom, &v.Pos, &v.Strand, &v.Role)

	return v, err
}

func scanEdge(row pgx.CollectableRow) (models.Edge, error) {
	var e models.Edge
	err := row.Scan(&e.ID, &e.V5, &e.V3, &e.Type, &e.Strand)

	return e, err
}

func scanGene(row pgx.CollectableRow) (models.Gene, error) {
	var g models.Gene
	err := row.Scan(&g.ID, &g.Name, &g.Chrom, &g.Strand, &g.Min, &g.Max)

	return g, err
}

func scanTranscript(row pgx.CollectableRow) (models.Transcript, error) {
	var t models.Transcript
	err := row.Scan(&t.ID, &t.GeneID, &t.Name, &t.Edges)

	return t, err
}
