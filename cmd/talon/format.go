package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dewyman/TALON/internal/models"
)

// annotationColumns is the header of the TSV annotation table.
var annotationColumns = []string{
	"read_name", "dataset", "chrom", "strand", "n_exons",
	"gene_ID", "transcript_ID", "annot_gene_id", "annot_transcript_id",
	"status", "novelty",
	"start_vertex", "end_vertex", "start_delta", "end_delta", "coverage",
}

// annotationWriter streams annotations in one output format.
type annotationWriter interface {
	Write(a *models.Annotation) error
	Flush() error
}

func newAnnotationWriter(w io.Writer, format string) (annotationWriter, error) {
	switch format {
	case "tsv", "":
		return newTSVWriter(w)
	case "json":
		return &jsonWriter{w: bufio.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want tsv or json)", format)
	}
}

type tsvWriter struct {
	w *bufio.Writer
}

func newTSVWriter(w io.Writer) (*tsvWriter, error) {
	t := &tsvWriter{w: bufio.NewWriter(w)}
	if _, err := t.w.WriteString(strings.Join(annotationColumns, "\t") + "\n"); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *tsvWriter) Write(a *models.Annotation) error {
	_, err := t.w.WriteString(strings.Join(annotationRow(a), "\t") + "\n")

	return err
}

func (t *tsvWriter) Flush() error { return t.w.Flush() }

// annotationRow renders one annotation. Offsets of newly minted ends are NA.
func annotationRow(a *models.Annotation) []string {
	novelty := "NA"
	if len(a.Novelty) > 0 {
		parts := make([]string, len(a.Novelty))
		for i, n := range a.Novelty {
			parts[i] = string(n)
		}

		novelty = strings.Join(parts, ",")
	}

	dataset := a.Dataset
	if dataset == "" {
		dataset = "NA"
	}

	coverage := "NA"
	if a.Coverage > 0 {
		coverage = strconv.FormatFloat(a.Coverage, 'f', 3, 64)
	}

	return []string{
		a.ReadID, dataset, a.Chrom, string(a.Strand), strconv.Itoa(a.Exons),
		strconv.FormatInt(a.GeneID, 10), strconv.FormatInt(a.TranscriptID, 10), a.GeneName, a.TranscriptName,
		string(a.Status), novelty,
		strconv.FormatInt(a.Start.VertexID, 10), strconv.FormatInt(a.End.VertexID, 10),
		a.Start.OffsetString(), a.End.OffsetString(), coverage,
	}
}

// jsonWriter emits one annotation per line.
type jsonWriter struct {
	w *bufio.Writer
}

func (j *jsonWriter) Write(a *models.Annotation) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}

	b = append(b, '\n')
	_, err = j.w.Write(b)

	return err
}

func (j *jsonWriter) Flush() error { return j.w.Flush() }

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			width := 0
			if i < len(widths) {
				width = widths[i]
			}

			parts[i] = fmt.Sprintf("%-*s", width, cell)
		}

		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)

	seps := make([]string, len(headers))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}

	printRow(seps)

	for _, row := range rows {
		printRow(row)
	}
}
