package reads

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dewyman/TALON/internal/models"
)

// Source yields reads one at a time and returns io.EOF when exhausted.
type Source interface {
	Next() (models.Read, error)
	Close() error
}

// Input formats.
const (
	FormatSAM   = "sam"
	FormatBAM   = "bam"
	FormatJSONL = "jsonl"
)

// ErrUnknownFormat is returned for an input whose format cannot be determined.
var ErrUnknownFormat = errors.New("unknown read format")

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 16 << 20

// JSONLSource decodes one models.Read per line. Blank lines are ignored.
type JSONLSource struct {
	sc      *bufio.Scanner
	dataset string
	line    int
}

// NewJSONLSource reads newline-delimited JSON from r. Reads without a dataset
// take the given default.
func NewJSONLSource(r io.Reader, dataset string) *JSONLSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &JSONLSource{sc: sc, dataset: dataset}
}

// Next returns the next read or io.EOF.
func (s *JSONLSource) Next() (models.Read, error) {
	for s.sc.Scan() {
		s.line++

		b := s.sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}

		var r models.Read
		if err := json.Unmarshal(b, &r); err != nil {
			return models.Read{}, fmt.Errorf("line %d: %w: %w", s.line, models.ErrInvalidRead, err)
		}

		if r.Dataset == "" {
			r.Dataset = s.dataset
		}

		return r, nil
	}

	if err := s.sc.Err(); err != nil {
		return models.Read{}, fmt.Errorf("reading line %d: %w", s.line+1, err)
	}

	return models.Read{}, io.EOF
}

// Close is a no-op; the caller owns the reader.
func (s *JSONLSource) Close() error { return nil }

// DetectFormat infers the input format from a file name.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sam":
		return FormatSAM, nil
	case ".bam":
		return FormatBAM, nil
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// NewSource wraps r in the decoder for format.
func NewSource(r io.Reader, format, dataset string) (Source, error) {
	switch format {
	case FormatSAM:
		return NewSAMSource(r, dataset)
	case FormatBAM:
		return NewBAMSource(r, dataset)
	case FormatJSONL:
		return NewJSONLSource(r, dataset), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type fileSource struct {
	Source
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.f.Close())
}

// Skipped reports the alignments the decoder passed over without yielding a
// read. Formats that never skip report zero.
func Skipped(src Source) int {
	if fs, ok := src.(*fileSource); ok {
		src = fs.Source
	}

	if sk, ok := src.(interface{ Skipped() int }); ok {
		return sk.Skipped()
	}

	return 0
}

// Open opens a read file. An empty format is inferred from the extension.
func Open(path, format, dataset string) (Source, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reads: %w", err)
	}

	src, err := NewSource(bufio.NewReader(f), format, dataset)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &fileSource{Source: src, f: f}, nil
}
