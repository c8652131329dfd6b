package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/models"
)

// ReadSource yields reads until io.EOF.
type ReadSource interface {
	Next() (models.Read, error)
}

// AnnotationSink receives each annotation in input order.
type AnnotationSink func(*models.Annotation) error

// PipelineResult summarises one pass over a read source.
type PipelineResult struct {
	Annotated int
	Rejected  int
}

// AnnotateAll feeds every read from src through the annotator in order. Reads
// that fail validation are logged and counted, not fatal; any other error
// stops the pass. A final checkpoint is taken once the source is exhausted.
func (a *Annotator) AnnotateAll(ctx context.Context, src ReadSource, sink AnnotationSink) (PipelineResult, error) {
	var res PipelineResult

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		read, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if errors.Is(err, models.ErrInvalidRead) {
			res.Rejected++
			a.log.WithError(err).Warn("skipping undecodable read")

			continue
		}

		if err != nil {
			return res, err
		}

		ann, err := a.AnnotateRead(ctx, read)
		if errors.Is(err, models.ErrInvalidRead) {
			res.Rejected++
			a.log.WithFields(logrus.Fields{"read_id": read.ID}).WithError(err).Warn("skipping invalid read")

			continue
		}

		if err != nil {
			return res, err
		}

		res.Annotated++

		if sink != nil {
			if err := sink(ann); err != nil {
				return res, fmt.Errorf("writing annotation for %s: %w", read.ID, err)
			}
		}
	}

	if err := a.Checkpoint(ctx); err != nil {
		return res, err
	}

	return res, nil
}
