package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dewyman/TALON/internal/metrics"
	"github.com/dewyman/TALON/internal/models"
)

// ErrWorkerClosed is returned when enqueueing to a closed CheckpointWorker.
var ErrWorkerClosed = errors.New("checkpoint worker closed")

// ChangeSaver persists one batch of catalog changes.
type ChangeSaver interface {
	SaveChanges(ctx context.Context, build string, ch models.Changes) error
}

// CheckpointJob is one batch of catalog changes to persist.
type CheckpointJob struct {
	Build   string
	Changes models.Changes
}

// CheckpointWorker persists checkpoints in order via a single worker goroutine,
// so annotation continues while the previous batch is written. Enqueue blocks
// when the queue is full; checkpoints are never dropped.
type CheckpointWorker struct {
	store ChangeSaver
	log   *logrus.Logger
	jobs  chan *CheckpointJob
	done  chan struct{}

	sendMu sync.Mutex
	closed bool

	errMu sync.Mutex
	err   error
}

// NewCheckpointWorker creates a CheckpointWorker with the given queue capacity.
func NewCheckpointWorker(store ChangeSaver, log *logrus.Logger, queueSize int) *CheckpointWorker {
	if queueSize <= 0 {
		queueSize = 4
	}

	return &CheckpointWorker{
		store: store,
		log:   log,
		jobs:  make(chan *CheckpointJob, queueSize),
		done:  make(chan struct{}),
	}
}

// Enqueue adds a checkpoint, waiting for queue space or ctx cancellation.
// Once Run has returned nothing will consume the queue, so Enqueue fails with
// ErrWorkerClosed instead of waiting.
func (w *CheckpointWorker) Enqueue(ctx context.Context, job *CheckpointJob) error {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	if w.closed || w.stopped() {
		return ErrWorkerClosed
	}

	if err := w.Err(); err != nil {
		return fmt.Errorf("previous checkpoint failed: %w", err)
	}

	select {
	case w.jobs <- job:
		metrics.CheckpointQueueDepth.Set(float64(len(w.jobs)))
		return nil
	case <-w.done:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *CheckpointWorker) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Run processes checkpoints until the queue is closed or the context is
// cancelled, then drains whatever is still queued.
func (w *CheckpointWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}

			w.process(job)
		}
	}
}

func (w *CheckpointWorker) drain() {
	for {
		select {
		case job, ok := <-w.jobs:
			if !ok {
				return
			}

			w.process(job)
		default:
			return
		}
	}
}

func (w *CheckpointWorker) process(job *CheckpointJob) {
	metrics.CheckpointQueueDepth.Set(float64(len(w.jobs)))

	if w.Err() != nil {
		w.log.WithField("entities", job.Changes.Size()).Warn("skipping checkpoint after earlier failure")
		return
	}

	start := time.Now()

	// Persistence outlives the run context so a cancelled run still saves
	// what it has annotated.
	if err := w.store.SaveChanges(context.Background(), job.Build, job.Changes); err != nil {
		w.log.WithError(err).Error("checkpoint failed")
		metrics.ErrorsTotal.WithLabelValues("checkpoint").Inc()

		w.errMu.Lock()
		if w.err == nil {
			w.err = err
		}
		w.errMu.Unlock()

		return
	}

	metrics.CheckpointDuration.Observe(time.Since(start).Seconds())
	w.log.WithFields(logrus.Fields{
		"build":    job.Build,
		"entities": job.Changes.Size(),
	}).Debug("checkpoint saved")
}

// Err returns the first persistence error, if any.
func (w *CheckpointWorker) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()

	return w.err
}

// Close stops accepting checkpoints, waits for Run to persist the queue and
// returns the first persistence error. Run must have been started.
func (w *CheckpointWorker) Close() error {
	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.sendMu.Unlock()

	<-w.done

	return w.Err()
}
