// -----------------------------------------------------------------------
// Worker - single logical queue consumer, dispatches by job kind
// -----------------------------------------------------------------------

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/voclabs/vocero/internal/interfaces"
	"github.com/voclabs/vocero/internal/models"
)

// Handler processes one work descriptor. Handlers run under at-least-once
// delivery and must be idempotent or checkpoint-resumable: returning an
// error leaves the message unacknowledged, and the visibility timeout
// redelivers it later. That redelivery is the only whole-job retry
// mechanism.
type Handler func(ctx context.Context, msg *models.QueueMessage) error

// Worker long-polls the queue for one message at a time and dispatches it
// to the handler registered for its kind. The message is acknowledged only
// after the handler returns without error.
type Worker struct {
	queue        interfaces.QueueManager
	jobs         interfaces.JobStorage
	handlers     map[models.JobKind]Handler
	pollInterval time.Duration
	logger       arbor.ILogger
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewWorker creates a worker loop over the given queue.
func NewWorker(queue interfaces.QueueManager, jobs interfaces.JobStorage, pollInterval time.Duration, logger arbor.ILogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		queue:        queue,
		jobs:         jobs,
		handlers:     make(map[models.JobKind]Handler),
		pollInterval: pollInterval,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// RegisterHandler registers the handler for a job kind.
func (w *Worker) RegisterHandler(kind models.JobKind, handler Handler) {
	w.handlers[kind] = handler
	w.logger.Debug().Str("kind", string(kind)).Msg("Job handler registered")
}

// Start runs the worker loop until Stop is called.
func (w *Worker) Start() {
	w.logger.Info().
		Dur("poll_interval", w.pollInterval).
		Msg("Worker started")

	go w.run()
}

// Stop signals the loop to exit and waits for the in-flight message, if
// any, to finish.
func (w *Worker) Stop() {
	w.cancel()
	<-w.done
	w.logger.Info().Msg("Worker stopped")
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessOne(w.ctx); err != nil && err != models.ErrNoMessage {
				w.logger.Warn().Err(err).Msg("Error processing message")
			}
		}
	}
}

// ProcessOne receives and handles a single message. Exposed for tests and
// for drain-style callers; the normal path is the Start loop.
func (w *Worker) ProcessOne(ctx context.Context) error {
	msg, ack, err := w.queue.Receive(ctx)
	if err != nil {
		return err
	}

	handler, ok := w.handlers[msg.Kind]
	if !ok {
		// No handler can ever process this kind. Leave it unacknowledged:
		// the queue's max-receive policy drops it after bounded redelivery,
		// the same dead-letter path as undecodable payloads.
		w.logger.Error().
			Str("job_id", msg.JobID).
			Str("kind", string(msg.Kind)).
			Msg("No handler registered for job kind")
		return fmt.Errorf("no handler for job kind %q", msg.Kind)
	}

	w.logger.Info().
		Str("job_id", msg.JobID).
		Str("kind", string(msg.Kind)).
		Msg("Processing message")

	start := time.Now()
	handlerErr := handler(ctx, msg)
	duration := time.Since(start)

	if handlerErr != nil {
		w.logger.Error().
			Err(handlerErr).
			Str("job_id", msg.JobID).
			Str("kind", string(msg.Kind)).
			Dur("duration", duration).
			Msg("Job handler failed; message left for redelivery")

		// Surface the failure to pollers. The message stays unacked, so
		// the next redelivery flips the job back to running and resumes;
		// once redeliveries run out this error stands.
		w.markJobError(ctx, msg.JobID, handlerErr)
		return handlerErr
	}

	if err := ack(); err != nil {
		// The handler succeeded but the ack failed; the message will be
		// redelivered, which handlers tolerate by design.
		w.logger.Warn().
			Err(err).
			Str("job_id", msg.JobID).
			Msg("Failed to acknowledge message after success")
		return err
	}

	w.logger.Info().
		Str("job_id", msg.JobID).
		Str("kind", string(msg.Kind)).
		Dur("duration", duration).
		Msg("Job completed")

	return nil
}

// markJobError records a handler failure on the job status record, unless
// the handler already completed the job itself before failing on a
// follow-up step. Handlers flip an errored job back to running on
// redelivery, so this status is permanent only for the final delivery.
func (w *Worker) markJobError(ctx context.Context, jobID string, handlerErr error) {
	if jobID == "" {
		return
	}

	job, err := w.jobs.GetJob(ctx, jobID)
	if err != nil {
		w.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to load job for error status")
		return
	}
	if job.Status == models.JobStatusCompleted {
		return
	}

	job.SetStatus(models.JobStatusError, handlerErr.Error())
	if err := w.jobs.SaveJob(ctx, job); err != nil {
		w.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to write error status")
	}
}
