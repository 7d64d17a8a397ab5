package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/feedback"
	"github.com/SkyAerope/Brainpile/pkg/pipeline"
	"github.com/SkyAerope/Brainpile/pkg/queue"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

const (
	idleSleep  = 1 * time.Second
	errorSleep = 5 * time.Second
)

// EnrichmentWorker continuously leases tasks off the queue and runs them
// through the pipeline, grounded on
// original_source/core/src/worker.rs's run_worker/process_next_task.
type EnrichmentWorker struct {
	queue    *queue.Queue
	pipeline *pipeline.Pipeline
	feedback *feedback.Emitter
	logger   *slog.Logger
}

// NewEnrichmentWorker builds an EnrichmentWorker.
func NewEnrichmentWorker(q *queue.Queue, p *pipeline.Pipeline, fe *feedback.Emitter, logger *slog.Logger) *EnrichmentWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentWorker{queue: q, pipeline: p, feedback: fe, logger: logger}
}

// Name identifies this worker to the Manager.
func (w *EnrichmentWorker) Name() string { return "enrichment" }

// Run loops until ctx is done: lease a task, run it through the pipeline,
// emit feedback, and sleep according to the outcome (1s when the queue was
// empty, 5s when leasing or emitting feedback returned an error, no sleep
// otherwise; a task that failed or panicked in the pipeline is a handled
// outcome and is followed by no sleep).
func (w *EnrichmentWorker) Run(ctx context.Context) error {
	w.logger.Info("enrichment worker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		processed, err := w.processNext(ctx)
		switch {
		case err != nil:
			w.logger.Error("enrichment worker error", "error", err)
			sleep(ctx, errorSleep)
		case !processed:
			sleep(ctx, idleSleep)
		}
	}
}

func (w *EnrichmentWorker) processNext(ctx context.Context) (processed bool, err error) {
	task, err := w.queue.LeaseNext(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	w.logger.Info("processing task", "task_id", task.ID)
	w.feedback.OnLeased(ctx, task)

	itemID, runErr := w.runPipelineRecovered(ctx, task)
	if runErr != nil {
		if feedbackErr := w.feedback.OnFailure(ctx, task, runErr); feedbackErr != nil {
			return true, feedbackErr
		}
		return true, nil
	}

	if feedbackErr := w.feedback.OnSuccess(ctx, task, itemID); feedbackErr != nil {
		return true, feedbackErr
	}
	return true, nil
}

// runPipelineRecovered wraps pipeline execution in a panic-recovery
// boundary so a panic in any stage becomes a task failure instead of
// terminating the worker loop (spec.md §4.2 "A panic inside the pipeline
// MUST be caught and converted to a failure").
func (w *EnrichmentWorker) runPipelineRecovered(ctx context.Context, task *types.Task) (itemID int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &core.PanicError{Recovered: r}
		}
	}()
	return w.pipeline.Run(ctx, task)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
