// Package queue implements the Task Queue (TQ, spec.md §4.1): a durable
// FIFO of pending ingestion jobs with lease semantics, as a thin service
// wrapper over repository.TaskRepository (which already carries the
// insert-or-ignore and SKIP-LOCKED SQL).
package queue

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

// Queue is the public TQ surface.
type Queue struct {
	tasks repository.TaskRepository
}

// New builds a Queue backed by the given TaskRepository.
func New(tasks repository.TaskRepository) *Queue {
	return &Queue{tasks: tasks}
}

// Enqueue inserts a pending task, ignoring the submission if
// (bot_chat_id, bot_message_id) was already seen (spec.md §4.1).
func (q *Queue) Enqueue(ctx context.Context, task *types.Task) (*repository.EnqueueResult, error) {
	return q.tasks.Enqueue(ctx, task)
}

// LeaseNext atomically claims the oldest pending task, or returns nil if
// none is available.
func (q *Queue) LeaseNext(ctx context.Context) (*types.Task, error) {
	return q.tasks.LeaseNext(ctx)
}

// Complete marks a task completed and attaches the produced item id.
func (q *Queue) Complete(ctx context.Context, taskID, itemID int64) error {
	return q.tasks.Complete(ctx, taskID, itemID)
}

// Fail marks a task failed, recording the stringified error and an optional
// feedback-message id.
func (q *Queue) Fail(ctx context.Context, taskID int64, errMsg string, replyID *int64) error {
	return q.tasks.Fail(ctx, taskID, errMsg, replyID)
}
