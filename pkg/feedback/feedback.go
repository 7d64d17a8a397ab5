// Package feedback implements the Feedback Emitter (FE, spec.md §4.3): the
// reaction and reply lifecycle a task's outcome drives on its originating
// message.
package feedback

import (
	"context"
	"fmt"

	"github.com/SkyAerope/Brainpile/pkg/album"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

const (
	reactionLeased    = "👀"
	reactionCompleted = "❤️"
	reactionFailed    = "👎"
)

// Emitter drives reactions and error replies off a task's lifecycle,
// grounded on original_source/core/src/worker.rs's process_next_task.
type Emitter struct {
	tasks     repository.TaskRepository
	transport telegram.Client
	albums    *album.Coordinator
}

// New builds an Emitter.
func New(tasks repository.TaskRepository, transport telegram.Client) *Emitter {
	return &Emitter{tasks: tasks, transport: transport, albums: album.New(tasks, transport)}
}

// OnLeased reacts 👀 to a task's originating message the moment it is
// leased off the queue.
func (e *Emitter) OnLeased(ctx context.Context, task *types.Task) {
	_ = e.transport.SetReaction(ctx, task.BotChatID, int(task.BotMessageID), reactionLeased)
}

// OnSuccess marks a task completed, reacts (directly, or via the album
// policy when the task belongs to a media group), and clears any stale
// error reply left over from an earlier retry.
func (e *Emitter) OnSuccess(ctx context.Context, task *types.Task, itemID int64) error {
	prevReplyID := task.ErrorReplyID

	if err := e.tasks.Complete(ctx, task.ID, itemID); err != nil {
		return err
	}

	if task.Payload.TgGroupID != "" {
		_ = e.albums.UpdateReaction(ctx, task.BotChatID, task.Payload.TgGroupID)
	} else {
		_ = e.transport.SetReaction(ctx, task.BotChatID, int(task.BotMessageID), reactionCompleted)
	}

	if prevReplyID != nil {
		_ = e.transport.DeleteMessage(ctx, task.BotChatID, int(*prevReplyID))
	}
	return nil
}

// OnFailure marks a task failed, reacts (directly or via the album
// policy), and edits an existing error reply in place or sends a new one,
// so retries never spam duplicate error messages.
func (e *Emitter) OnFailure(ctx context.Context, task *types.Task, taskErr error) error {
	errorText := fmt.Sprintf("❌ 处理失败: %s", taskErr.Error())

	var replyID *int64
	if task.ErrorReplyID != nil {
		if err := e.transport.EditMessage(ctx, task.BotChatID, int(*task.ErrorReplyID), errorText); err == nil {
			replyID = task.ErrorReplyID
		}
	} else {
		if messageID, err := e.transport.SendMessage(ctx, task.BotChatID, errorText); err == nil {
			id := int64(messageID)
			replyID = &id
		}
	}

	failErr := e.tasks.Fail(ctx, task.ID, taskErr.Error(), replyID)

	// The album policy reads sibling statuses, so it runs after Fail has
	// recorded this task's own failure.
	if task.Payload.TgGroupID != "" {
		_ = e.albums.UpdateReaction(ctx, task.BotChatID, task.Payload.TgGroupID)
	} else {
		_ = e.transport.SetReaction(ctx, task.BotChatID, int(task.BotMessageID), reactionFailed)
	}
	return failErr
}
