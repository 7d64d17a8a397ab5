// Package ingest implements the chat event handler: it drains the chat
// transport's long-poll update stream and turns each update into either a
// queued Task (submission) or a tag mutation (reaction), per spec.md §3-§4.5.
package ingest

import (
	"context"
	"log/slog"

	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/queue"
	"github.com/SkyAerope/Brainpile/pkg/registry"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

// Dispatcher consumes the chat transport's update stream, grounded on
// original_source/core/src/bot.rs's message/reaction handlers.
type Dispatcher struct {
	transport telegram.Client
	queue     *queue.Queue
	registry  *registry.Registry
	logger    *slog.Logger
}

// New builds a Dispatcher.
func New(transport telegram.Client, q *queue.Queue, reg *registry.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{transport: transport, queue: q, registry: reg, logger: logger}
}

// Run drains updates until ctx is cancelled. One failed update is logged and
// skipped; it never aborts the loop (spec.md §5 "cooperative tasks").
func (d *Dispatcher) Run(ctx context.Context) error {
	updates, err := d.transport.Updates(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			d.handle(ctx, update)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, update telegram.Update) {
	switch {
	case update.Message != nil:
		if err := d.handleMessage(ctx, update.Message); err != nil {
			d.logger.Error("failed to handle submission", "error", err)
		}
	case update.Reaction != nil:
		r := update.Reaction
		if err := d.registry.HandleReaction(ctx, r.ChatID, r.MessageID, r.Old, r.New); err != nil {
			d.logger.Error("failed to handle reaction", "error", err)
		}
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *telegram.IncomingMessage) error {
	entity, err := d.registry.UpsertSubmissionEntity(ctx, msg)
	if err != nil {
		return err
	}

	task := &types.Task{
		BotChatID:       msg.ChatID,
		BotMessageID:    int64(msg.MessageID),
		SourceChatID:    entity.ID,
		SourceMessageID: int64(msg.MessageID),
		Status:          types.TaskPending,
		Payload: types.TaskPayload{
			FileID:      msg.FileID,
			ItemType:    msg.ItemType,
			ContentText: msg.ContentText,
		},
	}
	if msg.MediaGroupID != nil {
		task.Payload.TgGroupID = *msg.MediaGroupID
	}
	if msg.FromUserID != nil {
		task.SourceUserID = msg.FromUserID
	}
	if msg.Forward != nil && msg.Forward.ForwardSenderName != "" {
		task.Payload.Meta = map[string]any{"forward_sender_name": msg.Forward.ForwardSenderName}
	}

	_, err = d.queue.Enqueue(ctx, task)
	return err
}
