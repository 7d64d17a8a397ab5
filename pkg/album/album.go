// Package album implements the Album Coordinator (AC, spec.md §4.4): the
// aggregate reaction policy applied to a group of sibling tasks that share
// one Telegram media-group id.
package album

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

const (
	reactionFailed    = "👎"
	reactionCompleted = "❤️"
)

// Coordinator applies the album-wide reaction policy, grounded on
// original_source/core/src/worker.rs's update_album_reaction.
type Coordinator struct {
	tasks     repository.TaskRepository
	transport telegram.Client
}

// New builds a Coordinator.
func New(tasks repository.TaskRepository, transport telegram.Client) *Coordinator {
	return &Coordinator{tasks: tasks, transport: transport}
}

// UpdateReaction recomputes the album's aggregate status and, if the
// outcome is decided, sets the reaction on the leader message (the sibling
// with the lowest bot_message_id). The policy: any failed sibling reacts
// 👎 immediately; once every sibling has completed the album reacts ❤️;
// otherwise the leader keeps whatever reaction it already carries (the 👀
// set when its task was leased) and UpdateReaction does nothing.
func (c *Coordinator) UpdateReaction(ctx context.Context, botChatID int64, groupID string) error {
	siblings, err := c.tasks.SiblingsByGroup(ctx, botChatID, groupID)
	if err != nil {
		return err
	}
	if len(siblings) == 0 {
		return nil
	}

	leaderMessageID, anyFailed, allCompleted := summarize(siblings)

	var emoji string
	switch {
	case anyFailed:
		emoji = reactionFailed
	case allCompleted:
		emoji = reactionCompleted
	default:
		return nil
	}

	return c.transport.SetReaction(ctx, botChatID, int(leaderMessageID), emoji)
}

// summarize computes the leader message id (the lowest bot_message_id) and
// the aggregate failed/completed flags across an album's sibling tasks.
// Re-run on every membership change, so a late-joining sibling with a lower
// bot_message_id than any previously-known leader simply becomes the new
// leader on the next call (spec.md's album leader re-pin behavior).
func summarize(siblings []types.Task) (leaderMessageID int64, anyFailed, allCompleted bool) {
	leaderMessageID = siblings[0].BotMessageID
	allCompleted = true

	for _, task := range siblings {
		if task.BotMessageID < leaderMessageID {
			leaderMessageID = task.BotMessageID
		}
		if task.Status == types.TaskFailed {
			anyFailed = true
		}
		if task.Status != types.TaskCompleted {
			allCompleted = false
		}
	}
	return leaderMessageID, anyFailed, allCompleted
}
