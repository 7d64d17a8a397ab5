// Package registry implements the Entity & Tag Registry (ETR, spec.md
// §4.5): reaction-to-tag upsert with lazy custom-emoji asset sideload, and
// submission-time entity upsert with the hidden-sender heuristic.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

// ObjectStore is the narrow blob-put surface the registry needs for
// custom-emoji asset sideload.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Registry applies reaction events to the tag set of a submission's Item
// and keeps the Entity table current, grounded on spec.md §4.5.
type Registry struct {
	tasks     repository.TaskRepository
	tags      repository.TagRepository
	entities  repository.EntityRepository
	items     repository.ItemRepository
	transport telegram.Client
	store     ObjectStore
}

// New builds a Registry.
func New(tasks repository.TaskRepository, tags repository.TagRepository, entities repository.EntityRepository, items repository.ItemRepository, transport telegram.Client, store ObjectStore) *Registry {
	return &Registry{tasks: tasks, tags: tags, entities: entities, items: items, transport: transport, store: store}
}

// HandleReaction applies a reaction-set delta to the Item backing a
// submission. Silently ignores submissions whose task has not yet
// completed — the mapping to item_id only exists once it has.
func (r *Registry) HandleReaction(ctx context.Context, botChatID int64, botMessageID int, old, new []telegram.ReactionKey) error {
	task, err := r.tasks.LatestBySubmission(ctx, botChatID, int64(botMessageID))
	if err != nil {
		return nil
	}
	if task.Status != types.TaskCompleted || task.ItemID == nil {
		return nil
	}

	added, removed := diffReactions(old, new)

	for _, key := range added {
		tag, err := r.tags.UpsertByIcon(ctx, key.IconType, key.IconValue)
		if err != nil {
			return err
		}
		if tag.IconType == types.IconTmoji && tag.AssetURL == nil {
			if err := r.sideloadAsset(ctx, tag); err != nil {
				return err
			}
		}
		if err := r.items.AttachTags(ctx, *task.ItemID, []int32{tag.ID}); err != nil {
			return err
		}
	}

	for _, key := range removed {
		tag, err := r.tags.UpsertByIcon(ctx, key.IconType, key.IconValue)
		if err != nil {
			return err
		}
		if err := r.items.DetachTagFromItem(ctx, *task.ItemID, tag.ID); err != nil {
			return err
		}
	}

	return nil
}

// sideloadAsset fetches a custom emoji's sticker file — GetStickerFile
// already gunzips Lottie .tgs payloads into raw JSON and passes
// .webp/.webm through unchanged — then uploads it and records the PROXY
// sentinel on the tag row.
func (r *Registry) sideloadAsset(ctx context.Context, tag *types.Tag) error {
	data, mime, err := r.transport.GetStickerFile(ctx, tag.IconValue)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("tags/custom_emoji/%d.%s", tag.ID, extFromMime(mime))
	if err := r.store.Put(ctx, key, data, mime); err != nil {
		return err
	}
	return r.tags.SetAsset(ctx, tag.ID, "PROXY:"+key, mime)
}

// UpsertSubmissionEntity resolves and upserts the source entity for a
// submission: the forwarded origin when present, otherwise the sender.
// Forwards whose origin is privacy-masked resolve to the hidden-user
// sentinel entity (id 0).
func (r *Registry) UpsertSubmissionEntity(ctx context.Context, msg *telegram.IncomingMessage) (*types.Entity, error) {
	entity := resolveSubmissionEntity(msg)
	if err := r.entities.Upsert(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func resolveSubmissionEntity(msg *telegram.IncomingMessage) *types.Entity {
	now := time.Now()

	if msg.Forward != nil {
		origin := msg.Forward
		if origin.Kind == "hidden_user" || origin.ID == nil {
			hidden := types.HiddenEntity()
			hidden.UpdatedAt = now
			return &hidden
		}
		return &types.Entity{
			ID:        *origin.ID,
			Name:      origin.Name,
			Username:  derefString(origin.Username),
			Type:      origin.EntityType,
			UpdatedAt: now,
		}
	}

	var id int64
	if msg.FromUserID != nil {
		id = *msg.FromUserID
	}
	return &types.Entity{
		ID:        id,
		Name:      msg.FromName,
		Username:  derefString(msg.FromUsername),
		Type:      types.EntityUser,
		UpdatedAt: now,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func diffReactions(old, new []telegram.ReactionKey) (added, removed []telegram.ReactionKey) {
	oldSet := make(map[telegram.ReactionKey]bool, len(old))
	for _, k := range old {
		oldSet[k] = true
	}
	newSet := make(map[telegram.ReactionKey]bool, len(new))
	for _, k := range new {
		newSet[k] = true
	}

	for _, k := range new {
		if !oldSet[k] {
			added = append(added, k)
		}
	}
	for _, k := range old {
		if !newSet[k] {
			removed = append(removed, k)
		}
	}
	return added, removed
}

func extFromMime(mime string) string {
	switch mime {
	case "application/json":
		return "json"
	case "video/webm":
		return "webm"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
