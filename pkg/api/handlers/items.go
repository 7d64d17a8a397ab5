package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/SkyAerope/Brainpile/pkg/api/dto"
	"github.com/SkyAerope/Brainpile/pkg/api/response"
	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/gofiber/fiber/v2"
)

// BlobStore is the object-store surface items handlers need: presigning for
// read access, deleting for the cascade delete flow (spec.md §4.8 step 3).
type BlobStore interface {
	Presigner
	Delete(ctx context.Context, key string) error
}

// ItemsHandler serves the items sub-tree of the read API (spec.md §4.7,
// §4.8).
type ItemsHandler struct {
	items  repository.ItemRepository
	tags   repository.TagRepository
	store  BlobStore
	logger *slog.Logger
}

// NewItemsHandler builds an ItemsHandler.
func NewItemsHandler(items repository.ItemRepository, tags repository.TagRepository, store BlobStore, logger *slog.Logger) *ItemsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemsHandler{items: items, tags: tags, store: store, logger: logger}
}

func (h *ItemsHandler) toSummary(item types.Item) dto.ItemSummary {
	return dto.ItemSummary{
		ID:          item.ID,
		ItemType:    string(item.ItemType),
		ContentText: item.ContentText,
		TagIDs:      item.TagIDs,
		TgGroupID:   item.TgGroupID,
		CreatedAt:   item.CreatedAt,
		ProcessedAt: item.ProcessedAt,
	}
}

func (h *ItemsHandler) hydrateSummary(ctx context.Context, item types.Item) dto.ItemSummary {
	s := h.toSummary(item)
	s.ThumbnailURL = presignKey(ctx, h.store, item.ThumbnailKey)
	return s
}

func (h *ItemsHandler) toTagObjects(ctx context.Context, ids []int32) ([]dto.TagObject, error) {
	if len(ids) == 0 {
		return []dto.TagObject{}, nil
	}
	tags, err := h.tags.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	objs := make([]dto.TagObject, len(tags))
	for i, t := range tags {
		obj := dto.TagObject{ID: t.ID, IconType: string(t.IconType), IconValue: t.IconValue}
		if t.Label != nil {
			obj.Label = *t.Label
		}
		obj.AssetURL = resolveURL(ctx, h.store, t.AssetURL)
		if t.AssetMime != nil {
			obj.AssetMime = *t.AssetMime
		}
		objs[i] = obj
	}
	return objs, nil
}

func (h *ItemsHandler) toDetail(ctx context.Context, item types.Item) (dto.ItemDetail, error) {
	tagObjs, err := h.toTagObjects(ctx, item.TagIDs)
	if err != nil {
		return dto.ItemDetail{}, err
	}
	detail := dto.ItemDetail{
		ID:              item.ID,
		ItemType:        string(item.ItemType),
		ContentText:     item.ContentText,
		Width:           item.Meta.Width,
		Height:          item.Meta.Height,
		DurationSeconds: item.Meta.DurationSeconds,
		TgChatID:        item.TgChatID,
		TgUserID:        item.TgUserID,
		TgGroupID:       item.TgGroupID,
		TgLink:          sourceLink(item.TgChatID, item.TgMessageID),
		Tags:            tagObjs,
		CreatedAt:       item.CreatedAt,
		ProcessedAt:     item.ProcessedAt,
	}
	detail.MediaURL = presignKey(ctx, h.store, item.S3Key)
	detail.ThumbnailURL = presignKey(ctx, h.store, item.ThumbnailKey)
	return detail, nil
}

// List handles GET /api/v1/items (spec.md §4.7).
func (h *ItemsHandler) List(c *fiber.Ctx) error {
	ctx := c.Context()

	mode := c.Query("mode", "timeline")
	if mode != "timeline" && mode != "random" {
		return response.Error(c, core.NewValidationError("mode", "must be one of: timeline random"))
	}
	limit := clampLimit(queryInt(c, "limit", 20), 20, 100)

	opts := repository.ItemListOptions{Mode: mode, Limit: limit}

	if cursorRaw := c.Query("cursor"); cursorRaw != "" {
		cursor, err := strconv.ParseInt(cursorRaw, 10, 64)
		if err != nil {
			return response.Error(c, core.NewValidationError("cursor", "must be an integer id"))
		}
		opts.Cursor = &cursor
	}
	if entityRaw := c.Query("entity_id"); entityRaw != "" {
		entityID, err := strconv.ParseInt(entityRaw, 10, 64)
		if err != nil {
			return response.Error(c, core.NewValidationError("entity_id", "must be an integer id"))
		}
		opts.EntityID = &entityID
	}
	if tagRaw := c.Query("tag_id"); tagRaw != "" {
		tagID, err := strconv.ParseInt(tagRaw, 10, 32)
		if err != nil {
			return response.Error(c, core.NewValidationError("tag_id", "must be an integer id"))
		}
		tagID32 := int32(tagID)
		opts.TagID = &tagID32
	}

	items, err := h.items.List(ctx, opts)
	if err != nil {
		return response.Error(c, err)
	}

	summaries := make([]dto.ItemSummary, len(items))
	nextCursor := ""
	for i, item := range items {
		summaries[i] = h.hydrateSummary(ctx, item)
	}
	if mode == "timeline" && len(items) == limit {
		nextCursor = strconv.FormatInt(items[len(items)-1].ID, 10)
	}

	return response.OK(c, dto.ItemListResponse{Items: summaries, NextCursor: nextCursor})
}

// Get handles GET /api/v1/items/:id (spec.md §4.7).
func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.Error(c, core.NewValidationError("id", "must be an integer"))
	}

	item, err := h.items.FindByID(ctx, int64(id))
	if err != nil {
		return response.Error(c, err)
	}

	detail, err := h.toDetail(ctx, *item)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, detail)
}

// Raw handles GET /api/v1/items/:id/raw: a 307 redirect to a presigned
// media URL (spec.md §6).
func (h *ItemsHandler) Raw(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.Error(c, core.NewValidationError("id", "must be an integer"))
	}

	item, err := h.items.FindByID(ctx, int64(id))
	if err != nil {
		return response.Error(c, err)
	}
	if item.S3Key == nil {
		return response.Error(c, core.ErrNotFound)
	}

	url, err := h.store.Presign(ctx, *item.S3Key)
	if err != nil {
		return response.Error(c, err)
	}
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// Delete handles DELETE /api/v1/items/:id: cascades tasks and orphaned
// entities transactionally, then best-effort deletes both blob keys
// (spec.md §4.8).
func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.Error(c, core.NewValidationError("id", "must be an integer"))
	}

	keys, err := h.items.Delete(ctx, int64(id))
	if err != nil {
		return response.Error(c, err)
	}

	for _, key := range []*string{keys.S3Key, keys.ThumbnailKey} {
		if key == nil {
			continue
		}
		if err := h.store.Delete(ctx, *key); err != nil {
			h.logger.Warn("best-effort blob delete failed", "key", *key, "error", err)
		}
	}

	return response.NoContent(c)
}
