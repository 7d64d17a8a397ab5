package handlers

import (
	"strconv"

	"github.com/SkyAerope/Brainpile/pkg/api/dto"
	"github.com/SkyAerope/Brainpile/pkg/api/response"
	"github.com/SkyAerope/Brainpile/pkg/api/validation"
	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/gofiber/fiber/v2"
)

// TagsHandler serves the tags sub-tree of the read API (ETR, spec.md
// §4.5, §6).
type TagsHandler struct {
	tags  repository.TagRepository
	items repository.ItemRepository
	store Presigner
}

// NewTagsHandler builds a TagsHandler.
func NewTagsHandler(tags repository.TagRepository, items repository.ItemRepository, store Presigner) *TagsHandler {
	return &TagsHandler{tags: tags, items: items, store: store}
}

func (h *TagsHandler) toObject(ctx *fiber.Ctx, t types.Tag) dto.TagObject {
	obj := dto.TagObject{ID: t.ID, IconType: string(t.IconType), IconValue: t.IconValue}
	if t.Label != nil {
		obj.Label = *t.Label
	}
	obj.AssetURL = resolveURL(ctx.Context(), h.store, t.AssetURL)
	if t.AssetMime != nil {
		obj.AssetMime = *t.AssetMime
	}
	return obj
}

// List handles GET /api/v1/tags.
func (h *TagsHandler) List(c *fiber.Ctx) error {
	tags, err := h.tags.List(c.Context())
	if err != nil {
		return response.Error(c, err)
	}
	objs := make([]dto.TagObject, len(tags))
	for i, t := range tags {
		objs[i] = h.toObject(c, t)
	}
	return response.OK(c, objs)
}

// Create handles POST /api/v1/tags. Tags are otherwise only created
// implicitly by reaction handling (spec.md §4.5 step 3); this endpoint
// covers operator-driven tag catalog management.
func (h *TagsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, core.NewValidationError("body", "invalid request body"))
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return response.Error(c, err)
	}

	tag, err := h.tags.UpsertByIcon(c.Context(), types.IconType(req.IconType), req.IconValue)
	if err != nil {
		return response.Error(c, err)
	}
	if req.Label != "" {
		label := req.Label
		tag, err = h.tags.Update(c.Context(), tag.ID, &label)
		if err != nil {
			return response.Error(c, err)
		}
	}

	return response.Created(c, h.toObject(c, *tag))
}

// Update handles PATCH /api/v1/tags/:id.
func (h *TagsHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.Error(c, core.NewValidationError("id", "must be an integer"))
	}

	var req dto.UpdateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, core.NewValidationError("body", "invalid request body"))
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return response.Error(c, err)
	}

	tag, err := h.tags.Update(c.Context(), int32(id), &req.Label)
	if err != nil {
		return response.Error(c, err)
	}
	return response.OK(c, h.toObject(c, *tag))
}

// Delete handles DELETE /api/v1/tags/:id: detaches the tag from every item
// before removing its row, preserving tag-delete integrity (spec.md §8).
func (h *TagsHandler) Delete(c *fiber.Ctx) error {
	idRaw := c.Params("id")
	id64, err := strconv.ParseInt(idRaw, 10, 32)
	if err != nil {
		return response.Error(c, core.NewValidationError("id", "must be an integer"))
	}
	id := int32(id64)

	if err := h.items.DetachTag(c.Context(), id); err != nil {
		return response.Error(c, err)
	}
	if err := h.tags.Delete(c.Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
