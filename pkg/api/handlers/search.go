package handlers

import (
	"github.com/SkyAerope/Brainpile/pkg/api/dto"
	"github.com/SkyAerope/Brainpile/pkg/api/response"
	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/retrieval"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/gofiber/fiber/v2"
)

// SearchHandler serves GET /api/v1/search (RE, spec.md §4.6).
type SearchHandler struct {
	engine *retrieval.Engine
	items  *ItemsHandler
}

// NewSearchHandler builds a SearchHandler. items supplies the summary/tag
// rendering shared with the items listing endpoint.
func NewSearchHandler(engine *retrieval.Engine, items *ItemsHandler) *SearchHandler {
	return &SearchHandler{engine: engine, items: items}
}

// Search handles GET /api/v1/search?q&image_url&type&limit.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	ctx := c.Context()

	q := c.Query("q")
	imageURL := c.Query("image_url")
	if q == "" && imageURL == "" {
		return response.Error(c, core.NewValidationError("q", "q or image_url is required"))
	}

	query := retrieval.Query{
		Text:     q,
		ImageURL: imageURL,
		Limit:    clampLimit(queryInt(c, "limit", 50), 50, 100),
	}
	if typeRaw := c.Query("type"); typeRaw != "" {
		itemType := types.ItemType(typeRaw)
		query.Type = &itemType
	}

	results, err := h.engine.Search(ctx, query)
	if err != nil {
		return response.Error(c, err)
	}

	out := make([]dto.SearchResult, len(results))
	for i, r := range results {
		tagObjs := make([]dto.TagObject, len(r.Tags))
		for j, t := range r.Tags {
			obj := dto.TagObject{ID: t.ID, IconType: string(t.IconType), IconValue: t.IconValue}
			if t.Label != nil {
				obj.Label = *t.Label
			}
			obj.AssetURL = resolveURL(ctx, h.items.store, t.AssetURL)
			if t.AssetMime != nil {
				obj.AssetMime = *t.AssetMime
			}
			tagObjs[j] = obj
		}
		out[i] = dto.SearchResult{
			Item: h.items.hydrateSummary(ctx, r.Item),
			Tags: tagObjs,
		}
	}

	return response.OK(c, dto.SearchResponse{Results: out})
}
