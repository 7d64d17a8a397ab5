package handlers

import (
	"log/slog"

	"github.com/SkyAerope/Brainpile/pkg/api/dto"
	"github.com/SkyAerope/Brainpile/pkg/api/response"
	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"

	"github.com/gofiber/fiber/v2"
)

// EntitiesHandler serves GET /api/v1/entities (ETR, spec.md §4.5, §4.7).
type EntitiesHandler struct {
	entities repository.EntityRepository
	store    Presigner
	logger   *slog.Logger
}

// NewEntitiesHandler builds an EntitiesHandler.
func NewEntitiesHandler(entities repository.EntityRepository, store Presigner, logger *slog.Logger) *EntitiesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitiesHandler{entities: entities, store: store, logger: logger}
}

// List handles GET /api/v1/entities?cursor&limit, paginating by
// (updated_at, id) descending (spec.md §4.7).
func (h *EntitiesHandler) List(c *fiber.Ctx) error {
	ctx := c.Context()

	limit := clampLimit(queryInt(c, "limit", 20), 20, 100)

	cursor, err := decodeEntityCursor(c.Query("cursor"))
	if err != nil {
		return response.Error(c, core.NewValidationError("cursor", "malformed cursor"))
	}

	entities, err := h.entities.List(ctx, cursor, limit)
	if err != nil {
		return response.Error(c, err)
	}

	summaries := make([]dto.EntitySummary, len(entities))
	for i, e := range entities {
		summaries[i] = dto.EntitySummary{
			ID:        e.ID,
			Name:      e.Name,
			Username:  e.Username,
			Type:      string(e.Type),
			AvatarURL: resolveURL(ctx, h.store, e.AvatarURL),
			UpdatedAt: e.UpdatedAt,
		}
	}

	nextCursor := ""
	if len(entities) == limit {
		last := entities[len(entities)-1]
		nextCursor = encodeEntityCursor(repository.EntityCursor{UpdatedAt: last.UpdatedAt, ID: last.ID})
	}

	return response.OK(c, dto.EntityListResponse{Entities: summaries, NextCursor: nextCursor})
}
