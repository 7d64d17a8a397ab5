// Package router wires the read API's fiber routes (RAP, spec.md §4.7,
// §6), grounded on the teacher's server.FiberServer/RegisterRoutes shape.
package router

import (
	"log/slog"

	"github.com/SkyAerope/Brainpile/pkg/api/handlers"
	"github.com/SkyAerope/Brainpile/pkg/api/middleware"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/retrieval"
	"github.com/SkyAerope/Brainpile/pkg/telemetry"

	"github.com/gofiber/fiber/v2"
)

// Server hosts the read API's fiber app and its collaborators.
type Server struct {
	App *fiber.App

	items    *handlers.ItemsHandler
	search   *handlers.SearchHandler
	entities *handlers.EntitiesHandler
	tags     *handlers.TagsHandler
}

// New builds a Server with every route registered under /api/v1.
func New(
	itemRepo repository.ItemRepository,
	tagRepo repository.TagRepository,
	entityRepo repository.EntityRepository,
	store handlers.BlobStore,
	engine *retrieval.Engine,
	logger *slog.Logger,
) *Server {
	itemsHandler := handlers.NewItemsHandler(itemRepo, tagRepo, store, logger)

	s := &Server{
		App:      fiber.New(),
		items:    itemsHandler,
		search:   handlers.NewSearchHandler(engine, itemsHandler),
		entities: handlers.NewEntitiesHandler(entityRepo, store, logger),
		tags:     handlers.NewTagsHandler(tagRepo, itemRepo, store),
	}

	s.App.Use(middleware.Security())
	s.App.Use(telemetry.TracingMiddleware("brainpile-api"))
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.App.Group("/api/v1")

	items := v1.Group("/items")
	items.Get("/", s.items.List)
	items.Get("/:id/raw", s.items.Raw)
	items.Get("/:id", s.items.Get)
	items.Delete("/:id", s.items.Delete)

	v1.Get("/search", s.search.Search)

	v1.Get("/entities", s.entities.List)

	tags := v1.Group("/tags")
	tags.Get("/", s.tags.List)
	tags.Post("/", s.tags.Create)
	tags.Patch("/:id", s.tags.Update)
	tags.Delete("/:id", s.tags.Delete)
}
