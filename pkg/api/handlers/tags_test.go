package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/api/dto"
	"github.com/SkyAerope/Brainpile/pkg/api/handlers"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTagsApp(tags *mocks.MockTagRepository, items *mocks.MockItemRepository, store *mockBlobStore) *fiber.App {
	h := handlers.NewTagsHandler(tags, items, store)
	app := fiber.New()
	app.Get("/api/v1/tags", h.List)
	app.Post("/api/v1/tags", h.Create)
	app.Patch("/api/v1/tags/:id", h.Update)
	app.Delete("/api/v1/tags/:id", h.Delete)
	return app
}

func TestTagsHandler_Create_UpsertsThenLabels(t *testing.T) {
	tags := &mocks.MockTagRepository{}
	items := &mocks.MockItemRepository{}
	store := &mockBlobStore{}

	tags.On("UpsertByIcon", mock.Anything, types.IconEmoji, "👍").Return(&types.Tag{ID: 3, IconType: types.IconEmoji, IconValue: "👍"}, nil)
	label := "Approved"
	tags.On("Update", mock.Anything, int32(3), &label).Return(&types.Tag{ID: 3, IconType: types.IconEmoji, IconValue: "👍", Label: &label}, nil)

	app := newTagsApp(tags, items, store)
	payload, err := json.Marshal(dto.CreateTagRequest{IconType: "emoji", IconValue: "👍", Label: "Approved"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/tags", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.TagObject `json:"data"`
	}
	decodeBody(t, resp.Body, &body)
	require.Equal(t, "Approved", body.Data.Label)
}

func TestTagsHandler_Create_RejectsUnknownIconType(t *testing.T) {
	tags := &mocks.MockTagRepository{}
	items := &mocks.MockItemRepository{}
	store := &mockBlobStore{}

	app := newTagsApp(tags, items, store)
	payload, err := json.Marshal(dto.CreateTagRequest{IconType: "sticker", IconValue: "x"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/tags", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	tags.AssertNotCalled(t, "UpsertByIcon", mock.Anything, mock.Anything, mock.Anything)
}

func TestTagsHandler_Delete_DetachesBeforeRemoving(t *testing.T) {
	tags := &mocks.MockTagRepository{}
	items := &mocks.MockItemRepository{}
	store := &mockBlobStore{}

	items.On("DetachTag", mock.Anything, int32(4)).Return(nil)
	tags.On("Delete", mock.Anything, int32(4)).Return(nil)

	app := newTagsApp(tags, items, store)
	req := httptest.NewRequest("DELETE", "/api/v1/tags/4", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	items.AssertExpectations(t)
	tags.AssertExpectations(t)
}
