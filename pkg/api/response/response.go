// Package response provides standardized HTTP response helpers and maps the
// engine's domain error taxonomy (pkg/core) onto HTTP status codes for the
// read API (RAP, spec.md §4.7).
package response

import (
	"errors"

	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a single-resource payload.
type SuccessResponse struct {
	Data interface{} `json:"data,omitempty"`
}

// CursorMeta describes cursor-based pagination state (spec.md §4.7 RAP
// entity listing and timeline paging).
type CursorMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// PagedResponse wraps a list payload with its pagination cursor.
type PagedResponse struct {
	Data interface{} `json:"data"`
	Meta CursorMeta  `json:"meta"`
}

// OK sends a 200 with a single resource.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(SuccessResponse{Data: data})
}

// Created sends a 201 with the created resource.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse{Data: data})
}

// NoContent sends a 204 with an empty body, for successful deletions.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Paged sends a 200 with a list payload and its pagination cursor.
func Paged(c *fiber.Ctx, data interface{}, meta CursorMeta) error {
	return c.JSON(PagedResponse{Data: data, Meta: meta})
}

// Error maps a domain error to an HTTP response, per spec.md §7: store
// errors surface as 500, core.ErrNotFound as 404, core.ErrBadRequest and
// ValidationErrors as 400 with field detail.
func Error(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message, Code: "BAD_REQUEST"})
	}

	var validationErrs core.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]interface{}, len(validationErrs))
		for _, ve := range validationErrs {
			details[ve.Field] = ve.Message
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   validationErrs.Error(),
			Code:    "VALIDATION_ERROR",
			Details: details,
		})
	}

	var validationErr core.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: validationErr.Error(),
			Code:  "VALIDATION_ERROR",
			Details: map[string]interface{}{
				"field":   validationErr.Field,
				"message": validationErr.Message,
			},
		})
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, core.ErrBadRequest):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
	}

	var storeErr *core.StoreError
	if errors.As(err, &storeErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error", Code: "STORE_ERROR"})
	}

	var transportErr *core.TransportError
	if errors.As(err, &transportErr) {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "upstream transport error", Code: "TRANSPORT_ERROR"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error", Code: "INTERNAL_ERROR"})
}
