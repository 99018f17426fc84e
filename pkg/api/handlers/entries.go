package handlers

import (
	"errors"

	"github.com/fitsync/fitsync/pkg/entries"
	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/fitsync/fitsync/pkg/tags"
	"github.com/gofiber/fiber/v3"
)

type createEntriesRequest struct {
	Entries []entries.EntryInput `json:"entries"`
}

// CreateEntries handles POST /api/v1/entries. It persists the requested
// Year/Make/Model mappings and reconciles tags on every referenced product.
func (s *Server) CreateEntries(c fiber.Ctx) error {
	var req createEntriesRequest
	if err := c.Bind().Body(&req); err != nil {
		return ErrInvalidBody
	}

	if len(req.Entries) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "entries are required")
	}

	result, err := s.entries.Create(c.Context(), req.Entries)
	if err != nil {
		return entryError(err)
	}

	return success(c, fiber.StatusCreated, result)
}

// ListEntries handles GET /api/v1/entries?shop=.
func (s *Server) ListEntries(c fiber.Ctx) error {
	shop := c.Query("shop")
	if shop == "" {
		return ErrShopRequired
	}

	list, err := s.store.List(c.Context(), shop)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"entries": list,
		"total":   len(list),
	})
}

// UpdateEntry handles PUT /api/v1/entries/:id.
func (s *Server) UpdateEntry(c fiber.Ctx) error {
	var input entries.EntryInput
	if err := c.Bind().Body(&input); err != nil {
		return ErrInvalidBody
	}

	result, err := s.entries.Update(c.Context(), c.Params("id"), input)
	if err != nil {
		return entryError(err)
	}

	return success(c, fiber.StatusOK, result)
}

// DeleteEntry handles DELETE /api/v1/entries/:id.
func (s *Server) DeleteEntry(c fiber.Ctx) error {
	results, err := s.entries.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return entryError(err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"reconciliations": results,
	})
}

// entryError maps domain errors onto HTTP status codes.
func entryError(err error) error {
	switch {
	case errors.Is(err, registry.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, registry.ErrDuplicateEntry):
		return ErrDuplicateEntry
	case errors.Is(err, tags.ErrInvalidRange):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
