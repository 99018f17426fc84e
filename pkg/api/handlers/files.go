package handlers

import (
	"errors"

	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/gofiber/fiber/v3"
)

type createFileRequest struct {
	Shop         string `json:"shop"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	TotalRecords int    `json:"totalRecords"`
}

// CreateFile handles POST /api/v1/files. It registers an already-uploaded
// CSV file with the import queue.
func (s *Server) CreateFile(c fiber.Ctx) error {
	var req createFileRequest
	if err := c.Bind().Body(&req); err != nil {
		return ErrInvalidBody
	}

	if req.Shop == "" || req.URL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "shop and url are required")
	}

	file, err := s.files.Create(c.Context(), req.Shop, req.Name, req.URL, req.TotalRecords)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return success(c, fiber.StatusCreated, file)
}

// GetLatestFile handles GET /api/v1/files/latest?shop=.
func (s *Server) GetLatestFile(c fiber.Ctx) error {
	shop := c.Query("shop")
	if shop == "" {
		return ErrShopRequired
	}

	file, err := s.files.Latest(c.Context(), shop)
	if err != nil {
		if errors.Is(err, registry.ErrFileNotFound) {
			return ErrFileNotFound
		}

		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return success(c, fiber.StatusOK, file)
}
