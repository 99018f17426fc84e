package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// TagExists handles GET /api/v1/tags/exists?tag=. It reports whether any
// product in the remote catalog carries the tag.
func (s *Server) TagExists(c fiber.Ctx) error {
	tag := c.Query("tag")
	if tag == "" {
		return ErrTagRequired
	}

	exists, err := s.catalog.TagExists(c.Context(), tag)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"tag":    tag,
		"exists": exists,
	})
}
