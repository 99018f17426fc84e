package handlers

import (
	"errors"

	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/gofiber/fiber/v3"
)

// RunTick handles POST /api/v1/import/tick. It runs one import tick inline.
func (s *Server) RunTick(c fiber.Ctx) error {
	result, err := s.driver.Tick(c.Context())
	if err != nil {
		s.log.WithError(err).Error("Inline tick failed")

		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if result.Message != "" {
		return success(c, fiber.StatusOK, fiber.Map{
			"message": result.Message,
		})
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"fileId":         result.FileID,
		"processedChunk": result.ProcessedChunk,
		"totalChunks":    result.TotalChunks,
	})
}

// GetProgress handles GET /api/v1/import/progress.
func (s *Server) GetProgress(c fiber.Ctx) error {
	report, err := s.driver.Progress(c.Context())
	if err != nil {
		if errors.Is(err, registry.ErrNoActiveFile) {
			return ErrNoActiveFile
		}

		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return success(c, fiber.StatusOK, report)
}
