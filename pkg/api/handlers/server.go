// Package handlers implements the REST endpoints.
package handlers

import (
	"github.com/fitsync/fitsync/pkg/catalog"
	"github.com/fitsync/fitsync/pkg/entries"
	"github.com/fitsync/fitsync/pkg/pipeline"
	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// Server holds the services the handlers delegate to.
type Server struct {
	log     logrus.FieldLogger
	driver  pipeline.Driver
	files   registry.FileStore
	entries entries.Service
	store   registry.EntryStore
	catalog catalog.ClientInterface
}

// NewServer creates a new handler server.
func NewServer(
	log logrus.FieldLogger,
	driver pipeline.Driver,
	files registry.FileStore,
	entriesSvc entries.Service,
	store registry.EntryStore,
	catalogClient catalog.ClientInterface,
) *Server {
	return &Server{
		log:     log.WithField("component", "handlers"),
		driver:  driver,
		files:   files,
		entries: entriesSvc,
		store:   store,
		catalog: catalogClient,
	}
}

// RegisterRoutes mounts all endpoints on the given router group.
func (s *Server) RegisterRoutes(r fiber.Router) {
	r.Post("/import/tick", s.RunTick)
	r.Get("/import/progress", s.GetProgress)

	r.Post("/files", s.CreateFile)
	r.Get("/files/latest", s.GetLatestFile)

	r.Post("/entries", s.CreateEntries)
	r.Get("/entries", s.ListEntries)
	r.Put("/entries/:id", s.UpdateEntry)
	r.Delete("/entries/:id", s.DeleteEntry)

	r.Get("/tags/exists", s.TagExists)
}

// success wraps payloads in the standard response envelope.
func success(c fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}
