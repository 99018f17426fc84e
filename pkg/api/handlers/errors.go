package handlers

import "github.com/gofiber/fiber/v3"

// ErrNoActiveFile is returned when no file is active for import
var ErrNoActiveFile = fiber.NewError(fiber.StatusNotFound, "no active file")

// ErrFileNotFound is returned when a file is not found
var ErrFileNotFound = fiber.NewError(fiber.StatusNotFound, "file not found")

// ErrEntryNotFound is returned when an entry is not found
var ErrEntryNotFound = fiber.NewError(fiber.StatusNotFound, "entry not found")

// ErrDuplicateEntry is returned when an entry overlaps an existing one
var ErrDuplicateEntry = fiber.NewError(fiber.StatusConflict, "duplicate compatibility entry")

// ErrInvalidBody is returned when a request body cannot be parsed
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// ErrTagRequired is returned when the tag query parameter is missing
var ErrTagRequired = fiber.NewError(fiber.StatusBadRequest, "tag query parameter is required")

// ErrShopRequired is returned when the shop query parameter is missing
var ErrShopRequired = fiber.NewError(fiber.StatusBadRequest, "shop query parameter is required")
