package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FileStore manages the uploaded-file catalog.
type FileStore interface {
	// Create registers an uploaded file. The file becomes active immediately
	// iff the shop has no other active unprocessed file.
	Create(ctx context.Context, shop, name, url string, totalRecords int) (*UploadedFile, error)

	// FindActive returns the oldest active unprocessed file. An empty shop
	// searches across all shops. Returns ErrNoActiveFile when none exists.
	FindActive(ctx context.Context, shop string) (*UploadedFile, error)

	// Latest returns the most recently uploaded file for a shop.
	Latest(ctx context.Context, shop string) (*UploadedFile, error)

	// Complete marks a file processed and inactive.
	Complete(ctx context.Context, fileID string) error

	// ActivateNext activates the oldest unprocessed inactive file for a
	// shop. Returns (nil, nil) when the shop's queue is drained.
	ActivateNext(ctx context.Context, shop string) (*UploadedFile, error)
}

type fileStore struct {
	log logrus.FieldLogger
	db  *gorm.DB
}

// NewFileStore creates a file store backed by the relational database.
func NewFileStore(log logrus.FieldLogger, db *gorm.DB) FileStore {
	return &fileStore{
		log: log.WithField("component", "file-store"),
		db:  db,
	}
}

func (s *fileStore) Create(ctx context.Context, shop, name, url string, totalRecords int) (*UploadedFile, error) {
	file := &UploadedFile{
		ID:           uuid.NewString(),
		Shop:         shop,
		Name:         name,
		URL:          url,
		TotalRecords: totalRecords,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activeCount int64
		if err := tx.Model(&UploadedFile{}).
			Where("shop = ? AND active = ? AND processed = ?", shop, true, false).
			Count(&activeCount).Error; err != nil {
			return err
		}

		file.Active = activeCount == 0

		return tx.Create(file).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create uploaded file: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"file_id": file.ID,
		"shop":    shop,
		"name":    name,
		"active":  file.Active,
	}).Info("Registered uploaded file")

	return file, nil
}

func (s *fileStore) FindActive(ctx context.Context, shop string) (*UploadedFile, error) {
	query := s.db.WithContext(ctx).
		Where("active = ? AND processed = ?", true, false).
		Order("created_at ASC")

	if shop != "" {
		query = query.Where("shop = ?", shop)
	}

	var file UploadedFile
	if err := query.First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveFile
		}

		return nil, fmt.Errorf("failed to find active file: %w", err)
	}

	return &file, nil
}

func (s *fileStore) Latest(ctx context.Context, shop string) (*UploadedFile, error) {
	var file UploadedFile

	err := s.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("created_at DESC").
		First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}

		return nil, fmt.Errorf("failed to find latest file: %w", err)
	}

	return &file, nil
}

func (s *fileStore) Complete(ctx context.Context, fileID string) error {
	res := s.db.WithContext(ctx).
		Model(&UploadedFile{}).
		Where("id = ?", fileID).
		Updates(map[string]any{"active": false, "processed": true})
	if res.Error != nil {
		return fmt.Errorf("failed to complete file %s: %w", fileID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}

	s.log.WithField("file_id", fileID).Info("File marked processed")

	return nil
}

func (s *fileStore) ActivateNext(ctx context.Context, shop string) (*UploadedFile, error) {
	var next UploadedFile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("shop = ? AND active = ? AND processed = ?", shop, false, false).
			Order("created_at ASC").
			First(&next).Error
		if err != nil {
			return err
		}

		next.Active = true

		return tx.Model(&UploadedFile{}).Where("id = ?", next.ID).Update("active", true).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil //nolint:nilnil // drained queue is not an error
		}

		return nil, fmt.Errorf("failed to activate next file: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"file_id": next.ID,
		"shop":    shop,
	}).Info("Activated next file")

	return &next, nil
}

// Verify interface compliance at compile time
var _ FileStore = (*fileStore)(nil)
