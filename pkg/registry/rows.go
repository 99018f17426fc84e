package registry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RowStore persists imported CSV rows.
type RowStore interface {
	// InsertRows batch-inserts rows. Rows already present for the same
	// (file, row index) are skipped, so replaying a chunk is harmless.
	InsertRows(ctx context.Context, rows []ProductRow) error

	// CountByFile returns how many rows of a file have been persisted.
	CountByFile(ctx context.Context, fileID string) (int64, error)

	// ListByFile returns a file's rows in import order.
	ListByFile(ctx context.Context, fileID string) ([]ProductRow, error)
}

type rowStore struct {
	log logrus.FieldLogger
	db  *gorm.DB
}

// NewRowStore creates a row store backed by the relational database.
func NewRowStore(log logrus.FieldLogger, db *gorm.DB) RowStore {
	return &rowStore{
		log: log.WithField("component", "row-store"),
		db:  db,
	}
}

func (s *rowStore) InsertRows(ctx context.Context, rows []ProductRow) error {
	if len(rows) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}, {Name: "row_index"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to insert product rows: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"file_id": rows[0].FileID,
		"rows":    len(rows),
	}).Debug("Inserted product rows")

	return nil
}

func (s *rowStore) CountByFile(ctx context.Context, fileID string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&ProductRow{}).
		Where("file_id = ?", fileID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count rows for file %s: %w", fileID, err)
	}

	return count, nil
}

func (s *rowStore) ListByFile(ctx context.Context, fileID string) ([]ProductRow, error) {
	var rows []ProductRow

	err := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("row_index ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rows for file %s: %w", fileID, err)
	}

	return rows, nil
}

// Verify interface compliance at compile time
var _ RowStore = (*rowStore)(nil)
