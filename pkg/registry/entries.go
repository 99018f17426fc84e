package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitsync/fitsync/pkg/tags"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EntryStore manages persisted Year/Make/Model compatibility entries.
type EntryStore interface {
	// Create persists a new entry. Returns ErrDuplicateEntry when an entry
	// for the same shop/make/model overlaps the year range and references
	// any of the same products.
	Create(ctx context.Context, entry *CompatibilityEntry) error

	// Get returns an entry by id.
	Get(ctx context.Context, id string) (*CompatibilityEntry, error)

	// List returns a shop's entries, newest first.
	List(ctx context.Context, shop string) ([]CompatibilityEntry, error)

	// Update overwrites an entry's mutable fields.
	Update(ctx context.Context, entry *CompatibilityEntry) error

	// Delete removes an entry by id.
	Delete(ctx context.Context, id string) error
}

type entryStore struct {
	log logrus.FieldLogger
	db  *gorm.DB
}

// NewEntryStore creates an entry store backed by the relational database.
func NewEntryStore(log logrus.FieldLogger, db *gorm.DB) EntryStore {
	return &entryStore{
		log: log.WithField("component", "entry-store"),
		db:  db,
	}
}

func (s *entryStore) Create(ctx context.Context, entry *CompatibilityEntry) error {
	if _, _, err := tags.ParseRange(entry.StartYear, entry.EndYear); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []CompatibilityEntry
		err := tx.Where("shop = ? AND make = ? AND model = ?", entry.Shop, entry.Make, entry.Model).
			Find(&existing).Error
		if err != nil {
			return err
		}

		for i := range existing {
			if overlaps(entry, &existing[i]) && sharesProduct(entry.Products, existing[i].Products) {
				return fmt.Errorf("%w: %s %s %s-%s overlaps entry %s",
					ErrDuplicateEntry, entry.Make, entry.Model, entry.StartYear, entry.EndYear, existing[i].ID)
			}
		}

		return tx.Create(entry).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEntry) || errors.Is(err, tags.ErrInvalidRange) {
			return err
		}

		return fmt.Errorf("failed to create entry: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"shop":     entry.Shop,
		"make":     entry.Make,
		"model":    entry.Model,
		"years":    entry.StartYear + "-" + entry.EndYear,
		"products": len(entry.Products),
	}).Info("Created compatibility entry")

	return nil
}

func (s *entryStore) Get(ctx context.Context, id string) (*CompatibilityEntry, error) {
	var entry CompatibilityEntry

	if err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}

		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}

	return &entry, nil
}

func (s *entryStore) List(ctx context.Context, shop string) ([]CompatibilityEntry, error) {
	var entries []CompatibilityEntry

	err := s.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return entries, nil
}

func (s *entryStore) Update(ctx context.Context, entry *CompatibilityEntry) error {
	if _, _, err := tags.ParseRange(entry.StartYear, entry.EndYear); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&CompatibilityEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"make":         entry.Make,
			"model":        entry.Model,
			"start_year":   entry.StartYear,
			"end_year":     entry.EndYear,
			"vehicle_type": entry.VehicleType,
			"products":     entry.Products,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update entry %s: %w", entry.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entry.ID)
	}

	return nil
}

func (s *entryStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&CompatibilityEntry{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	return nil
}

// overlaps reports whether two entries' year ranges intersect. Ranges are
// validated before storage, so parse failures fall back to string equality.
func overlaps(a, b *CompatibilityEntry) bool {
	aFrom, aTo, errA := tags.ParseRange(a.StartYear, a.EndYear)
	bFrom, bTo, errB := tags.ParseRange(b.StartYear, b.EndYear)

	if errA != nil || errB != nil {
		return a.StartYear == b.StartYear && a.EndYear == b.EndYear
	}

	return aFrom <= bTo && bFrom <= aTo
}

func sharesProduct(a, b ProductRefs) bool {
	for _, ref := range a {
		if b.Contains(ref.GID) {
			return true
		}
	}

	return false
}

// Verify interface compliance at compile time
var _ EntryStore = (*entryStore)(nil)
