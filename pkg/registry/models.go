// Package registry persists uploaded files, compatibility entries and
// imported product rows in the relational store.
package registry

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UploadedFile is one merchant-uploaded CSV file. At most one file per shop
// is active and unprocessed at any time; the pipeline drains files oldest
// first.
type UploadedFile struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Shop         string    `gorm:"index" json:"shop"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	TotalRecords int       `json:"totalRecords"`
	Active       bool      `gorm:"index" json:"active"`
	Processed    bool      `gorm:"index" json:"processed"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProductRef is a snapshot of a product an entry applied tags to. It freezes
// id and title at entry-creation time; it is not a live reference.
type ProductRef struct {
	GID      string `json:"gid"`
	LegacyID string `json:"legacyResourceId"`
	Title    string `json:"title"`
}

// ProductRefs is stored as a JSON column.
type ProductRefs []ProductRef

// Value implements driver.Valuer.
func (p ProductRefs) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product refs: %w", err)
	}

	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *ProductRefs) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}

	var data []byte

	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("%w: %T", errUnsupportedScanType, src)
	}

	return json.Unmarshal(data, p)
}

var errUnsupportedScanType = errors.New("unsupported scan type for product refs")

// Contains reports whether the snapshot list references the given product.
func (p ProductRefs) Contains(gid string) bool {
	for _, ref := range p {
		if ref.GID == gid {
			return true
		}
	}

	return false
}

// CompatibilityEntry is one persisted Year/Make/Model mapping together with
// the snapshot of products it tagged.
type CompatibilityEntry struct {
	ID          string      `gorm:"primaryKey" json:"id"`
	Shop        string      `gorm:"index" json:"shop"`
	Make        string      `json:"make"`
	Model       string      `json:"model"`
	StartYear   string      `json:"startYear"`
	EndYear     string      `json:"endYear"`
	VehicleType string      `json:"vehicleType,omitempty"`
	Products    ProductRefs `gorm:"type:text" json:"products"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ProductRow is one imported CSV row. The (file_id, row_index) key makes
// chunk replays after a failed checkpoint advance idempotent.
type ProductRow struct {
	ID            uint   `gorm:"primaryKey"`
	FileID        string `gorm:"uniqueIndex:idx_file_row"`
	RowIndex      int    `gorm:"uniqueIndex:idx_file_row"`
	Handle        string `gorm:"index"`
	Compatibility string
	Make          string
	Model         string
	Year          string
	CreatedAt     time.Time
}
