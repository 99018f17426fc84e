// Package entries implements the manual compatibility-entry flow: validate,
// persist, then push the resulting tag sets to the remote catalog.
package entries

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitsync/fitsync/pkg/reconciler"
	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/fitsync/fitsync/pkg/tags"
	"github.com/sirupsen/logrus"
)

// EntryInput is one requested Year/Make/Model mapping.
type EntryInput struct {
	Shop        string                `json:"shop"`
	Make        string                `json:"make"`
	Model       string                `json:"model"`
	Year        string                `json:"year"` // "2020" or "2020-2025"
	VehicleType string                `json:"vehicleType,omitempty"`
	Products    []registry.ProductRef `json:"products"`
}

// CreateResult aggregates the persisted entries and the per-product
// reconciliation outcomes. Reconciliation failures do not roll back the
// persisted entries.
type CreateResult struct {
	Entries         []registry.CompatibilityEntry `json:"entries"`
	Reconciliations []reconciler.Result           `json:"reconciliations"`
}

// Service is the entry-creation flow.
type Service interface {
	// Create validates and persists the inputs, then reconciles tags on every
	// referenced product.
	Create(ctx context.Context, inputs []EntryInput) (*CreateResult, error)

	// Update rewrites an entry, merging new product snapshots into the
	// existing ones, and reconciles every referenced product.
	Update(ctx context.Context, id string, input EntryInput) (*CreateResult, error)

	// Delete removes an entry and strips its managed tags from each
	// snapshotted product.
	Delete(ctx context.Context, id string) ([]reconciler.Result, error)
}

type service struct {
	log        logrus.FieldLogger
	store      registry.EntryStore
	reconciler reconciler.Service
}

// NewService creates the entry flow service.
func NewService(log logrus.FieldLogger, store registry.EntryStore, rec reconciler.Service) Service {
	return &service{
		log:        log.WithField("service", "entries"),
		store:      store,
		reconciler: rec,
	}
}

func (s *service) Create(ctx context.Context, inputs []EntryInput) (*CreateResult, error) {
	result := &CreateResult{}
	wants := make(map[string]reconciler.Want)

	for i := range inputs {
		input := &inputs[i]

		fillLegacyIDs(input.Products)

		from, to := tags.SplitRange(input.Year)

		entry := &registry.CompatibilityEntry{
			Shop:        input.Shop,
			Make:        input.Make,
			Model:       input.Model,
			StartYear:   from,
			EndYear:     to,
			VehicleType: input.VehicleType,
			Products:    input.Products,
		}

		if err := s.store.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("entry %s %s %s: %w", input.Make, input.Model, input.Year, err)
		}

		result.Entries = append(result.Entries, *entry)

		desired, err := tags.GenerateWithBase(input.Make, input.Model, from, to)
		if err != nil {
			return nil, err
		}

		for _, ref := range input.Products {
			want, ok := wants[ref.GID]
			if !ok {
				want = reconciler.Want{Make: input.Make, Model: input.Model}
			}

			want.Tags = append(want.Tags, desired...)
			wants[ref.GID] = want
		}
	}

	result.Reconciliations = s.reconciler.ReconcileAll(ctx, wants)

	s.log.WithFields(logrus.Fields{
		"entries":  len(result.Entries),
		"products": len(wants),
	}).Info("Created compatibility entries")

	return result, nil
}

func (s *service) Update(ctx context.Context, id string, input EntryInput) (*CreateResult, error) {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prevMake, prevModel := entry.Make, entry.Model

	from, to := tags.SplitRange(input.Year)

	entry.Make = input.Make
	entry.Model = input.Model
	entry.StartYear = from
	entry.EndYear = to

	if input.VehicleType != "" {
		entry.VehicleType = input.VehicleType
	}

	fillLegacyIDs(input.Products)

	// New snapshots join the existing ones, they never replace them. The
	// snapshot is what lets Delete undo the entry later.
	for _, ref := range input.Products {
		if !entry.Products.Contains(ref.GID) {
			entry.Products = append(entry.Products, ref)
		}
	}

	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}

	desired, err := tags.GenerateWithBase(entry.Make, entry.Model, from, to)
	if err != nil {
		return nil, err
	}

	// Strip the superseded vehicle's managed tags before applying the new set
	wants := make(map[string]reconciler.Want, len(entry.Products))
	for _, ref := range entry.Products {
		wants[ref.GID] = reconciler.Want{Tags: desired, Make: prevMake, Model: prevModel}
	}

	result := &CreateResult{
		Entries:         []registry.CompatibilityEntry{*entry},
		Reconciliations: s.reconciler.ReconcileAll(ctx, wants),
	}

	return result, nil
}

func (s *service) Delete(ctx context.Context, id string) ([]reconciler.Result, error) {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}

	// Empty desired set: reconciliation strips this vehicle's managed tags
	// and keeps everything else.
	wants := make(map[string]reconciler.Want, len(entry.Products))
	for _, ref := range entry.Products {
		wants[ref.GID] = reconciler.Want{Make: entry.Make, Model: entry.Model}
	}

	results := s.reconciler.ReconcileAll(ctx, wants)

	s.log.WithFields(logrus.Fields{
		"entry_id": id,
		"products": len(wants),
	}).Info("Deleted compatibility entry")

	return results, nil
}

// fillLegacyIDs derives the numeric id for snapshots the caller sent without
// one. The snapshot must stay reversible even when the client only knows the
// GID.
func fillLegacyIDs(refs []registry.ProductRef) {
	for i := range refs {
		if refs[i].LegacyID == "" {
			refs[i].LegacyID = ExtractLegacyID(refs[i].GID)
		}
	}
}

// ExtractLegacyID pulls the numeric id out of a product GID, e.g.
// "gid://shopify/Product/12345" -> "12345".
func ExtractLegacyID(gid string) string {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 {
		return gid
	}

	return gid[idx+1:]
}

// Verify interface compliance at compile time
var _ Service = (*service)(nil)
