package registry

import (
	"context"
	"testing"

	"github.com/fitsync/fitsync/internal/testutil"
	"github.com/fitsync/fitsync/pkg/tags"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEntryStore(t *testing.T) EntryStore {
	t.Helper()

	db := testutil.NewSQLiteDB(t, &CompatibilityEntry{})

	return NewEntryStore(logrus.New(), db)
}

func corollaEntry(start, end string, gids ...string) *CompatibilityEntry {
	refs := make(ProductRefs, 0, len(gids))
	for _, gid := range gids {
		refs = append(refs, ProductRef{GID: gid, LegacyID: gid, Title: "Part " + gid})
	}

	return &CompatibilityEntry{
		Shop:      "shop-a",
		Make:      "Toyota",
		Model:     "Corolla",
		StartYear: start,
		EndYear:   end,
		Products:  refs,
	}
}

func TestEntryStore_DuplicateDetection(t *testing.T) {
	store := setupEntryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, corollaEntry("2020", "2022", "P1")))

	// Overlapping years referencing the same product
	err := store.Create(ctx, corollaEntry("2021", "2023", "P1"))
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	// Non-overlapping range for the same make/model/product is fine
	require.NoError(t, store.Create(ctx, corollaEntry("2023", "2024", "P1")))

	// Overlapping range but disjoint products is fine
	require.NoError(t, store.Create(ctx, corollaEntry("2021", "2022", "P2")))
}

func TestEntryStore_Create_InvalidRange(t *testing.T) {
	store := setupEntryStore(t)

	err := store.Create(context.Background(), corollaEntry("2022", "2020", "P1"))
	assert.ErrorIs(t, err, tags.ErrInvalidRange)
}

func TestEntryStore_ProductSnapshotRoundTrip(t *testing.T) {
	store := setupEntryStore(t)
	ctx := context.Background()

	entry := corollaEntry("2020", "2022", "gid://shopify/Product/1", "gid://shopify/Product/2")
	entry.VehicleType = "sedan"
	require.NoError(t, store.Create(ctx, entry))

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)

	assert.Equal(t, "sedan", got.VehicleType)
	require.Len(t, got.Products, 2)
	assert.Equal(t, "gid://shopify/Product/1", got.Products[0].GID)
	assert.True(t, got.Products.Contains("gid://shopify/Product/2"))
}

func TestEntryStore_UpdateAndDelete(t *testing.T) {
	store := setupEntryStore(t)
	ctx := context.Background()

	entry := corollaEntry("2020", "2022", "P1")
	require.NoError(t, store.Create(ctx, entry))

	entry.EndYear = "2023"
	entry.Products = append(entry.Products, ProductRef{GID: "P2", LegacyID: "P2", Title: "Part P2"})
	require.NoError(t, store.Update(ctx, entry))

	got, err := store.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "2023", got.EndYear)
	assert.Len(t, got.Products, 2)

	require.NoError(t, store.Delete(ctx, entry.ID))

	_, err = store.Get(ctx, entry.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestEntryStore_List(t *testing.T) {
	store := setupEntryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, corollaEntry("2020", "2022", "P1")))
	require.NoError(t, store.Create(ctx, corollaEntry("2023", "2024", "P1")))

	entries, err := store.List(ctx, "shop-a")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = store.List(ctx, "shop-b")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
