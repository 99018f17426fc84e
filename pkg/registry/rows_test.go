package registry

import (
	"context"
	"testing"

	"github.com/fitsync/fitsync/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowStore_InsertIdempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &ProductRow{})
	store := NewRowStore(logrus.New(), db)
	ctx := context.Background()

	rows := []ProductRow{
		{FileID: "f1", RowIndex: 0, Handle: "P-100", Make: "Toyota", Model: "Corolla", Year: "2020"},
		{FileID: "f1", RowIndex: 1, Handle: "P-101", Make: "Honda", Model: "Civic", Year: "2019"},
	}

	require.NoError(t, store.InsertRows(ctx, rows))

	count, err := store.CountByFile(ctx, "f1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Replaying the same chunk after a failed checkpoint advance must not
	// duplicate rows.
	replay := []ProductRow{
		{FileID: "f1", RowIndex: 0, Handle: "P-100", Make: "Toyota", Model: "Corolla", Year: "2020"},
		{FileID: "f1", RowIndex: 1, Handle: "P-101", Make: "Honda", Model: "Civic", Year: "2019"},
		{FileID: "f1", RowIndex: 2, Handle: "P-102", Make: "Ford", Model: "F-150", Year: "2021"},
	}
	require.NoError(t, store.InsertRows(ctx, replay))

	count, err = store.CountByFile(ctx, "f1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestRowStore_InsertEmpty(t *testing.T) {
	db := testutil.NewSQLiteDB(t, &ProductRow{})
	store := NewRowStore(logrus.New(), db)

	assert.NoError(t, store.InsertRows(context.Background(), nil))
}
