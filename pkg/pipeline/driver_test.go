package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fitsync/fitsync/internal/testutil"
	"github.com/fitsync/fitsync/pkg/checkpoint"
	"github.com/fitsync/fitsync/pkg/csvsource"
	"github.com/fitsync/fitsync/pkg/observability"
	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/registry"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `Part,Engine Type,Brand,Model,Year
P-100,Petrol,Toyota,Corolla,2020
P-101,Diesel,Honda,Civic,2019
P-102,Petrol,Ford,F-150,2021
`

// fakeFetcher serves canned CSV bodies by URL.
type fakeFetcher struct {
	bodies map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	body, ok := f.bodies[url]
	if !ok {
		return "", fmt.Errorf("%w: %s", csvsource.ErrFetchFailed, url)
	}

	return body, nil
}

type fixture struct {
	driver     Driver
	files      registry.FileStore
	rows       registry.RowStore
	checkpoint checkpoint.Store
	fetcher    *fakeFetcher
}

func newFixture(t *testing.T, chunkSize int) *fixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t, &registry.UploadedFile{}, &registry.ProductRow{})
	redisClient := testutil.NewMiniredisClient(t)
	log := logrus.New()

	f := &fixture{
		files:      registry.NewFileStore(log, db),
		rows:       registry.NewRowStore(log, db),
		checkpoint: checkpoint.NewStore(log, redisClient, &r.Config{Prefix: "fitsync"}),
		fetcher:    &fakeFetcher{bodies: map[string]string{}},
	}

	f.driver = NewDriver(log, &Config{ChunkSize: chunkSize}, f.files, f.rows, f.checkpoint, f.fetcher)

	return f
}

func TestDriver_Tick_NoActiveFile(t *testing.T) {
	f := newFixture(t, 2)

	res, err := f.driver.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "no active file", res.Message)
}

func TestDriver_Tick_ProcessesChunksThenRollsOver(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	f.fetcher.bodies["https://files.test/a.csv"] = testCSV

	file, err := f.files.Create(ctx, "s1", "a.csv", "https://files.test/a.csv", 3)
	require.NoError(t, err)
	require.True(t, file.Active)

	// Chunk 0: rows 0 and 1
	res, err := f.driver.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, file.ID, res.FileID)
	assert.Equal(t, 1, res.ProcessedChunk)
	assert.Equal(t, 2, res.TotalChunks)
	assert.False(t, res.Rollover)

	count, err := f.rows.CountByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Chunk 1: the final short row
	res, err = f.driver.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ProcessedChunk)

	count, err = f.rows.CountByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// Third tick: all chunks committed, file rolls over without processing
	res, err = f.driver.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.Rollover)
	assert.Contains(t, res.Message, "queue drained")

	// File marked processed, checkpoint gone
	_, err = f.files.FindActive(ctx, "")
	assert.ErrorIs(t, err, registry.ErrNoActiveFile)

	n, err := f.checkpoint.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDriver_Tick_RowMapping(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	f.fetcher.bodies["https://files.test/a.csv"] = testCSV

	file, err := f.files.Create(ctx, "s1", "a.csv", "https://files.test/a.csv", 3)
	require.NoError(t, err)

	_, err = f.driver.Tick(ctx)
	require.NoError(t, err)

	rows, err := f.rows.ListByFile(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 0, rows[0].RowIndex)
	assert.Equal(t, "P-100", rows[0].Handle)
	assert.Equal(t, "Petrol", rows[0].Compatibility)
	assert.Equal(t, "Toyota", rows[0].Make)
	assert.Equal(t, "Corolla", rows[0].Model)
	assert.Equal(t, "2020", rows[0].Year)

	assert.Equal(t, 2, rows[2].RowIndex)
	assert.Equal(t, "Ford", rows[2].Make)
}

func TestDriver_Tick_RolloverActivatesNextFile(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	f.fetcher.bodies["https://files.test/a.csv"] = testCSV
	f.fetcher.bodies["https://files.test/b.csv"] = testCSV

	_, err := f.files.Create(ctx, "s1", "a.csv", "https://files.test/a.csv", 3)
	require.NoError(t, err)

	second, err := f.files.Create(ctx, "s1", "b.csv", "https://files.test/b.csv", 3)
	require.NoError(t, err)
	require.False(t, second.Active)

	// Drain the first file: two chunks plus the rollover tick
	for i := 0; i < 3; i++ {
		_, err = f.driver.Tick(ctx)
		require.NoError(t, err)
	}

	active, err := f.files.FindActive(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	// The fresh file starts from chunk 0, untouched by its predecessor
	res, err := f.driver.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, res.FileID)
	assert.Equal(t, 1, res.ProcessedChunk)
}

func TestDriver_Tick_FetchFailure(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	_, err := f.files.Create(ctx, "s1", "a.csv", "https://files.test/missing.csv", 3)
	require.NoError(t, err)

	errCounter := observability.ErrorsTotal.WithLabelValues("pipeline", "fetch_error")
	before := promtest.ToFloat64(errCounter)

	res, err := f.driver.Tick(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, csvsource.ErrFetchFailed)

	// Failures land in the error counter under their own type
	assert.InDelta(t, before+1, promtest.ToFloat64(errCounter), 0.001)
}

func TestDriver_Tick_ParseFailureLeavesCheckpoint(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	f.fetcher.bodies["https://files.test/bad.csv"] = "Part,Brand\nP-100,Toyota,extra"

	file, err := f.files.Create(ctx, "s1", "bad.csv", "https://files.test/bad.csv", 1)
	require.NoError(t, err)

	require.NoError(t, f.checkpoint.Set(ctx, file.ID, 0))

	res, err := f.driver.Tick(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, err, csvsource.ErrFormat)

	n, err := f.checkpoint.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// conflictingRows advances the checkpoint mid-tick, simulating a concurrent
// tick that committed first.
type conflictingRows struct {
	registry.RowStore

	checkpoint checkpoint.Store
	fileID     string
}

func (c *conflictingRows) InsertRows(ctx context.Context, rows []registry.ProductRow) error {
	if err := c.RowStore.InsertRows(ctx, rows); err != nil {
		return err
	}

	_, err := c.checkpoint.Advance(ctx, c.fileID, 0)

	return err
}

func TestDriver_Tick_ConcurrentAdvanceConflict(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	f.fetcher.bodies["https://files.test/a.csv"] = testCSV

	file, err := f.files.Create(ctx, "s1", "a.csv", "https://files.test/a.csv", 3)
	require.NoError(t, err)

	log := logrus.New()
	rival := &conflictingRows{RowStore: f.rows, checkpoint: f.checkpoint, fileID: file.ID}
	d := NewDriver(log, &Config{ChunkSize: 2}, f.files, rival, f.checkpoint, f.fetcher)

	res, err := d.Tick(ctx)
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, err, checkpoint.ErrConflict)

	// The rival's advance stands
	n, err := f.checkpoint.Get(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Idempotent inserts mean the lost tick did no damage: replaying the
	// chunk leaves exactly one copy of each row.
	count, err := f.rows.CountByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestDriver_Progress(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	file, err := f.files.Create(ctx, "s1", "a.csv", "https://files.test/a.csv", 10)
	require.NoError(t, err)

	report, err := f.driver.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, file.ID, report.FileID)
	assert.Equal(t, 10, report.TotalRecords)
	assert.Equal(t, 5, report.TotalChunks)
	assert.Equal(t, 0, report.ProcessedChunks)
	assert.Equal(t, 5, report.RemainingChunks)
	assert.InDelta(t, 0, report.ProgressPercent, 0.001)

	require.NoError(t, f.checkpoint.Set(ctx, file.ID, 3))

	report, err = f.driver.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ProcessedChunks)
	assert.InDelta(t, 60, report.ProgressPercent, 0.001)

	// A checkpoint past the end never reports more than 100%
	require.NoError(t, f.checkpoint.Set(ctx, file.ID, 9))

	report, err = f.driver.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.ProcessedChunks)
	assert.InDelta(t, 100, report.ProgressPercent, 0.001)
}

func TestDriver_Progress_NoActiveFile(t *testing.T) {
	f := newFixture(t, 2)

	_, err := f.driver.Progress(context.Background())
	assert.True(t, errors.Is(err, registry.ErrNoActiveFile))
}
