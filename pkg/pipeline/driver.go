// Package pipeline drives chunked CSV imports: one tick processes one chunk
// of the active file and advances its checkpoint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitsync/fitsync/pkg/checkpoint"
	"github.com/fitsync/fitsync/pkg/csvsource"
	"github.com/fitsync/fitsync/pkg/observability"
	"github.com/fitsync/fitsync/pkg/registry"
	"github.com/sirupsen/logrus"
)

// Tick statuses reported in results and metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Config holds pipeline settings.
type Config struct {
	// ChunkSize is the number of CSV records processed per tick
	ChunkSize int `yaml:"chunkSize" default:"10"`
	// Shop restricts the pipeline to one shop's files; empty means all shops
	Shop string `yaml:"shop"`
}

// SetDefaults fills unset fields
func (c *Config) SetDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = csvsource.DefaultChunkSize
	}
}

// TickResult describes what one tick did.
type TickResult struct {
	Status         string `json:"status"`
	FileID         string `json:"fileId,omitempty"`
	ProcessedChunk int    `json:"processedChunk,omitempty"`
	TotalChunks    int    `json:"totalChunks,omitempty"`
	Rollover       bool   `json:"rollover,omitempty"`
	Message        string `json:"message,omitempty"`
	Err            error  `json:"-"`
}

// ProgressReport describes how far through the active file the import is.
type ProgressReport struct {
	FileID          string  `json:"fileId"`
	FileName        string  `json:"fileName"`
	TotalRecords    int     `json:"totalRecords"`
	ChunkSize       int     `json:"chunkSize"`
	TotalChunks     int     `json:"totalChunks"`
	ProcessedChunks int     `json:"processedChunks"`
	RemainingChunks int     `json:"remainingChunks"`
	ProgressPercent float64 `json:"progressPercent"`
}

// Driver runs the chunked import state machine.
type Driver interface {
	// Tick processes the next chunk of the active file, or rolls the file
	// over when all chunks are committed. No active file is a benign no-op.
	Tick(ctx context.Context) (*TickResult, error)

	// Progress reports the active file's import progress without side effects.
	Progress(ctx context.Context) (*ProgressReport, error)
}

type driver struct {
	log        logrus.FieldLogger
	config     *Config
	files      registry.FileStore
	rows       registry.RowStore
	checkpoint checkpoint.Store
	fetcher    csvsource.Fetcher
}

// NewDriver creates an import driver.
func NewDriver(
	log logrus.FieldLogger,
	cfg *Config,
	files registry.FileStore,
	rows registry.RowStore,
	cp checkpoint.Store,
	fetcher csvsource.Fetcher,
) Driver {
	cfg.SetDefaults()

	return &driver{
		log:        log.WithField("service", "pipeline"),
		config:     cfg,
		files:      files,
		rows:       rows,
		checkpoint: cp,
		fetcher:    fetcher,
	}
}

func (d *driver) Tick(ctx context.Context) (*TickResult, error) {
	file, err := d.files.FindActive(ctx, d.config.Shop)
	if err != nil {
		if errors.Is(err, registry.ErrNoActiveFile) {
			observability.RecordTick("idle")

			return &TickResult{Status: StatusSuccess, Message: "no active file"}, nil
		}

		return d.fail("", "find_file_error", fmt.Errorf("failed to pick file: %w", err))
	}

	raw, err := d.fetcher.Fetch(ctx, file.URL)
	if err != nil {
		return d.fail(file.ID, "fetch_error", fmt.Errorf("failed to fetch %s: %w", file.URL, err))
	}

	records, err := csvsource.Parse(raw)
	if err != nil {
		// Checkpoint untouched: a later tick retries the same chunk
		return d.fail(file.ID, "parse_error", fmt.Errorf("failed to parse file %s: %w", file.ID, err))
	}

	totalChunks := csvsource.TotalChunks(len(records), d.config.ChunkSize)

	committed, err := d.checkpoint.Get(ctx, file.ID)
	if err != nil {
		return d.fail(file.ID, "checkpoint_read_error", err)
	}

	if committed >= totalChunks {
		return d.rollover(ctx, file, totalChunks)
	}

	start := time.Now()

	chunk := csvsource.Chunk(records, d.config.ChunkSize, committed)

	rows := make([]registry.ProductRow, 0, len(chunk))
	for i, record := range chunk {
		rows = append(rows, registry.ProductRow{
			FileID:        file.ID,
			RowIndex:      committed*d.config.ChunkSize + i,
			Handle:        record[csvsource.ColumnPart],
			Compatibility: record[csvsource.ColumnEngineType],
			Make:          record[csvsource.ColumnBrand],
			Model:         record[csvsource.ColumnModel],
			Year:          record[csvsource.ColumnYear],
		})
	}

	if err := d.rows.InsertRows(ctx, rows); err != nil {
		return d.fail(file.ID, "insert_error", fmt.Errorf("failed to insert chunk %d: %w", committed, err))
	}

	// Inserts are idempotent on (file_id, row_index), so losing the CAS here
	// costs nothing but the wasted work.
	next, err := d.checkpoint.Advance(ctx, file.ID, committed)
	if err != nil {
		return d.fail(file.ID, "checkpoint_advance_error", err)
	}

	observability.RecordTick("chunk")
	observability.RecordChunk(len(rows), time.Since(start).Seconds())

	d.log.WithFields(logrus.Fields{
		"file_id":      file.ID,
		"chunk":        committed,
		"total_chunks": totalChunks,
		"rows":         len(rows),
	}).Info("Processed chunk")

	return &TickResult{
		Status:         StatusSuccess,
		FileID:         file.ID,
		ProcessedChunk: next,
		TotalChunks:    totalChunks,
	}, nil
}

// rollover closes out a fully-imported file and promotes the next upload.
// The finished file's checkpoint is deleted, so a future file never inherits
// a stale cursor. No chunk is processed in the same tick.
func (d *driver) rollover(ctx context.Context, file *registry.UploadedFile, totalChunks int) (*TickResult, error) {
	if err := d.files.Complete(ctx, file.ID); err != nil {
		return d.fail(file.ID, "complete_error", err)
	}

	if err := d.checkpoint.Clear(ctx, file.ID); err != nil {
		return d.fail(file.ID, "checkpoint_clear_error", err)
	}

	next, err := d.files.ActivateNext(ctx, file.Shop)
	if err != nil {
		return d.fail(file.ID, "activate_next_error", err)
	}

	observability.RecordTick("rollover")
	observability.RecordRollover()

	logFields := logrus.Fields{"file_id": file.ID, "shop": file.Shop}
	if next != nil {
		logFields["next_file_id"] = next.ID
	}

	d.log.WithFields(logFields).Info("File import complete")

	msg := "file complete, queue drained"
	if next != nil {
		msg = fmt.Sprintf("file complete, activated %s", next.ID)
	}

	return &TickResult{
		Status:      StatusSuccess,
		FileID:      file.ID,
		TotalChunks: totalChunks,
		Rollover:    true,
		Message:     msg,
	}, nil
}

func (d *driver) fail(fileID, errorType string, err error) (*TickResult, error) {
	observability.RecordTick("failed")
	observability.RecordError("pipeline", errorType)

	d.log.WithError(err).WithField("file_id", fileID).Error("Tick failed")

	return &TickResult{
		Status: StatusError,
		FileID: fileID,
		Err:    err,
	}, err
}

func (d *driver) Progress(ctx context.Context) (*ProgressReport, error) {
	file, err := d.files.FindActive(ctx, d.config.Shop)
	if err != nil {
		return nil, err
	}

	committed, err := d.checkpoint.Get(ctx, file.ID)
	if err != nil {
		return nil, err
	}

	totalChunks := csvsource.TotalChunks(file.TotalRecords, d.config.ChunkSize)

	processed := committed
	if processed > totalChunks {
		processed = totalChunks
	}

	percent := 100.0
	if totalChunks > 0 {
		percent = float64(processed) / float64(totalChunks) * 100
	}

	return &ProgressReport{
		FileID:          file.ID,
		FileName:        file.Name,
		TotalRecords:    file.TotalRecords,
		ChunkSize:       d.config.ChunkSize,
		TotalChunks:     totalChunks,
		ProcessedChunks: processed,
		RemainingChunks: totalChunks - processed,
		ProgressPercent: percent,
	}, nil
}

// Verify interface compliance at compile time
var _ Driver = (*driver)(nil)
