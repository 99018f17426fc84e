package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitsync/fitsync/pkg/observability"
	"github.com/fitsync/fitsync/pkg/pipeline"
	"github.com/fitsync/fitsync/pkg/tasks"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// tickHandler executes import tick tasks.
type tickHandler struct {
	log    logrus.FieldLogger
	driver pipeline.Driver
}

func newTickHandler(log logrus.FieldLogger, driver pipeline.Driver) *tickHandler {
	return &tickHandler{
		log:    log.WithField("component", "tick_handler"),
		driver: driver,
	}
}

// HandleTick runs one pipeline tick. Returning an error hands the task back
// to asynq for its own retry cadence.
func (h *tickHandler) HandleTick(ctx context.Context, task *asynq.Task) error {
	var payload tasks.TickPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		observability.RecordError("tick-handler", "unmarshal_error")

		return fmt.Errorf("failed to unmarshal tick payload: %w", err)
	}

	start := time.Now()

	result, err := h.driver.Tick(ctx)
	if err != nil {
		fileID := ""
		if result != nil {
			fileID = result.FileID
		}

		h.log.WithError(err).WithFields(logrus.Fields{
			"shop":    payload.Shop,
			"file_id": fileID,
		}).Error("Tick task failed")
		observability.RecordError("tick-handler", "execution_error")

		return err
	}

	h.log.WithFields(logrus.Fields{
		"shop":            payload.Shop,
		"file_id":         result.FileID,
		"processed_chunk": result.ProcessedChunk,
		"total_chunks":    result.TotalChunks,
		"rollover":        result.Rollover,
		"duration":        time.Since(start),
	}).Info("Tick task completed")

	return nil
}
