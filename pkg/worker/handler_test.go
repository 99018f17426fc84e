package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fitsync/fitsync/pkg/pipeline"
	"github.com/fitsync/fitsync/pkg/tasks"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct {
	result *pipeline.TickResult
	err    error
	ticks  int
}

func (s *stubDriver) Tick(context.Context) (*pipeline.TickResult, error) {
	s.ticks++

	return s.result, s.err
}

func (s *stubDriver) Progress(context.Context) (*pipeline.ProgressReport, error) {
	return nil, nil
}

func newTickTask(t *testing.T, payload tasks.TickPayload) *asynq.Task {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	return asynq.NewTask(tasks.TypeImportTick, data)
}

func TestTickHandler_Success(t *testing.T) {
	driver := &stubDriver{
		result: &pipeline.TickResult{
			Status:         pipeline.StatusSuccess,
			FileID:         "f1",
			ProcessedChunk: 3,
			TotalChunks:    10,
		},
	}
	handler := newTickHandler(logrus.New(), driver)

	task := newTickTask(t, tasks.TickPayload{Shop: "s", EnqueuedAt: time.Now()})
	require.NoError(t, handler.HandleTick(context.Background(), task))
	assert.Equal(t, 1, driver.ticks)
}

func TestTickHandler_FailureReturnsError(t *testing.T) {
	tickErr := errors.New("fetch failed")
	driver := &stubDriver{
		result: &pipeline.TickResult{Status: pipeline.StatusError, Err: tickErr},
		err:    tickErr,
	}
	handler := newTickHandler(logrus.New(), driver)

	task := newTickTask(t, tasks.TickPayload{})
	err := handler.HandleTick(context.Background(), task)
	assert.ErrorIs(t, err, tickErr)
}

func TestTickHandler_BadPayload(t *testing.T) {
	driver := &stubDriver{}
	handler := newTickHandler(logrus.New(), driver)

	task := asynq.NewTask(tasks.TypeImportTick, []byte("{not json"))
	assert.Error(t, handler.HandleTick(context.Background(), task))
	assert.Zero(t, driver.ticks)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{Concurrency: 1}).Validate())
	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConcurrency)
}
