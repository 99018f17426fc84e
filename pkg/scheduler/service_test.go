package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/fitsync/fitsync/internal/testutil"
	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/tasks"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls        []tasks.TickPayload
	collide      bool
	pending      bool
	statusChecks int
}

func (f *fakeEnqueuer) EnqueueTick(payload tasks.TickPayload, _ ...asynq.Option) (bool, error) {
	f.calls = append(f.calls, payload)

	return !f.collide, nil
}

func (f *fakeEnqueuer) IsTickPendingOrRunning(_ tasks.TickPayload) (bool, error) {
	f.statusChecks++

	return f.pending, nil
}

func newTestScheduler(t *testing.T, schedule string) (*service, *fakeEnqueuer) {
	t.Helper()

	interval, err := parseScheduleInterval(schedule)
	require.NoError(t, err)

	enq := &fakeEnqueuer{}

	return &service{
		log:      logrus.New(),
		config:   &Config{Schedule: schedule},
		tracker:  newScheduleTracker(logrus.New(), testutil.NewMiniredisClient(t), &r.Config{Prefix: "fitsync"}),
		queue:    enq,
		interval: interval,
		done:     make(chan struct{}),
	}, enq
}

func TestService_CheckSchedule_EnqueuesWhenDue(t *testing.T) {
	svc, enq := newTestScheduler(t, "@every 1m")
	ctx := context.Background()
	now := time.Now().UTC()

	// Never ran: due immediately
	svc.checkSchedule(ctx, now)
	require.Len(t, enq.calls, 1)

	// Interval not elapsed: no enqueue
	svc.checkSchedule(ctx, now.Add(30*time.Second))
	assert.Len(t, enq.calls, 1)

	// Interval elapsed: enqueue again
	svc.checkSchedule(ctx, now.Add(61*time.Second))
	assert.Len(t, enq.calls, 2)
}

func TestService_CheckSchedule_LastRunPersisted(t *testing.T) {
	svc, _ := newTestScheduler(t, "@every 1m")
	ctx := context.Background()
	now := time.Now().UTC()

	svc.checkSchedule(ctx, now)

	lastRun, err := svc.tracker.GetLastRun(ctx, tasks.TickPayload{}.UniqueID())
	require.NoError(t, err)
	assert.False(t, lastRun.IsZero())
}

func TestService_CheckSchedule_SkipsWhenTickPending(t *testing.T) {
	svc, enq := newTestScheduler(t, "@every 1m")
	enq.pending = true

	ctx := context.Background()
	now := time.Now().UTC()

	// A queued or running tick keeps its slot: no enqueue, and the schedule
	// does not advance past it
	svc.checkSchedule(ctx, now)
	assert.Empty(t, enq.calls)
	assert.Equal(t, 1, enq.statusChecks)

	lastRun, err := svc.tracker.GetLastRun(ctx, tasks.TickPayload{}.UniqueID())
	require.NoError(t, err)
	assert.True(t, lastRun.IsZero())

	// Once the queue drains, the held-back slot fires
	enq.pending = false
	svc.checkSchedule(ctx, now.Add(time.Second))
	assert.Len(t, enq.calls, 1)
}

func TestService_CheckSchedule_CollapsedEnqueueStillAdvances(t *testing.T) {
	svc, enq := newTestScheduler(t, "@every 1m")
	enq.collide = true

	ctx := context.Background()
	now := time.Now().UTC()

	// Duplicate task in queue is benign; the schedule still advances
	svc.checkSchedule(ctx, now)
	svc.checkSchedule(ctx, now.Add(time.Second))
	assert.Len(t, enq.calls, 1)
}

func TestParseScheduleInterval(t *testing.T) {
	tests := []struct {
		schedule string
		expected time.Duration
		wantErr  bool
	}{
		{schedule: "@every 30s", expected: 30 * time.Second},
		{schedule: "@every 5m", expected: 5 * time.Minute},
		{schedule: "*/5 * * * *", expected: 5 * time.Minute},
		{schedule: "not-a-schedule", wantErr: true},
		{schedule: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			got, err := parseScheduleInterval(tt.schedule)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "@every 1m", cfg.Schedule)

	assert.Error(t, (&Config{Schedule: "bogus"}).Validate())
}
