package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/fitsync/fitsync/internal/testutil"
	r "github.com/fitsync/fitsync/pkg/redis"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleTracker_RoundTrip(t *testing.T) {
	tracker := newScheduleTracker(logrus.New(), testutil.NewMiniredisClient(t), &r.Config{Prefix: "fitsync"})
	ctx := context.Background()

	// Never ran: zero time, no error
	got, err := tracker.GetLastRun(ctx, "import:tick")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, tracker.SetLastRun(ctx, "import:tick", now))

	got, err = tracker.GetLastRun(ctx, "import:tick")
	require.NoError(t, err)
	assert.True(t, got.Equal(now))
}

func TestScheduleTracker_Delete(t *testing.T) {
	tracker := newScheduleTracker(logrus.New(), testutil.NewMiniredisClient(t), &r.Config{Prefix: "fitsync"})
	ctx := context.Background()

	require.NoError(t, tracker.SetLastRun(ctx, "import:tick", time.Now()))
	require.NoError(t, tracker.DeleteLastRun(ctx, "import:tick"))

	got, err := tracker.GetLastRun(ctx, "import:tick")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestScheduleTracker_UsesConfiguredPrefix(t *testing.T) {
	client := testutil.NewMiniredisClient(t)
	tracker := newScheduleTracker(logrus.New(), client, &r.Config{Prefix: "custom"})
	ctx := context.Background()

	require.NoError(t, tracker.SetLastRun(ctx, "import:tick", time.Now()))

	val, err := client.Get(ctx, "custom:scheduler:task:import:tick").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, val)
}
