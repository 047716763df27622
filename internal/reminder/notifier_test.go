package reminder_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hamza-235/Smart-study-Planner/internal/logging"
	"github.com/Hamza-235/Smart-study-Planner/internal/models"
	"github.com/Hamza-235/Smart-study-Planner/internal/reminder"
	"github.com/Hamza-235/Smart-study-Planner/internal/worker"
)

func sampleNotification(id string) reminder.Notification {
	return reminder.Notification{
		TaskID:  id,
		Title:   "Study Reminder",
		Body:    "Practice integrals",
		At:      now,
		Repeat:  models.RepeatNone,
		FiredAt: now,
	}
}

func TestLogNotifier_KeepsRecent(t *testing.T) {
	n := reminder.NewLogNotifier(logging.Discard(), reminder.ChannelInApp, 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, n.Notify(context.Background(), sampleNotification(fmt.Sprintf("t%d", i))))
	}

	recent := n.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "t3", recent[0].TaskID)
	assert.Equal(t, "t5", recent[2].TaskID)
	assert.Equal(t, reminder.ChannelInApp, recent[2].Channel)
	assert.Equal(t, "Reminder: Practice integrals", recent[2].Message)

	recent[0].TaskID = "changed"
	assert.Equal(t, "t3", n.Recent()[0].TaskID)
}

func TestPermissionNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed goes to system", func(t *testing.T) {
		system, fallback := &recorder{}, &recorder{}
		metrics := reminder.NewMetrics()
		p := reminder.NewPermissionNotifier(system, fallback, func() bool { return true }, metrics, logging.Discard())

		require.NoError(t, p.Notify(ctx, sampleNotification("t1")))
		assert.Equal(t, []string{"t1"}, system.taskIDs())
		assert.Empty(t, fallback.taskIDs())
		assert.Equal(t, int64(0), metrics.GetStats().Fallbacks)
	})

	t.Run("denied goes to fallback", func(t *testing.T) {
		system, fallback := &recorder{}, &recorder{}
		metrics := reminder.NewMetrics()
		p := reminder.NewPermissionNotifier(system, fallback, func() bool { return false }, metrics, logging.Discard())

		require.NoError(t, p.Notify(ctx, sampleNotification("t1")))
		assert.Empty(t, system.taskIDs())
		assert.Equal(t, []string{"t1"}, fallback.taskIDs())
		assert.Equal(t, int64(1), metrics.GetStats().Fallbacks)
	})

	t.Run("system failure falls back", func(t *testing.T) {
		system := &recorder{fail: errors.New("no display")}
		fallback := &recorder{}
		p := reminder.NewPermissionNotifier(system, fallback, func() bool { return true }, nil, logging.Discard())

		require.NoError(t, p.Notify(ctx, sampleNotification("t1")))
		assert.Equal(t, []string{"t1"}, fallback.taskIDs())
	})

	t.Run("missing system notifier", func(t *testing.T) {
		fallback := &recorder{}
		p := reminder.NewPermissionNotifier(nil, fallback, func() bool { return true }, nil, logging.Discard())

		require.NoError(t, p.Notify(ctx, sampleNotification("t1")))
		assert.Equal(t, []string{"t1"}, fallback.taskIDs())
	})

	t.Run("fallback failure is returned", func(t *testing.T) {
		fallback := &recorder{fail: errors.New("broken")}
		p := reminder.NewPermissionNotifier(nil, fallback, nil, nil, logging.Discard())

		assert.ErrorIs(t, p.Notify(ctx, sampleNotification("t1")), fallback.fail)
	})
}

func TestPermissionNotifier_FollowsSettings(t *testing.T) {
	f := newFixture(t, remindingTask("t1", now.Add(10*time.Second), models.RepeatNone))
	system, fallback := &recorder{}, &recorder{}
	p := reminder.NewPermissionNotifier(system, fallback, reminder.AllowedBySettings(f.store), nil, logging.Discard())
	engine := reminder.NewEngine(f.store, reminder.Options{Notifier: p, Logger: logging.Discard()})

	_, err := engine.Poll(f.ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, fallback.taskIDs())
	assert.Empty(t, system.taskIDs())
}

func newQueue(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestQueueNotifier_DeliversThroughWorker(t *testing.T) {
	_, client := newQueue(t)
	ctx := context.Background()

	queue := worker.NewJobQueue(client)
	notifier := reminder.NewQueueNotifier(queue, "")
	require.NoError(t, notifier.Notify(ctx, sampleNotification("t1")))

	size, err := queue.GetQueueSize(ctx, worker.DefaultQueue)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	sink := reminder.NewLogNotifier(logging.Discard(), reminder.ChannelSystem, 10)
	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  client,
		PollInterval: time.Second,
		Logger:       logging.Discard(),
	})
	w.RegisterHandler(worker.JobTypeTaskReminder, reminder.NewJobHandler(sink))
	w.Start(ctx, 1)
	defer w.Stop()

	require.Eventually(t, func() bool { return len(sink.Recent()) == 1 }, 3*time.Second, 20*time.Millisecond)
	got := sink.Recent()[0]
	assert.Equal(t, "t1", got.TaskID)
	assert.Equal(t, reminder.ChannelSystem, got.Channel)
	assert.True(t, now.Equal(got.At))
}

func TestQueueNotifier_RedisDown(t *testing.T) {
	mr, client := newQueue(t)
	mr.Close()

	notifier := reminder.NewQueueNotifier(worker.NewJobQueue(client), "reminders")
	assert.Error(t, notifier.Notify(context.Background(), sampleNotification("t1")))
}

func TestJobHandler_RejectsEmptyPayload(t *testing.T) {
	handler := reminder.NewJobHandler(&recorder{})

	err := handler(context.Background(), &worker.Job{Type: worker.JobTypeTaskReminder, Payload: []byte(`{}`)})
	assert.Error(t, err)

	err = handler(context.Background(), &worker.Job{Type: worker.JobTypeTaskReminder, Payload: []byte(`not json`)})
	assert.Error(t, err)
}
